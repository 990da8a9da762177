package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"skillswap/backend/src/models"
)

// MemoryUserStore is an in-memory UserStore used by tests and database-less
// dev boots. FailHook, when set, is consulted before every relation mutation
// so tests can inject partial-failure scenarios.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	FailHook func(op string, userID primitive.ObjectID, field RelationField) error
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

// Put inserts a user directly, assigning an id if absent.
func (s *MemoryUserStore) Put(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Id.IsZero() {
		u.Id = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.Id] = u
	return u
}

func (s *MemoryUserStore) Resolve(ctx context.Context, ref string) (*models.User, error) {
	if strings.HasPrefix(ref, externalIDPrefix) {
		return s.FindByExternalID(ctx, ref)
	}
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.FindByID(ctx, id)
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryUserStore) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ExternalId == externalID {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (s *MemoryUserStore) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ExternalId == u.ExternalId {
			existing.Email = u.Email
			existing.FullName = u.FullName
			existing.Avatar = u.Avatar
			existing.UpdatedAt = time.Now()
			return copyUser(existing), nil
		}
	}

	fresh := copyUser(u)
	fresh.Id = primitive.NewObjectID()
	fresh.Connections = []primitive.ObjectID{}
	fresh.RequestsSent = []primitive.ObjectID{}
	fresh.RequestsReceived = []primitive.ObjectID{}
	fresh.CreatedAt = time.Now()
	fresh.UpdatedAt = fresh.CreatedAt
	s.users[fresh.Id] = fresh
	return copyUser(fresh), nil
}

func (s *MemoryUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	for k, v := range set {
		switch k {
		case "fullName":
			u.FullName, _ = v.(string)
		case "avatar":
			u.Avatar, _ = v.(string)
		case "bio":
			u.Bio, _ = v.(string)
		case "location":
			u.Location, _ = v.(string)
		case "skillsTeaching":
			u.SkillsTeaching, _ = v.([]string)
		case "skillsLearning":
			u.SkillsLearning, _ = v.([]string)
		}
	}
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (s *MemoryUserStore) Suggestions(ctx context.Context, u *models.User, limit int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	related := make(map[primitive.ObjectID]bool)
	related[u.Id] = true
	for _, id := range u.Connections {
		related[id] = true
	}
	for _, id := range u.RequestsSent {
		related[id] = true
	}
	for _, id := range u.RequestsReceived {
		related[id] = true
	}

	var out []models.User
	for _, candidate := range s.users {
		if related[candidate.Id] {
			continue
		}
		out = append(out, *copyUser(candidate))
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryUserStore) AddToSet(ctx context.Context, userID primitive.ObjectID, field RelationField, other primitive.ObjectID) error {
	if s.FailHook != nil {
		if err := s.FailHook("add", userID, field); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}

	set := s.fieldOf(u, field)
	for _, v := range *set {
		if v == other {
			return nil
		}
	}
	*set = append(*set, other)
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryUserStore) PullFromSet(ctx context.Context, userID primitive.ObjectID, field RelationField, other primitive.ObjectID) error {
	if s.FailHook != nil {
		if err := s.FailHook("pull", userID, field); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}

	set := s.fieldOf(u, field)
	kept := (*set)[:0]
	for _, v := range *set {
		if v != other {
			kept = append(kept, v)
		}
	}
	*set = kept
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryUserStore) fieldOf(u *models.User, field RelationField) *[]primitive.ObjectID {
	switch field {
	case FieldConnections:
		return &u.Connections
	case FieldRequestsSent:
		return &u.RequestsSent
	default:
		return &u.RequestsReceived
	}
}

func (s *MemoryUserStore) ForEachUser(ctx context.Context, fn func(*models.User) error) error {
	s.mu.Lock()
	snapshot := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		snapshot = append(snapshot, copyUser(u))
	}
	s.mu.Unlock()

	for _, u := range snapshot {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

func copyUser(u *models.User) *models.User {
	dup := *u
	dup.SkillsTeaching = append([]string(nil), u.SkillsTeaching...)
	dup.SkillsLearning = append([]string(nil), u.SkillsLearning...)
	dup.Connections = append([]primitive.ObjectID(nil), u.Connections...)
	dup.RequestsSent = append([]primitive.ObjectID(nil), u.RequestsSent...)
	dup.RequestsReceived = append([]primitive.ObjectID(nil), u.RequestsReceived...)
	return &dup
}

// MemoryNotificationStore is an in-memory notification log. Records are kept
// in append order; List walks them newest-first.
type MemoryNotificationStore struct {
	mu      sync.Mutex
	records []*models.Notification
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

func (s *MemoryNotificationStore) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	dup := *n
	dup.Id = primitive.NewObjectID()
	dup.Read = false
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if dup.Data == nil {
		dup.Data = map[string]interface{}{}
	}
	s.records = append(s.records, &dup)

	out := dup
	return &out, nil
}

func (s *MemoryNotificationStore) List(ctx context.Context, recipient primitive.ObjectID, filter models.NotificationFilter, limit, skip int64) ([]models.Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Notification
	for i := len(s.records) - 1; i >= 0; i-- {
		n := s.records[i]
		if n.Recipient != recipient {
			continue
		}
		if filter == models.FilterRead && !n.Read {
			continue
		}
		if filter == models.FilterUnread && n.Read {
			continue
		}
		matched = append(matched, *n)
	}

	if skip >= int64(len(matched)) {
		return []models.Notification{}, false, nil
	}
	matched = matched[skip:]

	hasMore := int64(len(matched)) > limit
	if hasMore {
		matched = matched[:limit]
	}
	return matched, hasMore, nil
}

func (s *MemoryNotificationStore) FindByID(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.find(id, recipient); n != nil {
		dup := *n
		return &dup, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryNotificationStore) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.find(id, recipient)
	if n == nil {
		return ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryNotificationStore) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.records {
		if n.Recipient == recipient && !n.Read {
			n.Read = true
			n.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.records {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) Delete(ctx context.Context, id, recipient primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.records {
		if n.Id == id && n.Recipient == recipient {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryNotificationStore) DeleteMatching(ctx context.Context, recipient, sender primitive.ObjectID, typ models.NotificationType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*models.Notification
	var removed int64
	for _, n := range s.records {
		if n.Recipient == recipient && n.Sender == sender && n.Type == typ {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	s.records = kept
	return removed, nil
}

func (s *MemoryNotificationStore) Upgrade(ctx context.Context, id, recipient primitive.ObjectID, typ models.NotificationType, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.find(id, recipient)
	if n == nil || n.Type != models.NotificationTypeConnectionRequest {
		return ErrNotFound
	}
	n.Type = typ
	n.Title = title
	n.Message = message
	n.Read = true
	n.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryNotificationStore) find(id, recipient primitive.ObjectID) *models.Notification {
	for _, n := range s.records {
		if n.Id == id && n.Recipient == recipient {
			return n
		}
	}
	return nil
}

// MemoryMessageStore is an in-memory MessageStore.
type MemoryMessageStore struct {
	mu            sync.Mutex
	conversations []*models.Conversation
	messages      []*models.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

func (s *MemoryMessageStore) UpsertConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := models.ParticipantPair(a, b)
	for _, c := range s.conversations {
		if len(c.Participants) == 2 && c.Participants[0] == pair[0] && c.Participants[1] == pair[1] {
			c.UpdatedAt = time.Now()
			dup := *c
			return &dup, nil
		}
	}

	now := time.Now()
	convo := &models.Conversation{
		Id:           primitive.NewObjectID(),
		Participants: pair,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.conversations = append(s.conversations, convo)
	dup := *convo
	return &dup, nil
}

func (s *MemoryMessageStore) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Conversation
	for _, c := range s.conversations {
		for _, p := range c.Participants {
			if p == userID {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryMessageStore) Messages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Message
	for _, m := range s.messages {
		if m.Conversation == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *MemoryMessageStore) Append(ctx context.Context, m *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := *m
	dup.Id = primitive.NewObjectID()
	dup.CreatedAt = time.Now()
	s.messages = append(s.messages, &dup)

	for _, c := range s.conversations {
		if c.Id == m.Conversation {
			c.LastMessage = m.Text
			c.LastSenderId = m.SenderId
			c.UpdatedAt = dup.CreatedAt
		}
	}

	out := dup
	return &out, nil
}
