package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"skillswap/backend/src/models"
)

var (
	// ErrNotFound is returned when a document does not exist (or is not
	// owned by the caller, which is reported the same way).
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned when an identifier parses in neither
	// namespace.
	ErrInvalidID = errors.New("invalid id")
)

// RelationField names one of the three relation sets on a user document.
type RelationField string

const (
	FieldConnections      RelationField = "connections"
	FieldRequestsSent     RelationField = "requestsSent"
	FieldRequestsReceived RelationField = "requestsReceived"
)

// UserStore owns user documents and their relation sets.
//
// AddToSet and PullFromSet are single-document, idempotent mutations: the
// relationship protocol sequences them per pair, and repeating either call
// converges to the same state. There is no cross-document transaction.
type UserStore interface {
	// Resolve accepts either an identity-provider id (user_ prefix) or a
	// hex document id and returns the canonical document.
	Resolve(ctx context.Context, ref string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (*models.User, error)
	Suggestions(ctx context.Context, u *models.User, limit int64) ([]models.User, error)

	AddToSet(ctx context.Context, userID primitive.ObjectID, field RelationField, other primitive.ObjectID) error
	PullFromSet(ctx context.Context, userID primitive.ObjectID, field RelationField, other primitive.ObjectID) error

	// ForEachUser walks all user documents; used by the reconcile sweep.
	ForEachUser(ctx context.Context, fn func(*models.User) error) error
}

// NotificationStore is the append-mostly notification log.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	// List returns a newest-first page plus a hasMore flag, computed by
	// fetching limit+1 documents and trimming.
	List(ctx context.Context, recipient primitive.ObjectID, filter models.NotificationFilter, limit, skip int64) ([]models.Notification, bool, error)
	FindByID(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	// MarkRead is idempotent: marking an already-read record succeeds.
	MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, recipient primitive.ObjectID) error
	// DeleteMatching retracts notifications scoped by (recipient, sender,
	// type) so unrelated records survive.
	DeleteMatching(ctx context.Context, recipient, sender primitive.ObjectID, typ models.NotificationType) (int64, error)
	// Upgrade rewrites a connection_request in place (new type, title,
	// message, read=true). ErrNotFound when the record is no longer an
	// unprocessed request addressed to recipient.
	Upgrade(ctx context.Context, id, recipient primitive.ObjectID, typ models.NotificationType, title, message string) error
}

// MessageStore owns direct-message threads.
type MessageStore interface {
	UpsertConversation(ctx context.Context, a, b string) (*models.Conversation, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
	Messages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error)
	// Append stores a message and updates the conversation's last-message
	// summary.
	Append(ctx context.Context, m *models.Message) (*models.Message, error)
}
