// Package connections implements the connection-request protocol: the four
// transitions that keep two users' relation sets mutually consistent, append
// to the notification log, and fan transitions out to open clients.
package connections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"skillswap/backend/src/models"
	"skillswap/backend/src/realtime"
	"skillswap/backend/src/store"
)

var (
	ErrSelfRequest        = errors.New("cannot send a connection request to yourself")
	ErrAlreadyConnected   = errors.New("already connected")
	ErrRequestAlreadySent = errors.New("connection request already sent")
	// ErrInconsistent means the first record was mutated and the second
	// write kept failing. The sets are idempotent, so a client retry (or
	// the sweep) converges the pair.
	ErrInconsistent = errors.New("relationship records diverged")
)

// Service runs the relationship protocol. Every transition follows the same
// discipline: relation writes, then the durable notification append, then
// best-effort fan-out. Notification and fan-out failures never fail the
// transition.
type Service struct {
	users         store.UserStore
	notifications store.NotificationStore
	fanout        *realtime.BestEffort
	log           *slog.Logger
}

func NewService(users store.UserStore, notifications store.NotificationStore, fanout *realtime.BestEffort, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, notifications: notifications, fanout: fanout, log: log}
}

// Request sends a connection request from actor to the user targetRef
// resolves to. If the target already has a pending request toward the actor,
// the two are merged straight into connected instead of leaving both
// directions pending.
func (s *Service) Request(ctx context.Context, actor *models.User, targetRef string) (models.ConnectionStatus, error) {
	target, err := s.users.Resolve(ctx, targetRef)
	if err != nil {
		return "", err
	}
	if target.Id == actor.Id {
		return "", ErrSelfRequest
	}

	switch actor.StatusWith(target.Id) {
	case models.StatusConnected:
		return "", ErrAlreadyConnected
	case models.StatusRequestSent:
		return "", ErrRequestAlreadySent
	case models.StatusRequestReceived:
		// Both sides want to connect; accept instead of stacking a
		// second pending request.
		return s.accept(ctx, actor, target, primitive.NilObjectID)
	}

	if err := s.users.AddToSet(ctx, actor.Id, store.FieldRequestsSent, target.Id); err != nil {
		return "", err
	}
	if err := s.secondLeg(ctx, func() error {
		return s.users.AddToSet(ctx, target.Id, store.FieldRequestsReceived, actor.Id)
	}); err != nil {
		return "", err
	}

	s.notify(ctx, &models.Notification{
		Recipient: target.Id,
		Sender:    actor.Id,
		Type:      models.NotificationTypeConnectionRequest,
		Title:     "New Connection Request",
		Message:   fmt.Sprintf("%s wants to connect with you", actor.FullName),
		Data: map[string]interface{}{
			"connectionRequestId": actor.Id.Hex(),
			"profileUrl":          profileURL(actor),
		},
	})

	ev := realtime.NewEvent(realtime.EventConnectionRequest, actor.ExternalId, actor.FullName, profileURL(actor))
	s.fanout.PublishToUser(ctx, target.ExternalId, ev)
	s.fanout.SendSystemMessage(ctx,
		realtime.PairChannelID(actor.ExternalId, target.ExternalId),
		[]string{actor.ExternalId, target.ExternalId},
		fmt.Sprintf("%s sent a connection request", actor.FullName),
		ev,
	)

	return models.StatusRequestSent, nil
}

// Accept completes a request the user senderRef resolves to sent to actor.
// When notificationID names the originating connection_request record, that
// record is upgraded in place instead of duplicated.
func (s *Service) Accept(ctx context.Context, actor *models.User, senderRef, notificationID string) (models.ConnectionStatus, error) {
	sender, err := s.users.Resolve(ctx, senderRef)
	if err != nil {
		return "", err
	}
	if sender.Id == actor.Id {
		return "", ErrSelfRequest
	}

	var originID primitive.ObjectID
	if notificationID != "" {
		if originID, err = primitive.ObjectIDFromHex(notificationID); err != nil {
			s.log.Warn("accept: ignoring malformed notification id", "id", notificationID)
			originID = primitive.NilObjectID
		}
	}

	return s.accept(ctx, actor, sender, originID)
}

func (s *Service) accept(ctx context.Context, actor, sender *models.User, originID primitive.ObjectID) (models.ConnectionStatus, error) {
	// Actor's record first, then the sender's. All four mutations are
	// idempotent set operations, so a repeat of the whole sequence after
	// a partial failure converges.
	if err := s.users.PullFromSet(ctx, actor.Id, store.FieldRequestsReceived, sender.Id); err != nil {
		return "", err
	}
	if err := s.users.AddToSet(ctx, actor.Id, store.FieldConnections, sender.Id); err != nil {
		return "", err
	}
	if err := s.secondLeg(ctx, func() error {
		if err := s.users.PullFromSet(ctx, sender.Id, store.FieldRequestsSent, actor.Id); err != nil {
			return err
		}
		return s.users.AddToSet(ctx, sender.Id, store.FieldConnections, actor.Id)
	}); err != nil {
		return "", err
	}

	// Upgrade the actionable request in place for the acceptor's view;
	// falling back to a plain read-toggle keeps already-processed records
	// untouched. The acceptor gets no new notification for their own
	// action.
	if !originID.IsZero() {
		err := s.notifications.Upgrade(ctx, originID, actor.Id,
			models.NotificationTypeConnectionAccepted,
			"Connection Accepted",
			fmt.Sprintf("You are now connected with %s", sender.FullName),
		)
		if errors.Is(err, store.ErrNotFound) {
			err = s.notifications.MarkRead(ctx, originID, actor.Id)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("accept: notification upgrade failed", "id", originID.Hex(), "error", err)
		}
	}

	s.notify(ctx, &models.Notification{
		Recipient: sender.Id,
		Sender:    actor.Id,
		Type:      models.NotificationTypeConnectionAccepted,
		Title:     "Connection Accepted",
		Message:   fmt.Sprintf("%s accepted your connection request", actor.FullName),
		Data: map[string]interface{}{
			"profileUrl": profileURL(actor),
		},
	})

	ev := realtime.NewEvent(realtime.EventConnectionAccepted, actor.ExternalId, actor.FullName, profileURL(actor))
	s.fanout.PublishToUser(ctx, sender.ExternalId, ev)
	s.fanout.SendSystemMessage(ctx,
		realtime.PairChannelID(actor.ExternalId, sender.ExternalId),
		[]string{actor.ExternalId, sender.ExternalId},
		fmt.Sprintf("%s accepted your connection request", actor.FullName),
		ev,
	)

	return models.StatusConnected, nil
}

// Withdraw retracts a request actor sent to the user targetRef resolves to.
// Withdrawing an absent request is a no-op success, and the recipient's
// actionable notification is retracted so no stale request lingers in their
// log. No withdrawal notification is created; open clients still get the
// event.
func (s *Service) Withdraw(ctx context.Context, actor *models.User, targetRef string) (models.ConnectionStatus, error) {
	target, err := s.users.Resolve(ctx, targetRef)
	if err != nil {
		return "", err
	}
	if target.Id == actor.Id {
		return "", ErrSelfRequest
	}

	if err := s.users.PullFromSet(ctx, actor.Id, store.FieldRequestsSent, target.Id); err != nil {
		return "", err
	}
	if err := s.secondLeg(ctx, func() error {
		return s.users.PullFromSet(ctx, target.Id, store.FieldRequestsReceived, actor.Id)
	}); err != nil {
		return "", err
	}

	if _, err := s.notifications.DeleteMatching(ctx, target.Id, actor.Id, models.NotificationTypeConnectionRequest); err != nil {
		s.log.Warn("withdraw: notification retraction failed", "recipient", target.Id.Hex(), "error", err)
	}

	ev := realtime.NewEvent(realtime.EventConnectionWithdrawn, actor.ExternalId, actor.FullName, "")
	s.fanout.PublishToUser(ctx, target.ExternalId, ev)
	s.fanout.SendSystemMessage(ctx,
		realtime.PairChannelID(actor.ExternalId, target.ExternalId),
		[]string{actor.ExternalId, target.ExternalId},
		fmt.Sprintf("%s withdrew their connection request", actor.FullName),
		ev,
	)

	return models.StatusNotConnected, nil
}

// Status reports the relationship from the actor's point of view.
func (s *Service) Status(ctx context.Context, actor *models.User, targetRef string) (models.ConnectionStatus, error) {
	target, err := s.users.Resolve(ctx, targetRef)
	if err != nil {
		return "", err
	}
	return actor.StatusWith(target.Id), nil
}

// secondLeg runs the counterpart-record write with one retry. A second
// failure surfaces as ErrInconsistent: the pair has diverged and only a
// retry of the whole operation or the sweep will close the gap.
func (s *Service) secondLeg(ctx context.Context, write func() error) error {
	err := write()
	if err == nil {
		return nil
	}
	s.log.Warn("second-leg write failed, retrying once", "error", err)
	if err = write(); err != nil {
		return fmt.Errorf("%w: %v", ErrInconsistent, err)
	}
	return nil
}

// notify appends to the notification log, logging and swallowing failures:
// the relationship mutation has already committed and must not be rolled
// back over a side effect.
func (s *Service) notify(ctx context.Context, n *models.Notification) {
	if _, err := s.notifications.Create(ctx, n); err != nil {
		s.log.Error("notification create failed", "recipient", n.Recipient.Hex(), "type", n.Type, "error", err)
	}
}

func profileURL(u *models.User) string {
	return "/profile/" + u.ExternalId
}
