package connections

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"skillswap/backend/src/models"
	"skillswap/backend/src/store"
)

// Sweeper repairs relation-set divergence left behind by partial two-record
// writes. Every repair is an idempotent set operation, so a sweep can be
// re-run (or race a live transition) safely.
//
// The write order inside each transition decides the repair direction:
// requests write the sender's leg first and withdrawals pull it first, so a
// sent entry without its received mirror is a half-applied request (finish
// it), while a received entry without its sent mirror is a half-applied
// withdrawal (finish that instead). An asymmetric connection is a
// half-applied accept.
type Sweeper struct {
	users    store.UserStore
	log      *slog.Logger
	interval time.Duration
}

func NewSweeper(users store.UserStore, log *slog.Logger, interval time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{users: users, log: log, interval: interval}
}

// Start runs the sweep on a ticker until ctx is cancelled.
func (w *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				repaired, err := w.Run(ctx)
				if err != nil {
					w.log.Error("reconcile sweep failed", "error", err)
					continue
				}
				if repaired > 0 {
					w.log.Info("reconcile sweep repaired records", "repairs", repaired)
				}
			}
		}
	}()
}

// Run walks all user documents once and repairs every divergent pair it
// finds. Returns the number of repair writes issued.
func (w *Sweeper) Run(ctx context.Context) (int, error) {
	byID := make(map[primitive.ObjectID]*models.User)
	if err := w.users.ForEachUser(ctx, func(u *models.User) error {
		byID[u.Id] = u
		return nil
	}); err != nil {
		return 0, err
	}

	repairs := 0
	repair := func(err error) {
		if err != nil {
			w.log.Warn("sweep repair write failed", "error", err)
			return
		}
		repairs++
	}

	for _, u := range byID {
		for _, other := range u.Connections {
			counterpart, ok := byID[other]
			if !ok {
				continue
			}
			if !counterpart.HasConnection(u.Id) {
				repair(w.users.AddToSet(ctx, counterpart.Id, store.FieldConnections, u.Id))
			}
			// Connected is terminal: no pending entry may coexist
			// with it, in either direction.
			if u.HasSentRequest(other) {
				repair(w.users.PullFromSet(ctx, u.Id, store.FieldRequestsSent, other))
			}
			if u.HasReceivedRequest(other) {
				repair(w.users.PullFromSet(ctx, u.Id, store.FieldRequestsReceived, other))
			}
			if counterpart.HasSentRequest(u.Id) {
				repair(w.users.PullFromSet(ctx, counterpart.Id, store.FieldRequestsSent, u.Id))
			}
			if counterpart.HasReceivedRequest(u.Id) {
				repair(w.users.PullFromSet(ctx, counterpart.Id, store.FieldRequestsReceived, u.Id))
			}
		}

		for _, other := range u.RequestsSent {
			counterpart, ok := byID[other]
			if !ok || u.HasConnection(other) || counterpart.HasConnection(u.Id) {
				continue
			}
			// Legacy both-pending state (each side requested the
			// other): merge into connected, same policy the live
			// Request path applies.
			if u.HasReceivedRequest(other) && counterpart.HasSentRequest(u.Id) {
				repair(w.users.AddToSet(ctx, u.Id, store.FieldConnections, other))
				repair(w.users.AddToSet(ctx, counterpart.Id, store.FieldConnections, u.Id))
				repair(w.users.PullFromSet(ctx, u.Id, store.FieldRequestsSent, other))
				repair(w.users.PullFromSet(ctx, u.Id, store.FieldRequestsReceived, other))
				repair(w.users.PullFromSet(ctx, counterpart.Id, store.FieldRequestsSent, u.Id))
				repair(w.users.PullFromSet(ctx, counterpart.Id, store.FieldRequestsReceived, u.Id))
				continue
			}
			if !counterpart.HasReceivedRequest(u.Id) {
				repair(w.users.AddToSet(ctx, counterpart.Id, store.FieldRequestsReceived, u.Id))
			}
		}

		for _, other := range u.RequestsReceived {
			counterpart, ok := byID[other]
			if !ok || u.HasConnection(other) || counterpart.HasConnection(u.Id) {
				continue
			}
			if !counterpart.HasSentRequest(u.Id) {
				repair(w.users.PullFromSet(ctx, u.Id, store.FieldRequestsReceived, other))
			}
		}
	}

	return repairs, nil
}
