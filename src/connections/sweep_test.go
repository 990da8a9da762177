package connections

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"skillswap/backend/src/models"
	"skillswap/backend/src/store"
)

func newSweepFixture(t *testing.T) (*Sweeper, *store.MemoryUserStore) {
	t.Helper()
	users := store.NewMemoryUserStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSweeper(users, log, time.Minute), users
}

func seedPair(users *store.MemoryUserStore) (*models.User, *models.User) {
	a := users.Put(&models.User{ExternalId: "user_ayla", FullName: "Ayla Reyes"})
	b := users.Put(&models.User{ExternalId: "user_ben", FullName: "Ben Okafor"})
	return a, b
}

func mustFind(t *testing.T, users *store.MemoryUserStore, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestSweepCompletesHalfAppliedRequest(t *testing.T) {
	sweeper, users := newSweepFixture(t)
	a, b := seedPair(users)
	a.RequestsSent = []primitive.ObjectID{b.Id}
	users.Put(a)

	repaired, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	// The request writes the sender's leg first, so a lone sent entry
	// means the recipient's mirror is the missing half.
	b = mustFind(t, users, b.Id)
	assert.True(t, b.HasReceivedRequest(a.Id))

	repaired, err = sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestSweepCompletesHalfAppliedWithdrawal(t *testing.T) {
	sweeper, users := newSweepFixture(t)
	a, b := seedPair(users)
	b.RequestsReceived = []primitive.ObjectID{a.Id}
	users.Put(b)

	repaired, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	// Withdrawal pulls the sender's leg first, so a lone received entry
	// means the withdrawal should be finished, not the request restored.
	b = mustFind(t, users, b.Id)
	assert.Empty(t, b.RequestsReceived)
}

func TestSweepCompletesHalfAppliedAccept(t *testing.T) {
	sweeper, users := newSweepFixture(t)
	a, b := seedPair(users)
	a.Connections = []primitive.ObjectID{b.Id}
	b.RequestsSent = []primitive.ObjectID{a.Id}
	users.Put(a)
	users.Put(b)

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	a, b = mustFind(t, users, a.Id), mustFind(t, users, b.Id)
	assert.True(t, a.HasConnection(b.Id))
	assert.True(t, b.HasConnection(a.Id))
	assert.Empty(t, a.RequestsSent)
	assert.Empty(t, a.RequestsReceived)
	assert.Empty(t, b.RequestsSent)
	assert.Empty(t, b.RequestsReceived)

	repaired, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestSweepMergesMutualPendingIntoConnected(t *testing.T) {
	sweeper, users := newSweepFixture(t)
	a, b := seedPair(users)
	a.RequestsSent = []primitive.ObjectID{b.Id}
	a.RequestsReceived = []primitive.ObjectID{b.Id}
	b.RequestsSent = []primitive.ObjectID{a.Id}
	b.RequestsReceived = []primitive.ObjectID{a.Id}
	users.Put(a)
	users.Put(b)

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	a, b = mustFind(t, users, a.Id), mustFind(t, users, b.Id)
	assert.True(t, a.HasConnection(b.Id))
	assert.True(t, b.HasConnection(a.Id))
	assert.Empty(t, a.RequestsSent)
	assert.Empty(t, a.RequestsReceived)
	assert.Empty(t, b.RequestsSent)
	assert.Empty(t, b.RequestsReceived)

	repaired, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestSweepClearsPendingEntriesOnConnectedPairs(t *testing.T) {
	sweeper, users := newSweepFixture(t)
	a, b := seedPair(users)
	a.Connections = []primitive.ObjectID{b.Id}
	a.RequestsSent = []primitive.ObjectID{b.Id}
	b.Connections = []primitive.ObjectID{a.Id}
	b.RequestsReceived = []primitive.ObjectID{a.Id}
	users.Put(a)
	users.Put(b)

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	a, b = mustFind(t, users, a.Id), mustFind(t, users, b.Id)
	assert.True(t, a.HasConnection(b.Id))
	assert.True(t, b.HasConnection(a.Id))
	assert.Empty(t, a.RequestsSent)
	assert.Empty(t, b.RequestsReceived)
}

func TestSweepLeavesHealthyStatesAlone(t *testing.T) {
	sweeper, users := newSweepFixture(t)
	a, b := seedPair(users)
	c := users.Put(&models.User{ExternalId: "user_cho", FullName: "Cho Min"})

	// a<->b connected, a->c pending: both fully mirrored.
	a.Connections = []primitive.ObjectID{b.Id}
	a.RequestsSent = []primitive.ObjectID{c.Id}
	b.Connections = []primitive.ObjectID{a.Id}
	c.RequestsReceived = []primitive.ObjectID{a.Id}
	users.Put(a)
	users.Put(b)
	users.Put(c)

	repaired, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
