package realtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalChannelID(t *testing.T) {
	assert.Equal(t, "notifications_user_2abc", PersonalChannelID("user_2abc"))
}

func TestPairChannelIDIsSortedAndSymmetric(t *testing.T) {
	assert.Equal(t, "dm_user_alice_user_bob", PairChannelID("user_alice", "user_bob"))
	assert.Equal(t, PairChannelID("user_alice", "user_bob"), PairChannelID("user_bob", "user_alice"))
}

func TestChatChannelIDDerivation(t *testing.T) {
	sum := sha256.Sum256([]byte("user_alice|user_bob"))
	want := "dm_" + hex.EncodeToString(sum[:])[:56]

	got := ChatChannelID("user_bob", "user_alice")
	assert.Equal(t, want, got)
	assert.Len(t, got, 59)

	// The hashed chat id and the plain pair id are separate namespaces.
	assert.NotEqual(t, PairChannelID("user_alice", "user_bob"), got)
}

func TestNewEventAssignsUniqueIDs(t *testing.T) {
	a := NewEvent(EventConnectionRequest, "user_x", "X", "/profile/user_x")
	b := NewEvent(EventConnectionRequest, "user_x", "X", "/profile/user_x")

	require.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, EventConnectionRequest, a.Type)
	assert.Equal(t, "user_x", a.FromUser)
}

type countingPublisher struct {
	ensures   int
	publishes int
	systems   int
	err       error
}

func (p *countingPublisher) EnsureChannel(ctx context.Context, channelID string, members []string) error {
	p.ensures++
	return p.err
}

func (p *countingPublisher) PublishToChannel(ctx context.Context, channelID string, ev Event) error {
	p.publishes++
	return p.err
}

func (p *countingPublisher) SendSystemMessage(ctx context.Context, channelID, text string, ev Event) error {
	p.systems++
	return p.err
}

func TestBestEffortSwallowsTransportErrors(t *testing.T) {
	pub := &countingPublisher{err: assert.AnError}
	be := NewBestEffort(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// None of these may panic or surface the error.
	be.EnsureChannel(ctx, "notifications_user_a", []string{"user_a"})
	be.PublishToUser(ctx, "user_a", NewEvent(EventConnectionRequest, "user_b", "B", ""))
	be.SendSystemMessage(ctx, PairChannelID("user_a", "user_b"), []string{"user_a", "user_b"}, "hi", Event{})

	assert.Equal(t, 1, pub.publishes)
	assert.Equal(t, 1, pub.systems)
}

func TestBestEffortNilTransportIsNoOp(t *testing.T) {
	be := NewBestEffort(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	be.EnsureChannel(ctx, "notifications_user_a", []string{"user_a"})
	be.PublishToUser(ctx, "user_a", Event{})
	be.PublishToChannel(ctx, "dm_user_a_user_b", []string{"user_a", "user_b"}, Event{})
	be.SendSystemMessage(ctx, "dm_user_a_user_b", []string{"user_a", "user_b"}, "hi", Event{})
}

func TestBestEffortEnsuresBeforePublish(t *testing.T) {
	pub := &countingPublisher{}
	be := NewBestEffort(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	be.PublishToUser(context.Background(), "user_a", Event{Type: EventConnectionAccepted})

	assert.Equal(t, 1, pub.ensures)
	assert.Equal(t, 1, pub.publishes)
}
