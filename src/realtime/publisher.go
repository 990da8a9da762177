// Package realtime pushes transition events to open clients. Delivery is
// best-effort: the notification log is the durable source of truth, and every
// publish failure is logged and swallowed.
package realtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Event types emitted on connection transitions.
const (
	EventConnectionRequest   = "connection_request"
	EventConnectionAccepted  = "connection_accepted"
	EventConnectionWithdrawn = "connection_withdrawn"
	EventMessageNew          = "message.new"
)

// PersonalChannelID is the one channel a user receives connection events on.
func PersonalChannelID(externalID string) string {
	return "notifications_" + externalID
}

// PairChannelID is the plain pairwise channel used for connection system
// messages. Both directions resolve to the same id.
func PairChannelID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "dm_" + strings.Join(pair, "_")
}

// ChatChannelID is the hashed pairwise channel used for chat threads. This is
// a distinct derivation from PairChannelID; existing deployments depend on
// both, so neither may be substituted for the other.
func ChatChannelID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	sum := sha256.Sum256([]byte(strings.Join(pair, "|")))
	return "dm_" + hex.EncodeToString(sum[:])[:56]
}

// Event is an ephemeral real-time payload. It is never persisted here; ID
// exists so consumers can deduplicate under at-least-once delivery.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	FromUser   string                 `json:"fromUser,omitempty"`
	FromName   string                 `json:"fromName,omitempty"`
	ProfileURL string                 `json:"profileUrl,omitempty"`
	Text       string                 `json:"text,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent builds an event with a fresh id.
func NewEvent(eventType, fromUser, fromName, profileURL string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		FromUser:   fromUser,
		FromName:   fromName,
		ProfileURL: profileURL,
	}
}

// Publisher is the contract the core needs from the real-time transport:
// publish to a named channel, at-least-once, best-effort ordering.
type Publisher interface {
	// EnsureChannel creates the channel if absent; "already exists" is not
	// an error.
	EnsureChannel(ctx context.Context, channelID string, members []string) error
	PublishToChannel(ctx context.Context, channelID string, ev Event) error
	// SendSystemMessage appends a human-readable system message to a
	// channel so the transition stays visible in message history.
	SendSystemMessage(ctx context.Context, channelID, text string, ev Event) error
}

// BestEffort wraps a Publisher so that no call can fail: errors are logged
// and swallowed, and a nil transport turns every call into a no-op. The
// fire-and-forget guarantee lives in these signatures.
type BestEffort struct {
	pub Publisher
	log *slog.Logger
}

func NewBestEffort(pub Publisher, log *slog.Logger) *BestEffort {
	if log == nil {
		log = slog.Default()
	}
	return &BestEffort{pub: pub, log: log}
}

func (b *BestEffort) EnsureChannel(ctx context.Context, channelID string, members []string) {
	if b == nil || b.pub == nil {
		return
	}
	if err := b.pub.EnsureChannel(ctx, channelID, members); err != nil {
		b.log.Warn("realtime: ensure channel failed", "channel", channelID, "error", err)
	}
}

func (b *BestEffort) PublishToUser(ctx context.Context, externalID string, ev Event) {
	b.publish(ctx, PersonalChannelID(externalID), []string{externalID}, ev)
}

func (b *BestEffort) PublishToChannel(ctx context.Context, channelID string, members []string, ev Event) {
	b.publish(ctx, channelID, members, ev)
}

func (b *BestEffort) publish(ctx context.Context, channelID string, members []string, ev Event) {
	if b == nil || b.pub == nil {
		return
	}
	b.EnsureChannel(ctx, channelID, members)
	if err := b.pub.PublishToChannel(ctx, channelID, ev); err != nil {
		b.log.Warn("realtime: publish failed", "channel", channelID, "type", ev.Type, "error", err)
	}
}

func (b *BestEffort) SendSystemMessage(ctx context.Context, channelID string, members []string, text string, ev Event) {
	if b == nil || b.pub == nil {
		return
	}
	b.EnsureChannel(ctx, channelID, members)
	if err := b.pub.SendSystemMessage(ctx, channelID, text, ev); err != nil {
		b.log.Warn("realtime: system message failed", "channel", channelID, "error", err)
	}
}
