package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName     = "REALTIME"
	subjectPattern = "rt.>"
	subjectPrefix  = "rt."
)

// NatsPublisher delivers events over NATS JetStream. One stream covers every
// channel; the channel id is the subject token, so clients subscribe to
// rt.<channelID>.
type NatsPublisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNatsPublisher connects and makes sure the stream exists. Stream creation
// is idempotent, so concurrent boots are safe.
func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPattern},
		Storage:  jetstream.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsPublisher{nc: nc, js: js}, nil
}

// EnsureChannel re-asserts the stream covering the channel's subject.
// CreateOrUpdateStream treats "already exists" as success, which is exactly
// the create-if-absent contract.
func (p *NatsPublisher) EnsureChannel(ctx context.Context, channelID string, members []string) error {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPattern},
		Storage:  jetstream.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("ensure channel %s: %w", channelID, err)
	}
	return nil
}

func (p *NatsPublisher) PublishToChannel(ctx context.Context, channelID string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subjectPrefix+channelID, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (p *NatsPublisher) SendSystemMessage(ctx context.Context, channelID, text string, ev Event) error {
	ev.Text = text
	if ev.Type == "" {
		ev.Type = EventMessageNew
	}
	return p.PublishToChannel(ctx, channelID, ev)
}

// Close drains the underlying connection.
func (p *NatsPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
