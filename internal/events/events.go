package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashvault/assetstore/types"
)

// Event types emitted by the asset service. Downstream workers, such as
// thumbnailers deriving variants, subscribe to these.
const (
	TypeWritten    = "asset.written"
	TypeDeleted    = "asset.deleted"
	TypeVisibility = "asset.visibility"
)

// attrType is the message attribute carrying the event type, so
// consumers can filter without decoding the payload.
const attrType = "event_type"

// AssetEvent describes one change to a stored asset.
type AssetEvent struct {
	// Type is one of the Type* constants.
	Type string `json:"type"`

	// Identity is the logical file the event concerns.
	Identity types.FileIdentity `json:"identity"`

	// Visibility is set on written and visibility events.
	Visibility types.Visibility `json:"visibility,omitempty"`

	// OccurredAt is the time the service emitted the event.
	OccurredAt time.Time `json:"occurred_at"`
}

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Publisher emits asset events to a fixed channel on a broker backend.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the provided backend and
// channel. A nil backend yields a publisher that drops events, so
// callers need no nil checks when eventing is disabled.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// Publish encodes and sends one asset event. Returns the broker message
// ID when the backend provides one.
func (p *Publisher) Publish(ctx context.Context, event AssetEvent) (string, error) {
	if p.backend == nil {
		return "", nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, p.channel, data, map[string]string{attrType: event.Type})
}

// Subscribe consumes asset events from the publisher's channel,
// decoding each message into an AssetEvent.
func (p *Publisher) Subscribe(ctx context.Context, handler func(ctx context.Context, event AssetEvent) error) error {
	if p.backend == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.backend.Subscribe(ctx, p.channel, func(ctx context.Context, msg Message) error {
		var event AssetEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
