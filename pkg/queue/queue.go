package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// QueueService is the enqueue-only face handed to HTTP handlers and
// the log collector; they never see workers or retries.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// Job handles one message type pulled off the queue.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type the job is dispatched on.
	Type() string

	Handle(ctx context.Context, payload interface{}) error
}

// Message is the wire form of one queued payload.
type Message struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Attempts  int         `json:"attempts"`
	Timestamp time.Time   `json:"timestamp"`
}

// Config sizes the worker pool and the retry policy.
type Config struct {
	Workers    int
	RetryLimit int
	RetryDelay time.Duration
}

// ParsePayload recovers a typed payload inside a job handler. Locally
// enqueued payloads arrive as the original value; payloads that went
// through redis arrive as decoded JSON and take a marshal round-trip.
func ParsePayload[T any](payload interface{}) (*T, error) {
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(p, &out); err != nil {
			return nil, fmt.Errorf("payload unmarshal: %w", err)
		}
		return &out, nil
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("payload marshal: %w", err)
		}
		var out T
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("payload unmarshal: %w", err)
		}
		return &out, nil
	}
}
