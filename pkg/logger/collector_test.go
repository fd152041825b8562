package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
	topics  []string
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) wait(t *testing.T) []AggregatedLogEntry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		if len(p.batches) > 0 {
			batch := p.batches[0]
			p.mu.Unlock()
			return batch
		}
		p.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no batch published")
	return nil
}

func TestCollectorDedupesRepeatedLines(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "log_digest",
		Publisher:      pub,
	})

	for i := 0; i < 5; i++ {
		c.AddLog("error", "sink write failed", map[string]interface{}{"attempt": i}, "repository/kafka_sink.go:42")
	}
	c.Close()

	batch := pub.wait(t)
	if len(batch) != 1 {
		t.Fatalf("entries: %d", len(batch))
	}
	if batch[0].Count != 5 {
		t.Fatalf("count: %d", batch[0].Count)
	}
	if batch[0].Fields["attempt"] != 4 {
		t.Fatalf("fields not latest: %v", batch[0].Fields)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "log_digest",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "first", nil, "a.go:1")
	c.AddLog("error", "second", nil, "b.go:2")

	batch := pub.wait(t)
	if len(batch) != 2 {
		t.Fatalf("entries: %d", len(batch))
	}
	if pub.topics[0] != "log_digest" {
		t.Fatalf("topic: %s", pub.topics[0])
	}
}
