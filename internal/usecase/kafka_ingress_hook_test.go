package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingMetrics struct {
	nopMetrics
	errKinds  []string
	latencies map[string][]float64
}

func (m *recordingMetrics) RecordError(kind string) {
	m.errKinds = append(m.errKinds, kind)
}

func (m *recordingMetrics) RecordLatency(op string, seconds float64) {
	if m.latencies == nil {
		m.latencies = make(map[string][]float64)
	}
	m.latencies[op] = append(m.latencies[op], seconds)
}

func TestKafkaIngressHookRecordsLatency(t *testing.T) {
	m := &recordingMetrics{}
	h := NewKafkaIngressHook(m, testLogger(t))

	msg := kafka.Message{Value: []byte("t:1 rpm:800")}
	ctx := h.BeforeHandle(context.Background(), "lines", msg)
	h.AfterHandle(ctx, "lines", msg, nil)

	got := m.latencies["kafka_handle"]
	if len(got) != 1 {
		t.Fatalf("latency samples: %v", m.latencies)
	}
	if got[0] < 0 {
		t.Fatalf("negative latency: %v", got[0])
	}
	if len(m.errKinds) != 0 {
		t.Fatalf("unexpected errors recorded: %v", m.errKinds)
	}
}

func TestKafkaIngressHookRecordsFailure(t *testing.T) {
	m := &recordingMetrics{}
	h := NewKafkaIngressHook(m, testLogger(t))

	msg := kafka.Message{Value: []byte("garbage")}
	ctx := h.BeforeHandle(context.Background(), "lines", msg)
	h.AfterHandle(ctx, "lines", msg, errors.New("decode failed"))

	if len(m.errKinds) != 1 || m.errKinds[0] != "kafka_handle" {
		t.Fatalf("error kinds: %v", m.errKinds)
	}
	if len(m.latencies["kafka_handle"]) != 0 {
		t.Fatal("failed handle should not record latency")
	}
}
