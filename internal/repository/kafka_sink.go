package repository

import (
	"context"
	"math"
	"sync"
	"time"

	drepo "SerialScope/internal/domain/repository"
	pkgkafka "SerialScope/pkg/kafka"
)

// KafkaSink fans decoded lines out to a Kafka topic as JSON, one
// message per line, plus a schema message whenever the header set
// grows. NaN values are encoded as JSON null since NaN is not
// representable in JSON.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
	timeout  time.Duration

	mu      sync.RWMutex
	signals []string
}

func NewKafkaSink(producer *pkgkafka.Producer, topic string) drepo.RecordSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		timeout:  5 * time.Second,
	}
}

func (k *KafkaSink) OnSchemaChanged(headers []string) error {
	k.mu.Lock()
	if len(headers) > 1 {
		k.signals = append([]string(nil), headers[1:]...)
	} else {
		k.signals = nil
	}
	k.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.producer.Publish(ctx, k.topic, []byte("schema"), map[string]interface{}{
		"type":    "schema",
		"headers": headers,
	})
}

func (k *KafkaSink) OnLine(ts float64, values []float64) error {
	k.mu.RLock()
	names := k.signals
	k.mu.RUnlock()

	samples := make(map[string]interface{}, len(values))
	for i, v := range values {
		if i >= len(names) {
			break
		}
		if math.IsNaN(v) {
			samples[names[i]] = nil
		} else {
			samples[names[i]] = v
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.producer.Publish(ctx, k.topic, []byte("line"), map[string]interface{}{
		"type":    "line",
		"t":       ts,
		"samples": samples,
	})
}

func (k *KafkaSink) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
