package usecase

import (
	"context"
	"time"

	drepo "SerialScope/internal/domain/repository"
	pkgkafka "SerialScope/pkg/kafka"
	applogger "SerialScope/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type ingressStartKey struct{}

// KafkaIngressHook times every consumed message and feeds the metrics
// recorder, so broker ingress shows up next to the polled transports
// in /metrics.
type KafkaIngressHook struct {
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewKafkaIngressHook(metrics drepo.Metrics, logger *applogger.Logger) *KafkaIngressHook {
	return &KafkaIngressHook{metrics: metrics, logger: logger}
}

func (h *KafkaIngressHook) BeforeHandle(ctx context.Context, topic string, m kafka.Message) context.Context {
	return context.WithValue(ctx, ingressStartKey{}, time.Now())
}

func (h *KafkaIngressHook) AfterHandle(ctx context.Context, topic string, m kafka.Message, err error) {
	if err != nil {
		h.metrics.RecordError("kafka_handle")
		h.logger.Warn("kafka handle failed",
			applogger.String("topic", topic),
			applogger.Int("bytes", len(m.Value)),
			applogger.Error(err))
		return
	}
	if start, ok := ctx.Value(ingressStartKey{}).(time.Time); ok {
		h.metrics.RecordLatency("kafka_handle", time.Since(start).Seconds())
	}
}

var _ pkgkafka.ConsumerHook = (*KafkaIngressHook)(nil)
