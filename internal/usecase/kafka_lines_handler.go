package usecase

import (
	"context"
	"errors"

	drepo "SerialScope/internal/domain/repository"
	"SerialScope/internal/service/decode"
	pkgkafka "SerialScope/pkg/kafka"
	applogger "SerialScope/pkg/logger"
)

// KafkaLinesHandler consumes raw telemetry lines from a Kafka topic
// and feeds them through the same ingest path as the polling
// transports. The message payload is the line text itself.
type KafkaLinesHandler struct {
	topic   string
	ing     *Ingestor
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewKafkaLinesHandler(topic string, ing *Ingestor, metrics drepo.Metrics, logger *applogger.Logger) *KafkaLinesHandler {
	return &KafkaLinesHandler{topic: topic, ing: ing, metrics: metrics, logger: logger}
}

func (h *KafkaLinesHandler) Topic() string { return h.topic }

func (h *KafkaLinesHandler) Handle(ctx context.Context, b []byte) error {
	if err := h.ing.IngestLine(string(b)); err != nil {
		// A line without a timestamp is dropped, not retried: redelivery
		// cannot fix the payload and would only cycle through the DLQ.
		if errors.Is(err, decode.ErrMissingTimestamp) {
			h.logger.Warn("kafka line dropped", applogger.Error(err))
			return nil
		}
		h.metrics.RecordError("kafka_ingest")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaLinesHandler)(nil)
