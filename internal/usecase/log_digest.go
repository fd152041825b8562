package usecase

import (
	"context"
	"fmt"
	"time"

	applogger "SerialScope/pkg/logger"
	"SerialScope/pkg/queue"
)

// LogDigestJob drains aggregated error-log batches off the job queue
// and re-emits each batch as single counted digest lines, so a
// flapping sink or transport produces one entry per flush interval
// instead of a log flood.
type LogDigestJob struct {
	logger *applogger.Logger
}

func NewLogDigestJob(logger *applogger.Logger) *LogDigestJob {
	return &LogDigestJob{logger: logger}
}

func (j *LogDigestJob) Name() string { return "log_digest" }
func (j *LogDigestJob) Type() string { return "log_digest" }

func (j *LogDigestJob) Handle(ctx context.Context, payload interface{}) error {
	entries, err := queue.ParsePayload[[]applogger.AggregatedLogEntry](payload)
	if err != nil {
		return fmt.Errorf("log digest payload: %w", err)
	}
	for _, e := range *entries {
		j.logger.Info("error digest",
			applogger.String("message", e.Message),
			applogger.String("caller", e.Caller),
			applogger.Int("count", e.Count),
			applogger.String("first_seen", e.FirstSeen.Format(time.RFC3339)),
			applogger.String("last_seen", e.LastSeen.Format(time.RFC3339)),
		)
	}
	return nil
}

var _ queue.Job = (*LogDigestJob)(nil)
