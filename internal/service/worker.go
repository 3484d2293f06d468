package service

import (
	"context"

	"github.com/unclebandit/hoperise-backend/internal/activity"
	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/metrics"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/queue"
	"go.uber.org/zap"
)

// ActivityRecorder defines what the worker needs from the feed
type ActivityRecorder interface {
	Record(ctx context.Context, campaignID uint64, e activity.Entry) (bool, error)
}

// Worker turns escrow events into activity feed entries
type Worker struct {
	Feed    ActivityRecorder
	JobChan <-chan queue.EventJob
	Logger  *zap.Logger
}

// Constructor
func NewWorker(feed ActivityRecorder, jobChan <-chan queue.EventJob, log *zap.Logger) *Worker {
	return &Worker{
		Feed:    feed,
		JobChan: jobChan,
		Logger:  logger.OrNop(log),
	}
}

// Start processes jobs until the channel closes or ctx is done. Each job's
// outcome goes back to the queue, which retries failures.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.JobChan:
			if !ok {
				return
			}
			job.Done(w.Process(ctx, job.Event))
		}
	}
}

// Process records one event. A duplicate is not an error.
func (w *Worker) Process(ctx context.Context, evt model.EscrowEvent) error {
	entry := activity.Entry{
		EventID:    evt.ID.String(),
		Type:       string(evt.Type),
		Actor:      evt.Actor,
		Amount:     evt.Amount,
		Message:    RenderActivity(evt),
		OccurredAt: evt.OccurredAt,
	}

	recorded, err := w.Feed.Record(ctx, evt.CampaignID, entry)
	switch {
	case err != nil:
		metrics.IncrementEventConsumed(string(evt.Type), "failed")
		w.Logger.Error("failed to record activity",
			zap.String("event_id", entry.EventID),
			zap.Uint64("campaign_id", evt.CampaignID),
			zap.Error(err),
		)
		return err
	case !recorded:
		metrics.IncrementEventConsumed(string(evt.Type), "duplicate")
	default:
		metrics.IncrementEventConsumed(string(evt.Type), "recorded")
		w.Logger.Debug("activity recorded",
			zap.String("event_id", entry.EventID),
			zap.Uint64("campaign_id", evt.CampaignID),
		)
	}
	return nil
}
