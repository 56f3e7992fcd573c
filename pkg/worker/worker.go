package worker

import (
	"context"
	"encoding/json"

	kafkawrapper "github.com/joripage/matching-core/pkg/kafka_wrapper"
	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/model"
	"github.com/joripage/matching-core/pkg/repo"
	"go.uber.org/zap"
)

// Consumer is the part of kafkawrapper.ConsumerGroup the worker drives.
type Consumer interface {
	Run(ctx context.Context, handler kafkawrapper.BatchHandler) error
}

// Worker copies journaled book events from Kafka into the journal db.
type Worker struct {
	bookEvent repo.IBookEvent
	logger    *logging.Logger
}

func NewWorker(r repo.IRepo, logger *logging.Logger) *Worker {
	return &Worker{
		bookEvent: r.BookEvent(),
		logger:    logger,
	}
}

func (w *Worker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.Run(ctx, w.HandleBatch)
}

// HandleBatch stores one batch. Undecodable messages are logged and skipped;
// a store error fails the whole batch so it is retried.
func (w *Worker) HandleBatch(ctx context.Context, batch []kafkawrapper.Message) error {
	ctx = logging.WithContext(logging.NewRequestContext(ctx), w.logger)
	events := decodeBatch(ctx, batch)

	if _, err := w.bookEvent.BulkCreate(ctx, events); err != nil {
		w.logger.Error(ctx, "store book events failed", zap.Int("count", len(events)), zap.Error(err))
		return err
	}
	w.logger.Debug(ctx, "stored book events", zap.Int("count", len(events)))
	return nil
}

// decodeBatch logs through the logger carried by ctx.
func decodeBatch(ctx context.Context, batch []kafkawrapper.Message) []*model.BookEvent {
	logger, ctx := logging.GetLogger(ctx)

	events := make([]*model.BookEvent, 0, len(batch))
	for _, msg := range batch {
		var ev model.BookEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Warn(ctx, "skip undecodable book event",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}
		if ev.EventID == "" {
			logger.Warn(ctx, "skip book event without id", zap.Int64("offset", msg.Offset))
			continue
		}
		events = append(events, &ev)
	}
	return events
}
