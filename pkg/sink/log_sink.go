package sink

import (
	"context"

	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/orderbook"
	"go.uber.org/zap"
)

// LogSink writes every book event to the structured log.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnExecuted(fragment orderbook.Order) {
	s.logger.Info(context.Background(), "order executed", orderFields(fragment)...)
}

func (s *LogSink) OnCanceled(order orderbook.Order) {
	s.logger.Info(context.Background(), "order canceled", orderFields(order)...)
}

func orderFields(o orderbook.Order) []zap.Field {
	return []zap.Field{
		zap.Uint64("order_id", o.ID),
		zap.String("side", string(o.Side)),
		zap.Int32("price", o.Price),
		zap.Uint32("qty", o.Qty),
	}
}
