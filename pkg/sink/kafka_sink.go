package sink

import (
	"context"
	"time"

	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/model"
	"github.com/joripage/matching-core/pkg/orderbook"
	"go.uber.org/zap"
)

// Publisher is the part of kafkawrapper.Producer the sink needs.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error
}

// KafkaSink journals book events to a topic as model.BookEvent JSON,
// keyed by order id. Publish failures are logged and dropped.
type KafkaSink struct {
	pub    Publisher
	topic  string
	logger *logging.Logger
	now    func() time.Time
}

func NewKafkaSink(pub Publisher, topic string, logger *logging.Logger) *KafkaSink {
	return &KafkaSink{
		pub:    pub,
		topic:  topic,
		logger: logger,
		now:    time.Now,
	}
}

func (s *KafkaSink) OnExecuted(fragment orderbook.Order) {
	s.publish(model.NewBookEventExecuted(fragment, s.now()))
}

func (s *KafkaSink) OnCanceled(order orderbook.Order) {
	s.publish(model.NewBookEventCanceled(order, s.now()))
}

func (s *KafkaSink) publish(ev *model.BookEvent) {
	ctx := context.Background()
	headers := map[string]string{"kind": string(ev.Kind)}
	if err := s.pub.PublishJSON(ctx, s.topic, ev.Key(), ev, headers); err != nil {
		s.logger.Error(ctx, "publish book event failed",
			zap.String("topic", s.topic),
			zap.String("event_id", ev.EventID),
			zap.Error(err),
		)
	}
}
