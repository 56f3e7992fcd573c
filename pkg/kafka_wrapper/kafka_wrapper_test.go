package kafkawrapper

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

func TestBackoffDurationIsCapped(t *testing.T) {
	min, max := 10*time.Millisecond, 80*time.Millisecond
	for attempt := 0; attempt < 20; attempt++ {
		d := backoffDuration(min, max, attempt)
		if d < 0 || d >= max {
			t.Fatalf("attempt %d: %v out of [0,%v)", attempt, d, max)
		}
	}
	if d := backoffDuration(0, max, 3); d != 0 {
		t.Errorf("expected zero delay for zero base, got %v", d)
	}
}

func TestWrapMessage(t *testing.T) {
	raw := kafka.Message{
		Topic:     "book.events",
		Partition: 2,
		Offset:    42,
		Key:       []byte("7"),
		Value:     []byte(`{"order_id":7}`),
		Headers:   mapToHeaders(map[string]string{"kind": "EXECUTED"}),
	}
	m := wrapMessage(raw)
	if m.Topic != "book.events" || m.Partition != 2 || m.Offset != 42 {
		t.Errorf("unexpected position %+v", m)
	}
	if string(m.Key) != "7" || m.Headers["kind"] != "EXECUTED" {
		t.Errorf("unexpected key/headers %q %v", m.Key, m.Headers)
	}
}

func TestNewConsumerGroupRequiresTopic(t *testing.T) {
	if _, err := NewConsumerGroup(ConsumerConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Errorf("expected error without topic")
	}
}

func TestNilProducer(t *testing.T) {
	var p *Producer
	if err := p.Publish(context.Background(), "t", nil, nil, nil); err == nil {
		t.Errorf("expected error from nil producer")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Errorf("close of nil producer: %v", err)
	}
}

func TestRunStopsAllWorkersOnCancel(t *testing.T) {
	baseline := runtime.NumGoroutine()

	cg, err := NewConsumerGroup(ConsumerConfig{
		Brokers:     []string{"127.0.0.1:1"},
		Topic:       "book.events",
		WorkerCount: 8,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err = cg.Run(ctx, func(context.Context, []Message) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := cg.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > baseline && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > baseline {
		t.Fatalf("goroutines leaked: before=%d after=%d", baseline, n)
	}
}
