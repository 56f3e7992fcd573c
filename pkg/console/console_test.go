package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joripage/matching-core/pkg/engine"
	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/orderbook"
	"github.com/joripage/matching-core/pkg/tape"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	depths []orderbook.Depth
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, d orderbook.Depth) error {
	p.depths = append(p.depths, d)
	return p.err
}

func newTestSession(cfg Config) (*Session, *bytes.Buffer, *recordingPublisher) {
	e := engine.NewEngine(nil)
	tp := tape.New(0)
	e.RegisterHandler(tp)
	pub := &recordingPublisher{}
	out := &bytes.Buffer{}
	return NewSession(e, tp, pub, cfg, out, logging.New(zap.NewNop())), out, pub
}

func exec(t *testing.T, s *Session, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	if err := s.Exec(context.Background(), line); err != nil {
		t.Fatalf("%q: %v", line, err)
	}
	return out.String()
}

func TestSessionCommands(t *testing.T) {
	s, out, pub := newTestSession(Config{DepthLevels: orderbook.Unlimited})

	if got := exec(t, s, out, "sell 1000 10"); got != "order 1: filled 0 of 10, resting\n" {
		t.Errorf("sell: %q", got)
	}
	if got := exec(t, s, out, "buy 1000 4  # partial"); got != "order 2: filled 4 of 4, done\n" {
		t.Errorf("buy: %q", got)
	}
	if got := exec(t, s, out, "get 1"); got != "order 1: ASK 6 @ 1000\n" {
		t.Errorf("get: %q", got)
	}
	if got := exec(t, s, out, "l1"); !strings.Contains(got, `"last_transaction"`) || strings.Contains(got, `"best_bid"`) {
		t.Errorf("l1: %s", got)
	}
	if got := exec(t, s, out, "l2 0 1"); !strings.Contains(got, `"bids": []`) || !strings.Contains(got, `"quantity": 6`) {
		t.Errorf("l2: %s", got)
	}
	if got := exec(t, s, out, "tape"); got != "#2 order 2 BID 4 @ 1000\n#1 order 1 ASK 4 @ 1000\n" {
		t.Errorf("tape: %q", got)
	}
	if got := exec(t, s, out, "book"); !strings.Contains(got, "1000") {
		t.Errorf("book: %s", got)
	}
	if got := exec(t, s, out, "cancel 1"); got != "order 1: canceled\n" {
		t.Errorf("cancel: %q", got)
	}
	if got := exec(t, s, out, "# only a comment"); got != "" {
		t.Errorf("comment produced output %q", got)
	}

	if len(pub.depths) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(pub.depths))
	}
	if last := pub.depths[2]; len(last.Asks) != 0 || len(last.Bids) != 0 || last.LastTrade == nil {
		t.Errorf("unexpected final snapshot %+v", last)
	}
}

func TestSessionErrors(t *testing.T) {
	s, _, _ := newTestSession(Config{DepthLevels: 5})
	ctx := context.Background()

	if err := s.Exec(ctx, "cancel 42"); !errors.Is(err, orderbook.ErrOrderNotFound) {
		t.Errorf("cancel unknown: %v", err)
	}
	if err := s.Exec(ctx, "get 42"); !errors.Is(err, orderbook.ErrOrderNotFound) {
		t.Errorf("get unknown: %v", err)
	}
	if err := s.Exec(ctx, "frobnicate"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command: %v", err)
	}
	for _, line := range []string{"buy 1", "cancel", "l2 1"} {
		if err := s.Exec(ctx, line); !errors.Is(err, ErrUsage) {
			t.Errorf("%q: expected usage error, got %v", line, err)
		}
	}
	for _, line := range []string{"buy x 1", "sell 10 -1", "cancel abc", "tape x"} {
		if err := s.Exec(ctx, line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}
}

func TestSessionRun(t *testing.T) {
	s, out, _ := newTestSession(Config{DepthLevels: 5, PriceScale: 2})

	in := strings.NewReader("sell 10.05 3\nbogus\nbuy 10.05 1\nget 1\n")
	if err := s.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	want := "order 1: filled 0 of 3, resting\n" +
		"error: unknown command \"bogus\"\n" +
		"order 2: filled 1 of 1, done\n" +
		"order 1: ASK 2 @ 10.05\n"
	if out.String() != want {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in    string
		scale int32
		want  int32
		ok    bool
	}{
		{"1002", 0, 1002, true},
		{"10.02", 2, 1002, true},
		{"10.2", 2, 1020, true},
		{"-3", 0, -3, true},
		{"10.025", 2, 0, false},
		{"1.5", 0, 0, false},
		{"99999999999", 0, 0, false},
		{"abc", 0, 0, false},
	}
	for _, c := range cases {
		got, err := ParsePrice(c.in, c.scale)
		if (err == nil) != c.ok || got != c.want {
			t.Errorf("ParsePrice(%q, %d) = %d, %v", c.in, c.scale, got, err)
		}
	}
}

func TestSessionLogsPublishFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := engine.NewEngine(nil)
	pub := &recordingPublisher{err: errors.New("redis down")}
	out := &bytes.Buffer{}
	s := NewSession(e, nil, pub, Config{DepthLevels: 1}, out, logging.New(zap.New(core)))

	if err := s.Exec(context.Background(), "sell 100 1"); err != nil {
		t.Fatalf("publish failure must not fail the command: %v", err)
	}

	warns := logs.FilterMessage("publish snapshot failed").All()
	if len(warns) != 1 || warns[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warning, got %+v", logs.All())
	}
	exec := logs.FilterMessage("exec").All()
	if len(exec) != 1 || warns[0].ContextMap()["request_id"] != exec[0].ContextMap()["request_id"] {
		t.Errorf("expected the warning to carry the command's request id, got %v", warns[0].ContextMap())
	}
}
