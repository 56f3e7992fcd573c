// Package console runs the line-oriented book commands used by cmd/bookd.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/joripage/matching-core/pkg/engine"
	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/orderbook"
	"github.com/joripage/matching-core/pkg/render"
	"github.com/joripage/matching-core/pkg/tape"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Publisher receives the book after every command that changed it.
type Publisher interface {
	Publish(ctx context.Context, d orderbook.Depth) error
}

type Config struct {
	// levels per side for l2 and snapshots, negative for all
	DepthLevels int
	// fractional digits of prices typed and shown
	PriceScale int32
}

type Session struct {
	engine    *engine.Engine
	tape      *tape.Tape
	publisher Publisher
	cfg       Config
	out       io.Writer
	logger    *logging.Logger
}

// NewSession writes command output to out. tape and publisher may be nil.
func NewSession(e *engine.Engine, t *tape.Tape, publisher Publisher, cfg Config, out io.Writer, logger *logging.Logger) *Session {
	return &Session{
		engine:    e,
		tape:      t,
		publisher: publisher,
		cfg:       cfg,
		out:       out,
		logger:    logger,
	}
}

// Run executes every line of in. Command errors are printed and do not stop the loop.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Exec(ctx, scanner.Text()); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// Exec runs one command line. Text after '#' is ignored.
func (s *Session) Exec(ctx context.Context, line string) error {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	ctx = logging.WithContext(logging.NewRequestContext(ctx), s.logger)
	s.logger.Debug(ctx, "exec", zap.Strings("args", args))

	switch cmd, args := strings.ToLower(args[0]), args[1:]; cmd {
	case "buy":
		return s.submit(ctx, orderbook.BID, args)
	case "sell":
		return s.submit(ctx, orderbook.ASK, args)
	case "cancel":
		return s.cancel(ctx, args)
	case "get":
		return s.get(args)
	case "l1":
		return s.writeJSON(render.L1JSON(s.engine.BestOfBook()))
	case "l2":
		return s.l2(args)
	case "book":
		render.DepthTable(s.out, s.engine.Depth(orderbook.Unlimited, orderbook.Unlimited), s.cfg.PriceScale)
		return nil
	case "orders":
		render.OrdersTable(s.out, "bids", s.engine.Orders(orderbook.BID), s.cfg.PriceScale)
		render.OrdersTable(s.out, "asks", s.engine.Orders(orderbook.ASK), s.cfg.PriceScale)
		return nil
	case "tape":
		return s.printTape(args)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd)
	}
}

func (s *Session) submit(ctx context.Context, side orderbook.Side, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: %s <price> <qty>", ErrUsage, strings.ToLower(string(side)))
	}
	price, err := ParsePrice(args[0], s.cfg.PriceScale)
	if err != nil {
		return err
	}
	qty, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", args[1], err)
	}

	res := s.engine.Submit(side, price, uint32(qty))
	state := "done"
	if res.Resting {
		state = "resting"
	}
	fmt.Fprintf(s.out, "order %d: filled %d of %d, %s\n", res.OrderID, res.FilledQty(), qty, state)
	s.publish(ctx)
	return nil
}

func (s *Session) cancel(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := s.engine.Cancel(id); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order %d: canceled\n", id)
	s.publish(ctx)
	return nil
}

func (s *Session) get(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	o, err := s.engine.GetOrderByID(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order %d: %s %d @ %s\n", o.ID, o.Side, o.Qty, render.Price(o.Price, s.cfg.PriceScale))
	return nil
}

func (s *Session) l2(args []string) error {
	bids, asks := s.cfg.DepthLevels, s.cfg.DepthLevels
	switch len(args) {
	case 0:
	case 2:
		var err error
		if bids, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid bid limit %q: %w", args[0], err)
		}
		if asks, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid ask limit %q: %w", args[1], err)
		}
	default:
		return fmt.Errorf("%w: l2 [bidLimit askLimit]", ErrUsage)
	}
	return s.writeJSON(render.L2JSON(s.engine.Depth(bids, asks)))
}

func (s *Session) printTape(args []string) error {
	if s.tape == nil {
		return errors.New("tape disabled")
	}
	n := 10
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid count %q: %w", args[0], err)
		}
	}
	for _, p := range s.tape.Recent(n) {
		fmt.Fprintf(s.out, "#%d order %d %s %d @ %s\n", p.Seq, p.OrderID, p.Side, p.Qty, render.Price(p.Price, s.cfg.PriceScale))
	}
	return nil
}

func (s *Session) writeJSON(b []byte, err error) error {
	if err != nil {
		return err
	}
	_, err = s.out.Write(b)
	return err
}

// publish failures only get logged; the book has already changed.
func (s *Session) publish(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	d := s.engine.Depth(s.cfg.DepthLevels, s.cfg.DepthLevels)
	if err := s.publisher.Publish(ctx, d); err != nil {
		logger, ctx := logging.GetLogger(ctx)
		logger.Warn(ctx, "publish snapshot failed", zap.Error(err))
	}
}

func parseID(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: <id>", ErrUsage)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q: %w", args[0], err)
	}
	return id, nil
}

// ParsePrice reads a decimal price with at most scale fractional digits and
// returns it in ticks.
func ParsePrice(s string, scale int32) (int32, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	ticks := d.Shift(scale)
	if !ticks.Equal(ticks.Truncate(0)) {
		return 0, fmt.Errorf("invalid price %q: more than %d decimals", s, scale)
	}
	if ticks.LessThan(decimal.NewFromInt(math.MinInt32)) || ticks.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("invalid price %q: out of range", s)
	}
	return int32(ticks.IntPart()), nil
}
