package engine

import (
	"sync"

	"github.com/joripage/matching-core/pkg/orderbook"
)

type EngineConfig struct {
	// first order id is IDStart+1
	IDStart uint64
}

// SubmitResult is what one Submit produced.
type SubmitResult struct {
	OrderID uint64
	// Fills holds the execution fragments in emission order, resting side first in each pair.
	Fills []orderbook.Order
	// Resting is set when some quantity of the order was left on the book.
	Resting bool
}

// FilledQty sums the incoming order's own fragments.
func (r SubmitResult) FilledQty() uint64 {
	var qty uint64
	for _, f := range r.Fills {
		if f.ID == r.OrderID {
			qty += uint64(f.Qty)
		}
	}
	return qty
}

// Engine serializes access to one order book and fans its events out to the
// registered handlers. Handlers run under the engine lock and must not call
// the engine.
type Engine struct {
	book     *orderbook.OrderBook
	handlers []orderbook.EventHandler
	fills    []orderbook.Order

	mu sync.Mutex
}

func NewEngine(cfg *EngineConfig) *Engine {
	if cfg == nil {
		cfg = &EngineConfig{}
	}
	e := &Engine{}
	e.book = orderbook.New(
		orderbook.WithHandler(fanout{e}),
		orderbook.WithIDGenerator(orderbook.NewSequence(cfg.IDStart)),
	)
	return e
}

// RegisterHandler adds a handler; handlers are called in registration order.
func (e *Engine) RegisterHandler(h orderbook.EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

func (e *Engine) Submit(side orderbook.Side, price int32, qty uint32) SubmitResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.fills = nil
	id := e.book.Submit(side, price, qty)
	_, err := e.book.GetOrderByID(id)

	result := SubmitResult{
		OrderID: id,
		Fills:   e.fills,
		Resting: err == nil,
	}
	e.fills = nil
	return result
}

func (e *Engine) Cancel(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Cancel(id)
}

func (e *Engine) GetOrderByID(id uint64) (orderbook.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.GetOrderByID(id)
}

func (e *Engine) Orders(side orderbook.Side) []orderbook.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Orders(side)
}

func (e *Engine) BestOfBook() orderbook.BestOfBook {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.BestOfBook()
}

func (e *Engine) Depth(maxBidLevels, maxAskLevels int) orderbook.Depth {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Depth(maxBidLevels, maxAskLevels)
}

func (e *Engine) CheckConsistency() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.CheckConsistency()
}

// fanout is the book's only handler; it runs with e.mu held.
type fanout struct {
	e *Engine
}

func (f fanout) OnExecuted(fragment orderbook.Order) {
	f.e.fills = append(f.e.fills, fragment)
	for _, h := range f.e.handlers {
		h.OnExecuted(fragment)
	}
}

func (f fanout) OnCanceled(order orderbook.Order) {
	for _, h := range f.e.handlers {
		h.OnCanceled(order)
	}
}
