// file: pkg/orderbook/orderbook.go

package orderbook

import "fmt"

// OrderBook is the single-instrument matching core.
//
// It is not safe for concurrent use: every call runs to completion and
// callers with more than one goroutine must serialize them (see pkg/engine).
// Handlers run in-line and must not call back into the book.
type OrderBook struct {
	asks *pricedStore
	bids *pricedStore

	orders arena
	index  map[uint64]handle

	ids     IDGenerator
	handler EventHandler

	hasTraded      bool
	lastTradePrice int32
	lastTradeQty   uint64
}

type Option func(*OrderBook)

// WithHandler registers the receiver of execution and cancel events.
func WithHandler(h EventHandler) Option {
	return func(ob *OrderBook) {
		ob.handler = h
	}
}

// WithIDGenerator replaces the default id sequence, which starts at 1.
func WithIDGenerator(g IDGenerator) Option {
	return func(ob *OrderBook) {
		ob.ids = g
	}
}

func New(opts ...Option) *OrderBook {
	ob := &OrderBook{
		asks:  newPricedStore(ASK),
		bids:  newPricedStore(BID),
		index: make(map[uint64]handle),
		ids:   NewSequence(0),
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

func (ob *OrderBook) store(side Side) *pricedStore {
	if side == ASK {
		return ob.asks
	}
	return ob.bids
}

// Submit matches a new order against the opposite side and rests whatever is
// left. The returned id can be looked up or canceled only while the order rests.
func (ob *OrderBook) Submit(side Side, price int32, qty uint32) uint64 {
	if !side.valid() {
		panic(fmt.Sprintf("orderbook: submit with unknown side %q", string(side)))
	}

	order := Order{
		ID:    ob.ids.Next(),
		Side:  side,
		Price: price,
		Qty:   qty,
	}

	ob.matchOrder(&order)

	if !order.IsEmpty() {
		ob.rest(ob.store(side), order)
	}

	ob.mustBeConsistent()
	return order.ID
}

// Cancel removes the whole remaining quantity of a resting order.
func (ob *OrderBook) Cancel(id uint64) error {
	h, ok := ob.index[id]
	if !ok {
		return orderNotFound(id)
	}

	order := *ob.orders.get(h)
	ob.emitCanceled(order)
	ob.detach(ob.store(order.Side), h)

	ob.mustBeConsistent()
	return nil
}

// GetOrderByID returns a copy of a resting order, reflecting any partial fills.
func (ob *OrderBook) GetOrderByID(id uint64) (Order, error) {
	h, ok := ob.index[id]
	if !ok {
		return Order{}, orderNotFound(id)
	}
	return *ob.orders.get(h), nil
}

// Orders lists copies of the resting orders of one side in matching priority.
func (ob *OrderBook) Orders(side Side) []Order {
	s := ob.store(side)
	orders := make([]Order, 0, s.len())
	s.ascend(func(e entry) bool {
		orders = append(orders, *ob.orders.get(e.h))
		return true
	})
	return orders
}

// Len returns how many orders rest on one side.
func (ob *OrderBook) Len(side Side) int {
	return ob.store(side).len()
}

// IndexSize returns how many orders the id index knows about.
func (ob *OrderBook) IndexSize() int {
	return len(ob.index)
}

// CheckConsistency reports whether both sides together hold exactly the indexed orders.
func (ob *OrderBook) CheckConsistency() bool {
	return ob.asks.len()+ob.bids.len() == len(ob.index)
}

func (ob *OrderBook) mustBeConsistent() {
	if !ob.CheckConsistency() {
		panic(fmt.Sprintf("orderbook: inconsistent state: %d asks + %d bids != %d indexed",
			ob.asks.len(), ob.bids.len(), len(ob.index)))
	}
}

// rest stores an order on s and indexes it.
func (ob *OrderBook) rest(s *pricedStore, order Order) {
	if order.IsEmpty() {
		panic(fmt.Sprintf("orderbook: order %d with zero quantity cannot rest", order.ID))
	}
	if _, dup := ob.index[order.ID]; dup {
		panic(fmt.Sprintf("orderbook: order %d is already indexed", order.ID))
	}
	h := ob.orders.alloc(order)
	s.insert(entry{price: order.Price, id: order.ID, h: h})
	ob.index[order.ID] = h
}

// detach takes an order out of s and the index and hands back its last state.
func (ob *OrderBook) detach(s *pricedStore, h handle) Order {
	order := *ob.orders.get(h)
	s.remove(entry{price: order.Price, id: order.ID, h: h})
	delete(ob.index, order.ID)
	return ob.orders.release(h)
}

func (ob *OrderBook) emitExecuted(fragment Order) {
	if ob.handler != nil {
		ob.handler.OnExecuted(fragment)
	}
}

func (ob *OrderBook) emitCanceled(order Order) {
	if ob.handler != nil {
		ob.handler.OnCanceled(order)
	}
}
