package orderbook

import "fmt"

type Side string

const (
	ASK Side = "ASK"
	BID Side = "BID"
)

// Opposite returns the side an order on s matches against.
func (s Side) Opposite() Side {
	switch s {
	case ASK:
		return BID
	case BID:
		return ASK
	}
	panic(fmt.Sprintf("orderbook: unknown side %q", string(s)))
}

func (s Side) valid() bool {
	return s == ASK || s == BID
}

// Order is either resting in the book or an execution fragment carved out of one.
// ID, Side and Price never change once the order is created; Qty only shrinks through Split.
type Order struct {
	ID    uint64
	Side  Side
	Price int32
	Qty   uint32
}

// emptyOrder marks "no order held"; it is never stored.
var emptyOrder = Order{}

func (o Order) IsEmpty() bool {
	return o.Qty == 0
}

// Split carves qty off o at executionPrice and returns the carved fragment.
// The fragment keeps o's id and side. Asks may only execute at or above their
// price, bids at or below; anything else means the matching loop is broken.
func (o *Order) Split(qty uint32, executionPrice int32) Order {
	if qty > o.Qty {
		panic(fmt.Sprintf("orderbook: split of %d exceeds quantity %d of order %d", qty, o.Qty, o.ID))
	}
	switch o.Side {
	case ASK:
		if executionPrice < o.Price {
			panic(fmt.Sprintf("orderbook: ask %d priced %d cannot execute at %d", o.ID, o.Price, executionPrice))
		}
	case BID:
		if executionPrice > o.Price {
			panic(fmt.Sprintf("orderbook: bid %d priced %d cannot execute at %d", o.ID, o.Price, executionPrice))
		}
	default:
		panic(fmt.Sprintf("orderbook: order %d has unknown side %q", o.ID, string(o.Side)))
	}

	fragment := *o
	fragment.Qty = qty
	fragment.Price = executionPrice
	o.Qty -= qty
	return fragment
}

// IDGenerator hands out order ids. Ids must be strictly increasing because
// they double as the arrival-time tie-break.
type IDGenerator interface {
	Next() uint64
}

type sequence struct {
	last uint64
}

// NewSequence returns a generator whose first id is start+1.
func NewSequence(start uint64) IDGenerator {
	return &sequence{last: start}
}

func (s *sequence) Next() uint64 {
	s.last++
	return s.last
}
