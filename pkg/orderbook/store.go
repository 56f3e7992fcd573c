package orderbook

import (
	"fmt"

	"github.com/google/btree"
)

const storeDegree = 32

// handle addresses an order slot in the arena. It stays valid until the slot is released.
type handle int

// arena owns the storage of every resting order.
type arena struct {
	slots []Order
	free  []handle
}

func (a *arena) alloc(o Order) handle {
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = o
		return h
	}
	a.slots = append(a.slots, o)
	return handle(len(a.slots) - 1)
}

func (a *arena) get(h handle) *Order {
	return &a.slots[h]
}

func (a *arena) release(h handle) Order {
	o := a.slots[h]
	a.slots[h] = emptyOrder
	a.free = append(a.free, h)
	return o
}

// entry is the key of a resting order inside a side store.
type entry struct {
	price int32
	id    uint64
	h     handle
}

// ascending price, then arrival
func askLess(a, b entry) bool {
	if a.price != b.price {
		return a.price < b.price
	}
	return a.id < b.id
}

// descending price, then arrival
func bidLess(a, b entry) bool {
	if a.price != b.price {
		return a.price > b.price
	}
	return a.id < b.id
}

// pricedStore keeps one side of the book in matching priority order.
type pricedStore struct {
	side Side
	tree *btree.BTreeG[entry]
}

func newPricedStore(side Side) *pricedStore {
	less := askLess
	if side == BID {
		less = bidLess
	}
	return &pricedStore{
		side: side,
		tree: btree.NewG(storeDegree, less),
	}
}

func (s *pricedStore) insert(e entry) {
	if _, dup := s.tree.ReplaceOrInsert(e); dup {
		panic(fmt.Sprintf("orderbook: order %d already rests on %s side", e.id, s.side))
	}
}

func (s *pricedStore) remove(e entry) {
	if _, ok := s.tree.Delete(e); !ok {
		panic(fmt.Sprintf("orderbook: order %d missing from %s side", e.id, s.side))
	}
}

func (s *pricedStore) best() (entry, bool) {
	return s.tree.Min()
}

func (s *pricedStore) len() int {
	return s.tree.Len()
}

func (s *pricedStore) ascend(fn func(e entry) bool) {
	s.tree.Ascend(fn)
}

// ascendAfterPrice walks the entries that come after every entry priced p.
func (s *pricedStore) ascendAfterPrice(p int32, fn func(e entry) bool) {
	// ids never reach MaxUint64, so the pivot sorts after the whole price level on both sides
	pivot := entry{price: p, id: ^uint64(0)}
	s.tree.AscendGreaterOrEqual(pivot, fn)
}
