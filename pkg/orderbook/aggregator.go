package orderbook

import "iter"

// Level is the total resting quantity at one price on one side.
type Level struct {
	Price int32
	Qty   uint64
}

// PriceAggregator walks one side of the book level by level, best price first.
// It reads the live store lazily and must be dropped once the book changes;
// build a new one for every query.
type PriceAggregator struct {
	store  *pricedStore
	orders *arena

	started bool
	last    int32
	done    bool
}

// Aggregator returns a fresh level walk over one side.
func (ob *OrderBook) Aggregator(side Side) *PriceAggregator {
	return &PriceAggregator{
		store:  ob.store(side),
		orders: &ob.orders,
	}
}

// Next returns the next price level, or false once the side is exhausted.
func (a *PriceAggregator) Next() (Level, bool) {
	if a.done {
		return Level{}, false
	}

	var lvl Level
	found := false
	visit := func(e entry) bool {
		if !found {
			if a.started && e.price == a.last {
				return true
			}
			lvl.Price = e.price
			found = true
		} else if e.price != lvl.Price {
			return false
		}
		lvl.Qty += uint64(a.orders.get(e.h).Qty)
		return true
	}

	if a.started {
		a.store.ascendAfterPrice(a.last, visit)
	} else {
		a.store.ascend(visit)
	}

	if !found {
		a.done = true
		return Level{}, false
	}
	a.started = true
	a.last = lvl.Price
	return lvl, true
}

// All yields the remaining levels.
func (a *PriceAggregator) All() iter.Seq[Level] {
	return func(yield func(Level) bool) {
		for {
			lvl, ok := a.Next()
			if !ok || !yield(lvl) {
				return
			}
		}
	}
}

// Levels collects up to limit remaining levels; a negative limit collects all of them.
func (a *PriceAggregator) Levels(limit int) []Level {
	levels := make([]Level, 0)
	for limit < 0 || len(levels) < limit {
		lvl, ok := a.Next()
		if !ok {
			break
		}
		levels = append(levels, lvl)
	}
	return levels
}
