package orderbook

// crosses reports whether a resting order priced restingPrice can trade with incoming.
func crosses(incoming *Order, restingPrice int32) bool {
	if incoming.Side == BID {
		return restingPrice <= incoming.Price
	}
	return restingPrice >= incoming.Price
}

// matchOrder executes order against the opposite side while prices cross.
//
// Each pass takes the best resting order out of the book. Since the traded
// quantity is the smaller of the two, either the resting order is used up or
// the incoming one is, so at most the last taken order survives the loop; it
// goes back with its original id and keeps its place in the queue.
func (ob *OrderBook) matchOrder(order *Order) {
	counter := ob.store(order.Side.Opposite())
	resting := emptyOrder

	for !order.IsEmpty() {
		best, ok := counter.best()
		if !ok || !crosses(order, best.price) {
			break
		}

		resting = ob.detach(counter, best.h)

		qty := min(resting.Qty, order.Qty)
		price := resting.Price

		ob.emitExecuted(resting.Split(qty, price))
		ob.emitExecuted(order.Split(qty, price))
		ob.recordTrade(price, qty)
	}

	if !resting.IsEmpty() {
		ob.rest(counter, resting)
	}
}

// recordTrade keeps the last trade price and the volume traded at it in a row.
func (ob *OrderBook) recordTrade(price int32, qty uint32) {
	if ob.hasTraded && ob.lastTradePrice == price {
		ob.lastTradeQty += uint64(qty)
	} else {
		ob.lastTradeQty = uint64(qty)
	}
	ob.lastTradePrice = price
	ob.hasTraded = true
}
