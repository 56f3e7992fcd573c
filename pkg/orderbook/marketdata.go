package orderbook

// Unlimited asks Depth for every level of a side.
const Unlimited = -1

// Trade describes the last execution price and the quantity traded at it
// since the price last changed.
type Trade struct {
	Price int32
	Qty   uint64
}

// BestOfBook is the level 1 view. Nil fields mean the side is empty or
// nothing has traded yet.
type BestOfBook struct {
	BestAsk   *Level
	BestBid   *Level
	LastTrade *Trade
}

// Depth is the level 2 view: level 1 plus aggregated levels, best first.
type Depth struct {
	BestOfBook
	Asks []Level
	Bids []Level
}

func (ob *OrderBook) BestOfBook() BestOfBook {
	var l1 BestOfBook
	if lvl, ok := ob.Aggregator(ASK).Next(); ok {
		l1.BestAsk = &lvl
	}
	if lvl, ok := ob.Aggregator(BID).Next(); ok {
		l1.BestBid = &lvl
	}
	if trade, ok := ob.LastTrade(); ok {
		l1.LastTrade = &trade
	}
	return l1
}

// LastTrade returns the last trade, if any happened.
func (ob *OrderBook) LastTrade() (Trade, bool) {
	if !ob.hasTraded {
		return Trade{}, false
	}
	return Trade{Price: ob.lastTradePrice, Qty: ob.lastTradeQty}, true
}

// Depth returns up to maxBidLevels bid levels and maxAskLevels ask levels.
// Pass Unlimited (or any negative value) for all levels of a side.
func (ob *OrderBook) Depth(maxBidLevels, maxAskLevels int) Depth {
	return Depth{
		BestOfBook: ob.BestOfBook(),
		Asks:       ob.Aggregator(ASK).Levels(maxAskLevels),
		Bids:       ob.Aggregator(BID).Levels(maxBidLevels),
	}
}
