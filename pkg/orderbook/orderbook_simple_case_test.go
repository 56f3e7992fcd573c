package orderbook

import (
	"testing"
)

type recorder struct {
	executed []Order
	canceled []Order
}

func (r *recorder) OnExecuted(fragment Order) { r.executed = append(r.executed, fragment) }
func (r *recorder) OnCanceled(order Order)    { r.canceled = append(r.canceled, order) }

func (r *recorder) reset() {
	r.executed = nil
	r.canceled = nil
}

// seedBook builds the reference book:
// asks (1001,30) (1002,30) (1003,90), bids (999,40) (900,79) (800,55).
func seedBook(t *testing.T, h EventHandler) *OrderBook {
	t.Helper()
	ob := New(WithHandler(h))
	seed := []struct {
		side  Side
		price int32
		qty   uint32
	}{
		{ASK, 1003, 50},
		{ASK, 1003, 40},
		{ASK, 1002, 30},
		{ASK, 1001, 20},
		{ASK, 1001, 10},
		{BID, 999, 15},
		{BID, 999, 25},
		{BID, 900, 35},
		{BID, 900, 44},
		{BID, 800, 55},
	}
	for i, o := range seed {
		if id := ob.Submit(o.side, o.price, o.qty); id != uint64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, id)
		}
	}
	return ob
}

func assertLevels(t *testing.T, name string, got []Level, want ...Level) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d levels %+v, got %d %+v", name, len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: expected %+v, got %+v", name, i, want[i], got[i])
		}
	}
}

func assertFragments(t *testing.T, got []Order, want ...Order) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d execution fragments, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSeedBookAggregation(t *testing.T) {
	rec := &recorder{}
	ob := seedBook(t, rec)

	if len(rec.executed) != 0 {
		t.Fatalf("seed orders must not cross, got %+v", rec.executed)
	}

	depth := ob.Depth(Unlimited, Unlimited)
	assertLevels(t, "asks", depth.Asks, Level{1001, 30}, Level{1002, 30}, Level{1003, 90})
	assertLevels(t, "bids", depth.Bids, Level{999, 40}, Level{900, 79}, Level{800, 55})

	if depth.LastTrade != nil {
		t.Errorf("expected no last trade, got %+v", *depth.LastTrade)
	}
	if !ob.CheckConsistency() || ob.IndexSize() != 10 {
		t.Errorf("expected 10 indexed orders, got %d", ob.IndexSize())
	}
}

func TestDepthLimit(t *testing.T) {
	ob := seedBook(t, nil)

	depth := ob.Depth(2, 1)
	assertLevels(t, "asks", depth.Asks, Level{1001, 30})
	assertLevels(t, "bids", depth.Bids, Level{999, 40}, Level{900, 79})

	depth = ob.Depth(0, Unlimited)
	assertLevels(t, "bids", depth.Bids)
	assertLevels(t, "asks", depth.Asks, Level{1001, 30}, Level{1002, 30}, Level{1003, 90})
}

func TestBidSweepsTwoLevels(t *testing.T) {
	rec := &recorder{}
	ob := seedBook(t, rec)

	id := ob.Submit(BID, 1002, 45)

	assertFragments(t, rec.executed,
		Order{ID: 4, Side: ASK, Price: 1001, Qty: 20},
		Order{ID: id, Side: BID, Price: 1001, Qty: 20},
		Order{ID: 5, Side: ASK, Price: 1001, Qty: 10},
		Order{ID: id, Side: BID, Price: 1001, Qty: 10},
		Order{ID: 3, Side: ASK, Price: 1002, Qty: 15},
		Order{ID: id, Side: BID, Price: 1002, Qty: 15},
	)

	l1 := ob.BestOfBook()
	if l1.BestAsk == nil || *l1.BestAsk != (Level{1002, 15}) {
		t.Errorf("expected best ask {1002 15}, got %+v", l1.BestAsk)
	}
	if l1.BestBid == nil || *l1.BestBid != (Level{999, 40}) {
		t.Errorf("expected best bid {999 40}, got %+v", l1.BestBid)
	}
	if l1.LastTrade == nil || *l1.LastTrade != (Trade{1002, 15}) {
		t.Errorf("expected last trade {1002 15}, got %+v", l1.LastTrade)
	}

	// fully executed orders are gone
	if _, err := ob.GetOrderByID(id); err == nil {
		t.Errorf("expected incoming order %d to be fully executed", id)
	}
	rest, err := ob.GetOrderByID(3)
	if err != nil {
		t.Fatalf("expected partially filled ask 3 to rest, got %v", err)
	}
	if rest.Qty != 15 || rest.Price != 1002 {
		t.Errorf("expected ask 3 to rest 15@1002, got %+v", rest)
	}

	assertLevels(t, "asks", ob.Depth(Unlimited, Unlimited).Asks, Level{1002, 15}, Level{1003, 90})
}

func TestPartiallyFilledRestingOrderKeepsPriority(t *testing.T) {
	ob := New()
	first := ob.Submit(ASK, 100, 10)
	second := ob.Submit(ASK, 100, 10)

	ob.Submit(BID, 100, 4)

	asks := ob.Orders(ASK)
	if len(asks) != 2 || asks[0].ID != first || asks[0].Qty != 6 || asks[1].ID != second {
		t.Fatalf("expected partially filled %d ahead of %d, got %+v", first, second, asks)
	}
}

func TestBidRestsAboveBook(t *testing.T) {
	rec := &recorder{}
	ob := seedBook(t, rec)

	ob.Submit(BID, 1001, 45)

	depth := ob.Depth(Unlimited, Unlimited)
	assertLevels(t, "asks", depth.Asks, Level{1002, 30}, Level{1003, 90})
	assertLevels(t, "bids", depth.Bids, Level{1001, 15}, Level{999, 40}, Level{900, 79}, Level{800, 55})
	if len(rec.executed) != 4 {
		t.Errorf("expected 4 fragments, got %d", len(rec.executed))
	}
}

func TestAskExecutesAtBidPrices(t *testing.T) {
	rec := &recorder{}
	ob := seedBook(t, rec)

	ob.Submit(ASK, 900, 80)

	depth := ob.Depth(Unlimited, Unlimited)
	assertLevels(t, "asks", depth.Asks, Level{1001, 30}, Level{1002, 30}, Level{1003, 90})
	assertLevels(t, "bids", depth.Bids, Level{900, 39}, Level{800, 55})

	// resting bid price decides, the incoming ask gets the better price
	for _, f := range rec.executed {
		if f.Price != 999 && f.Price != 900 {
			t.Errorf("unexpected execution price %d", f.Price)
		}
	}
	if depth.LastTrade == nil || *depth.LastTrade != (Trade{900, 40}) {
		t.Errorf("expected last trade {900 40}, got %+v", depth.LastTrade)
	}
}

func TestAskRestsBelowBook(t *testing.T) {
	ob := seedBook(t, nil)

	ob.Submit(ASK, 980, 80)

	depth := ob.Depth(Unlimited, Unlimited)
	assertLevels(t, "asks", depth.Asks, Level{980, 40}, Level{1001, 30}, Level{1002, 30}, Level{1003, 90})
	assertLevels(t, "bids", depth.Bids, Level{900, 79}, Level{800, 55})
}

func TestBidConsumesWholeAskSide(t *testing.T) {
	rec := &recorder{}
	ob := seedBook(t, rec)

	id := ob.Submit(BID, 1010, 300)

	depth := ob.Depth(Unlimited, Unlimited)
	assertLevels(t, "asks", depth.Asks)
	assertLevels(t, "bids", depth.Bids, Level{1010, 150}, Level{999, 40}, Level{900, 79}, Level{800, 55})

	if depth.BestAsk != nil {
		t.Errorf("expected empty ask side, got %+v", *depth.BestAsk)
	}
	if depth.LastTrade == nil || *depth.LastTrade != (Trade{1003, 90}) {
		t.Errorf("expected last trade {1003 90}, got %+v", depth.LastTrade)
	}

	rest, err := ob.GetOrderByID(id)
	if err != nil {
		t.Fatalf("expected remainder to rest: %v", err)
	}
	if rest.Qty != 150 || rest.Price != 1010 {
		t.Errorf("expected 150@1010, got %+v", rest)
	}
	if ob.Len(ASK) != 0 || ob.Len(BID) != 6 || !ob.CheckConsistency() {
		t.Errorf("unexpected sizes: asks=%d bids=%d index=%d", ob.Len(ASK), ob.Len(BID), ob.IndexSize())
	}
}

func TestNoMatchDueToPrice(t *testing.T) {
	ob := New(WithHandler(HandlerFuncs{
		Executed: func(o Order) {
			t.Fatalf("expected no match, got %+v", o)
		},
	}))

	ob.Submit(ASK, 100, 10)
	ob.Submit(BID, 98, 10)

	if ob.Len(ASK) != 1 || ob.Len(BID) != 1 {
		t.Fatalf("expected both orders to rest")
	}
}

func TestFIFOMatch(t *testing.T) {
	rec := &recorder{}
	ob := New(WithHandler(rec))

	s1 := ob.Submit(ASK, 100, 5)
	s2 := ob.Submit(ASK, 100, 5)
	ob.Submit(BID, 100, 10)

	if len(rec.executed) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(rec.executed))
	}
	if rec.executed[0].ID != s1 || rec.executed[2].ID != s2 {
		t.Errorf("expected FIFO match order, got %+v", rec.executed)
	}
}

func TestNegativeAndZeroInputs(t *testing.T) {
	rec := &recorder{}
	ob := New(WithHandler(rec))

	ob.Submit(BID, -5, 10)
	ob.Submit(ASK, -7, 4)
	if len(rec.executed) != 2 || rec.executed[0].Price != -5 {
		t.Fatalf("expected negative prices to trade at -5, got %+v", rec.executed)
	}

	id := ob.Submit(ASK, 1, 0)
	if _, err := ob.GetOrderByID(id); err == nil {
		t.Errorf("zero quantity order %d must not rest", id)
	}
	if !ob.CheckConsistency() {
		t.Errorf("book inconsistent after zero quantity submit")
	}
}

func TestIDGeneratorIsPerBook(t *testing.T) {
	a := New()
	b := New(WithIDGenerator(NewSequence(100)))

	if id := a.Submit(BID, 1, 1); id != 1 {
		t.Errorf("expected first id 1, got %d", id)
	}
	if id := b.Submit(BID, 1, 1); id != 101 {
		t.Errorf("expected first id 101, got %d", id)
	}
	if id := a.Submit(BID, 1, 1); id != 2 {
		t.Errorf("expected second id 2, got %d", id)
	}
}

func TestSubmitUnknownSidePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown side")
		}
	}()
	New().Submit(Side("HOLD"), 1, 1)
}

func BenchmarkOrderBookMatch(b *testing.B) {
	ob := New()

	for i := 0; i < 10_000; i++ {
		ob.Submit(ASK, int32(100+i%5), 10)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ob.Submit(BID, 101, 10)
		ob.Submit(ASK, 101, 10)
	}
}
