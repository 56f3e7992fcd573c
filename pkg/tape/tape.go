package tape

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/joripage/matching-core/pkg/orderbook"
)

// Print is one execution fragment as it went over the tape.
type Print struct {
	Seq     uint64
	OrderID uint64
	Side    orderbook.Side
	Price   int32
	Qty     uint32
}

// Tape keeps the most recent execution fragments. It is an orderbook.EventHandler.
type Tape struct {
	prints   deque.Deque[Print]
	capacity int
	seq      uint64

	mu sync.RWMutex
}

// New returns a tape holding at most capacity prints; capacity <= 0 keeps everything.
func New(capacity int) *Tape {
	return &Tape{capacity: capacity}
}

func (t *Tape) OnExecuted(fragment orderbook.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.prints.PushBack(Print{
		Seq:     t.seq,
		OrderID: fragment.ID,
		Side:    fragment.Side,
		Price:   fragment.Price,
		Qty:     fragment.Qty,
	})
	if t.capacity > 0 && t.prints.Len() > t.capacity {
		t.prints.PopFront()
	}
}

func (t *Tape) OnCanceled(orderbook.Order) {}

func (t *Tape) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prints.Len()
}

// Recent returns up to n prints, newest first. A negative n returns all of them.
func (t *Tape) Recent(n int) []Print {
	t.mu.RLock()
	defer t.mu.RUnlock()

	size := t.prints.Len()
	if n < 0 || n > size {
		n = size
	}
	prints := make([]Print, 0, n)
	for i := size - 1; i >= size-n; i-- {
		prints = append(prints, t.prints.At(i))
	}
	return prints
}
