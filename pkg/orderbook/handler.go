package orderbook

// EventHandler observes the book. Calls arrive synchronously, in the order
// the events happen, from inside the Submit or Cancel that caused them.
type EventHandler interface {
	// OnExecuted receives one execution fragment. A match produces two:
	// the resting order's fragment first, then the incoming order's.
	OnExecuted(fragment Order)
	// OnCanceled receives the full resting order just before it is removed.
	OnCanceled(order Order)
}

// HandlerFuncs adapts plain functions to EventHandler. Nil fields are skipped.
type HandlerFuncs struct {
	Executed func(Order)
	Canceled func(Order)
}

func (f HandlerFuncs) OnExecuted(fragment Order) {
	if f.Executed != nil {
		f.Executed(fragment)
	}
}

func (f HandlerFuncs) OnCanceled(order Order) {
	if f.Canceled != nil {
		f.Canceled(order)
	}
}
