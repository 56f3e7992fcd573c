package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/matching-core/pkg/orderbook"
)

type EventKind string

const (
	EventKindExecuted EventKind = "EXECUTED"
	EventKindCanceled EventKind = "CANCELED"
)

// BookEvent is one order book callback as it is journaled.
type BookEvent struct {
	ID        uint64         `json:"-" gorm:"primaryKey"`
	EventID   string         `json:"event_id" gorm:"uniqueIndex"`
	OrderID   uint64         `json:"order_id" gorm:"index"`
	Kind      EventKind      `json:"kind"`
	Side      orderbook.Side `json:"side"`
	Price     int32          `json:"price"`
	Qty       uint32         `json:"qty"`
	Timestamp time.Time      `json:"ts" gorm:"column:ts"`
	CreatedAt time.Time      `json:"-"`
}

func (BookEvent) TableName() string {
	return "book_events"
}

func NewBookEventExecuted(fragment orderbook.Order, ts time.Time) *BookEvent {
	return newBookEvent(EventKindExecuted, fragment, ts)
}

func NewBookEventCanceled(order orderbook.Order, ts time.Time) *BookEvent {
	return newBookEvent(EventKindCanceled, order, ts)
}

func newBookEvent(kind EventKind, o orderbook.Order, ts time.Time) *BookEvent {
	return &BookEvent{
		EventID:   NewEventID(),
		OrderID:   o.ID,
		Kind:      kind,
		Side:      o.Side,
		Price:     o.Price,
		Qty:       o.Qty,
		Timestamp: ts,
	}
}

// NewEventID returns a random id; consumers deduplicate on it.
func NewEventID() string {
	return uuid.NewString()
}

// Key partitions events so that all events of one order stay ordered.
func (e *BookEvent) Key() string {
	return strconv.FormatUint(e.OrderID, 10)
}
