package orderbook

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

func orderNotFound(id uint64) error {
	return fmt.Errorf("order id %d: %w", id, ErrOrderNotFound)
}
