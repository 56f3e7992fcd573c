package sink

import (
	"context"
	"fmt"

	"github.com/joripage/matching-core/pkg/orderbook"
	"github.com/joripage/matching-core/pkg/render"
)

// SnapshotStore is satisfied by redis_wrapper.SnapshotStore.
type SnapshotStore interface {
	Set(ctx context.Context, key string, value []byte) error
	Publish(ctx context.Context, channel string, message []byte) error
}

// SnapshotPublisher stores the level 1 and level 2 documents under
// <prefix>:l1 and <prefix>:l2 and announces the level 1 document on <prefix>:md.
type SnapshotPublisher struct {
	store  SnapshotStore
	prefix string
}

func NewSnapshotPublisher(store SnapshotStore, prefix string) *SnapshotPublisher {
	return &SnapshotPublisher{store: store, prefix: prefix}
}

func (p *SnapshotPublisher) L1Key() string      { return p.prefix + ":l1" }
func (p *SnapshotPublisher) L2Key() string      { return p.prefix + ":l2" }
func (p *SnapshotPublisher) ChannelKey() string { return p.prefix + ":md" }

func (p *SnapshotPublisher) Publish(ctx context.Context, d orderbook.Depth) error {
	l1, err := render.L1JSON(d.BestOfBook)
	if err != nil {
		return err
	}
	l2, err := render.L2JSON(d)
	if err != nil {
		return err
	}

	if err := p.store.Set(ctx, p.L1Key(), l1); err != nil {
		return fmt.Errorf("store %s: %w", p.L1Key(), err)
	}
	if err := p.store.Set(ctx, p.L2Key(), l2); err != nil {
		return fmt.Errorf("store %s: %w", p.L2Key(), err)
	}
	if err := p.store.Publish(ctx, p.ChannelKey(), l1); err != nil {
		return fmt.Errorf("publish %s: %w", p.ChannelKey(), err)
	}
	return nil
}
