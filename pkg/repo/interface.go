package repo

import (
	"context"

	"github.com/joripage/matching-core/pkg/model"
)

type IBookEvent interface {
	Create(ctx context.Context, record *model.BookEvent) (*model.BookEvent, error)
	// BulkCreate ignores records whose event id is already stored.
	BulkCreate(ctx context.Context, records []*model.BookEvent) ([]*model.BookEvent, error)
}
