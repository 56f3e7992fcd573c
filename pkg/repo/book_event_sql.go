package repo

import (
	"context"

	"github.com/joripage/matching-core/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookEventSQLRepo struct {
	db *gorm.DB
}

func NewBookEventSQLRepo(db *gorm.DB) *BookEventSQLRepo {
	return &BookEventSQLRepo{
		db: db,
	}
}

func (r *BookEventSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *BookEventSQLRepo) Create(ctx context.Context, record *model.BookEvent) (*model.BookEvent, error) {
	return record, r.dbWithContext(ctx).Create(record).Error
}

func (r *BookEventSQLRepo) BulkCreate(ctx context.Context, records []*model.BookEvent) ([]*model.BookEvent, error) {
	if len(records) == 0 {
		return records, nil
	}
	err := r.dbWithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(records).Error
	return records, err
}
