package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/rentbill/pkg/db/option"
	"gorm.io/gorm"
)

type reader[T any] struct {
	db *gorm.DB
}

func NewReader[T any](db *gorm.DB) Reader[T] {
	return &reader[T]{db: db}
}

func (r *reader[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var rows []*T
	if err := r.scope(ctx, query, opts).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOne returns nil, nil when nothing matches.
func (r *reader[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var row T
	err := r.scope(ctx, query, opts).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &row, nil
}

func (r *reader[T]) Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error) {
	var n int64
	err := r.scope(ctx, query, opts).Count(&n).Error
	return n, err
}

func (r *reader[T]) scope(ctx context.Context, query *T, opts []option.QueryOption) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	if query != nil {
		tx = tx.Where(query)
	}
	for _, opt := range opts {
		tx = opt.Apply(tx)
	}
	return tx
}
