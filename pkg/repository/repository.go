package repository

import (
	"context"

	"github.com/smallbiznis/rentbill/pkg/db/option"
)

// Reader is a generic read-only store over a gorm model. Non-zero fields of
// the query struct become equality filters.
type Reader[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
}
