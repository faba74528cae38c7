package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	InvoiceID snowflake.ID
	AfterID   snowflake.ID
	Limit     int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *PaymentLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*PaymentLog, error)
}
