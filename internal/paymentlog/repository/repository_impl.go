package repository

import (
	"context"

	"github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.PaymentLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_logs (
			id, invoice_id, action, old_status, new_status, amount, actor, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.InvoiceID,
		entry.Action,
		entry.OldStatus,
		entry.NewStatus,
		entry.Amount,
		entry.Actor,
		entry.Note,
		entry.CreatedAt,
	).Error
}

// List returns entries oldest first. Snowflake ids grow with time so the
// id alone is a stable cursor.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.PaymentLog, error) {
	var logs []*domain.PaymentLog
	stmt := db.WithContext(ctx).Model(&domain.PaymentLog{}).
		Where("invoice_id = ?", filter.InvoiceID)

	if filter.AfterID != 0 {
		stmt = stmt.Where("id > ?", filter.AfterID)
	}

	stmt = stmt.Order("id asc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
