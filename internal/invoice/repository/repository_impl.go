package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/invoice/domain"
	"github.com/smallbiznis/rentbill/pkg/db"
	"github.com/smallbiznis/rentbill/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert relies on the (room_id, period) unique index. Concurrent generators
// race on the index and the loser affects no rows.
func (r *repo) Insert(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "period"}},
			DoNothing: true,
		}).
		Create(invoice)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return domain.ErrInvoiceAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvoiceAlreadyExists
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.first(option.ForUpdate().Apply(db.WithContext(ctx).Where("id = ?", id)))
}

func (r *repo) ExistsForRoomPeriod(ctx context.Context, db *gorm.DB, roomID snowflake.ID, period string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("room_id = ? AND period = ?", roomID, period).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Invoice, error) {
	var items []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})

	if filter.BuildingID != 0 {
		stmt = stmt.Where("building_id = ?", filter.BuildingID)
	}
	if filter.RoomID != 0 {
		stmt = stmt.Where("room_id = ?", filter.RoomID)
	}
	if filter.Period != "" {
		stmt = stmt.Where("period = ?", filter.Period)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", string(filter.Status))
	}
	if filter.BeforeID != 0 {
		stmt = stmt.Where("id < ?", filter.BeforeID)
	}

	stmt = option.OrderBy("id", true).Apply(stmt)
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListOverdueCandidates(ctx context.Context, db *gorm.DB, cutoff time.Time, afterID snowflake.ID, limit int) ([]*domain.Invoice, error) {
	var items []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status IN ?", []string{string(domain.StatusDraft), string(domain.StatusUnpaid)}).
		Where("due_date < ?", cutoff.UTC()).
		Where("id > ?", afterID)

	stmt = option.OrderBy("id", false).Apply(stmt)
	stmt = option.WithLimit(limit).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, update domain.StatusUpdate) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?,
		     issued_at = COALESCE(?, issued_at),
		     paid_at = COALESCE(?, paid_at),
		     voided_at = COALESCE(?, voided_at),
		     updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(update.To),
		update.IssuedAt,
		update.PaidAt,
		update.VoidedAt,
		update.UpdatedAt,
		update.ID,
		string(update.From),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) first(stmt *gorm.DB) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := stmt.Take(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}
