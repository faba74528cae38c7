package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	BuildingID snowflake.ID
	RoomID     snowflake.ID
	Period     string
	Status     Status
	BeforeID   snowflake.ID
	Limit      int
}

// StatusUpdate moves an invoice from one status to another. The update only
// applies while the stored status still equals From.
type StatusUpdate struct {
	ID        snowflake.ID
	From      Status
	To        Status
	IssuedAt  *time.Time
	PaidAt    *time.Time
	VoidedAt  *time.Time
	UpdatedAt time.Time
}

// Repository lookups return nil, nil when nothing matches.
type Repository interface {
	// Insert returns ErrInvoiceAlreadyExists when the room already has an
	// invoice for the period.
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ExistsForRoomPeriod(ctx context.Context, db *gorm.DB, roomID snowflake.ID, period string) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Invoice, error)
	// ListOverdueCandidates returns DRAFT and UNPAID invoices due before
	// cutoff with id greater than afterID, ascending by id.
	ListOverdueCandidates(ctx context.Context, db *gorm.DB, cutoff time.Time, afterID snowflake.ID, limit int) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, update StatusUpdate) (bool, error)
}
