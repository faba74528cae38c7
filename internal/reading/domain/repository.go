package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository lookups return nil, nil when nothing matches.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *UtilityReading) error
	Update(ctx context.Context, db *gorm.DB, reading *UtilityReading) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*UtilityReading, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*UtilityReading, error)
	FindByRoomPeriod(ctx context.Context, db *gorm.DB, roomID snowflake.ID, period string) (*UtilityReading, error)
	ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID, limit int) ([]UtilityReading, error)

	UpsertMeterRecord(ctx context.Context, db *gorm.DB, record *MeterRecord) error
	FindMeterRecord(ctx context.Context, db *gorm.DB, roomID snowflake.ID, period string, meterType MeterType) (*MeterRecord, error)
}
