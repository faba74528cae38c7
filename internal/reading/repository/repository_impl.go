package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/reading/domain"
	"github.com/smallbiznis/rentbill/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reading *domain.UtilityReading) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO utility_readings (
			id, room_id, period, electric_index, water_index, image_url,
			meter_reset, created_by, updated_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reading.ID,
		reading.RoomID,
		reading.Period,
		reading.ElectricIndex,
		reading.WaterIndex,
		reading.ImageURL,
		reading.MeterReset,
		reading.CreatedBy,
		reading.UpdatedBy,
		reading.CreatedAt,
		reading.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, reading *domain.UtilityReading) error {
	return db.WithContext(ctx).Exec(
		`UPDATE utility_readings
		 SET electric_index = ?, water_index = ?, image_url = ?, meter_reset = ?,
		     updated_by = ?, updated_at = ?
		 WHERE id = ?`,
		reading.ElectricIndex,
		reading.WaterIndex,
		reading.ImageURL,
		reading.MeterReset,
		reading.UpdatedBy,
		reading.UpdatedAt,
		reading.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.UtilityReading, error) {
	return r.first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.UtilityReading, error) {
	return r.first(option.ForUpdate().Apply(db.WithContext(ctx).Where("id = ?", id)))
}

func (r *repo) FindByRoomPeriod(ctx context.Context, db *gorm.DB, roomID snowflake.ID, period string) (*domain.UtilityReading, error) {
	return r.first(db.WithContext(ctx).Where("room_id = ? AND period = ?", roomID, period))
}

func (r *repo) ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID, limit int) ([]domain.UtilityReading, error) {
	var items []domain.UtilityReading
	stmt := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("period desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpsertMeterRecord(ctx context.Context, db *gorm.DB, record *domain.MeterRecord) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "period"}, {Name: "meter_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"previous_value", "current_value", "updated_at",
		}),
	}).Create(record).Error
}

func (r *repo) FindMeterRecord(ctx context.Context, db *gorm.DB, roomID snowflake.ID, period string, meterType domain.MeterType) (*domain.MeterRecord, error) {
	var record domain.MeterRecord
	err := db.WithContext(ctx).
		Where("room_id = ? AND period = ? AND meter_type = ?", roomID, period, string(meterType)).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) first(stmt *gorm.DB) (*domain.UtilityReading, error) {
	var reading domain.UtilityReading
	err := stmt.Take(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
