package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/period"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	"github.com/smallbiznis/rentbill/internal/utilitycost/domain"
	"gorm.io/gorm"
)

// utilityReadingSource reads the canonical per-period index snapshot and
// diffs it against the preceding period. A missing predecessor counts as 0.
type utilityReadingSource struct {
	db   *gorm.DB
	repo readingdomain.Repository
}

func NewUtilityReadingSource(db *gorm.DB, repo readingdomain.Repository) domain.ReadingSource {
	return &utilityReadingSource{db: db, repo: repo}
}

func (s *utilityReadingSource) Name() domain.SourceName {
	return domain.SourceUtilityReading
}

func (s *utilityReadingSource) Usage(ctx context.Context, roomID snowflake.ID, p period.Period, utility domain.Utility) (int64, bool, error) {
	current, err := s.repo.FindByRoomPeriod(ctx, s.db, roomID, p.String())
	if err != nil {
		return 0, false, err
	}
	currentIndex := pick(current, utility)
	if currentIndex == nil {
		return 0, false, nil
	}

	previous, err := s.repo.FindByRoomPeriod(ctx, s.db, roomID, p.Previous().String())
	if err != nil {
		return 0, false, err
	}
	var previousIndex int64
	if v := pick(previous, utility); v != nil {
		previousIndex = *v
	}
	return clamp(*currentIndex - previousIndex), true, nil
}

func pick(r *readingdomain.UtilityReading, utility domain.Utility) *int64 {
	if r == nil {
		return nil
	}
	switch utility {
	case domain.UtilityElectric:
		return r.ElectricIndex
	case domain.UtilityWater:
		return r.WaterIndex
	default:
		return nil
	}
}

// meterRecordSource reads the legacy previous/current pair.
type meterRecordSource struct {
	db   *gorm.DB
	repo readingdomain.Repository
}

func NewMeterRecordSource(db *gorm.DB, repo readingdomain.Repository) domain.ReadingSource {
	return &meterRecordSource{db: db, repo: repo}
}

func (s *meterRecordSource) Name() domain.SourceName {
	return domain.SourceMeterRecord
}

func (s *meterRecordSource) Usage(ctx context.Context, roomID snowflake.ID, p period.Period, utility domain.Utility) (int64, bool, error) {
	meterType := readingdomain.MeterTypeElectric
	if utility == domain.UtilityWater {
		meterType = readingdomain.MeterTypeWater
	}
	record, err := s.repo.FindMeterRecord(ctx, s.db, roomID, p.String(), meterType)
	if err != nil {
		return 0, false, err
	}
	if record == nil {
		return 0, false, nil
	}
	return clamp(record.CurrentValue - record.PreviousValue), true, nil
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
