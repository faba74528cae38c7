package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MeterType identifies the utility a legacy meter record measures.
type MeterType string

const (
	MeterTypeElectric MeterType = "ELEC"
	MeterTypeWater    MeterType = "WATER"
)

func ParseMeterType(raw string) (MeterType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ELEC", "ELECTRIC", "ELECTRICITY":
		return MeterTypeElectric, nil
	case "WATER":
		return MeterTypeWater, nil
	default:
		return "", ErrInvalidMeterType
	}
}

func (t MeterType) Value() (driver.Value, error) {
	if t == "" {
		return nil, ErrInvalidMeterType
	}
	return string(t), nil
}

func (t *MeterType) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("meter type: cannot scan %T", src)
	}
	parsed, err := ParseMeterType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UtilityReading is the per-room, per-period index snapshot.
type UtilityReading struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	RoomID        snowflake.ID `gorm:"not null;uniqueIndex:ux_utility_readings_room_period,priority:1"`
	Period        string       `gorm:"type:varchar(7);not null;uniqueIndex:ux_utility_readings_room_period,priority:2"`
	ElectricIndex *int64
	WaterIndex    *int64
	ImageURL      *string   `gorm:"type:text"`
	MeterReset    bool      `gorm:"not null;default:false"`
	CreatedBy     string    `gorm:"type:text;not null"`
	UpdatedBy     string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UtilityReading) TableName() string { return "utility_readings" }

// MeterRecord is the legacy previous/current pair kept for rooms not yet
// migrated to utility readings.
type MeterRecord struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	RoomID        snowflake.ID `gorm:"not null;uniqueIndex:ux_meter_records_room_period_type,priority:1"`
	Period        string       `gorm:"type:varchar(7);not null;uniqueIndex:ux_meter_records_room_period_type,priority:2"`
	MeterType     MeterType    `gorm:"type:varchar(8);not null;uniqueIndex:ux_meter_records_room_period_type,priority:3"`
	PreviousValue int64        `gorm:"not null;default:0"`
	CurrentValue  int64        `gorm:"not null;default:0"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MeterRecord) TableName() string { return "meter_records" }
