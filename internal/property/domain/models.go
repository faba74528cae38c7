// Package domain holds the building, room and tenant registry consumed by billing.
package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// WaterMethod selects how a building allocates water cost.
type WaterMethod string

const (
	WaterMethodUnset     WaterMethod = ""
	WaterMethodByMeter   WaterMethod = "BY_METER"
	WaterMethodPerCapita WaterMethod = "PER_CAPITA"
)

// ParseWaterMethod returns WaterMethodUnset for anything it does not recognise.
func ParseWaterMethod(raw string) WaterMethod {
	switch WaterMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case WaterMethodByMeter:
		return WaterMethodByMeter
	case WaterMethodPerCapita:
		return WaterMethodPerCapita
	default:
		return WaterMethodUnset
	}
}

func (m WaterMethod) Value() (driver.Value, error) {
	if m == WaterMethodUnset {
		return nil, nil
	}
	return string(m), nil
}

func (m *WaterMethod) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = WaterMethodUnset
	case string:
		*m = ParseWaterMethod(v)
	case []byte:
		*m = ParseWaterMethod(string(v))
	default:
		return fmt.Errorf("water method: cannot scan %T", src)
	}
	return nil
}

// RoomStatus is the occupancy state of a room.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
	RoomStatusUnknown     RoomStatus = "UNKNOWN"
)

func ParseRoomStatus(raw string) RoomStatus {
	switch RoomStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoomStatusAvailable:
		return RoomStatusAvailable
	case RoomStatusOccupied:
		return RoomStatusOccupied
	case RoomStatusMaintenance:
		return RoomStatusMaintenance
	default:
		return RoomStatusUnknown
	}
}

func (s RoomStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *RoomStatus) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = RoomStatusUnknown
	case string:
		*s = ParseRoomStatus(v)
	case []byte:
		*s = ParseRoomStatus(string(v))
	default:
		return fmt.Errorf("room status: cannot scan %T", src)
	}
	return nil
}

// Building carries the billing configuration shared by its rooms.
// Unset prices bill the matching utility at zero.
type Building struct {
	ID                snowflake.ID        `gorm:"primaryKey"`
	Name              string              `gorm:"type:text;not null"`
	Address           string              `gorm:"type:text"`
	ElectricUnitPrice decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	WaterUnitPrice    decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	WaterMethod       WaterMethod         `gorm:"type:varchar(16)"`
	CreatedAt         time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Building) TableName() string { return "buildings" }

type Room struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	BuildingID snowflake.ID `gorm:"not null;index"`
	RoomNumber string       `gorm:"type:varchar(32);not null"`
	Price      int64        `gorm:"not null;default:0"`
	Status     RoomStatus   `gorm:"type:varchar(16);not null;default:'AVAILABLE'"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Room) TableName() string { return "rooms" }

// Tenant lives in a room. A nil EndDate means the tenant still resides there.
type Tenant struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	RoomID           snowflake.ID `gorm:"not null;index"`
	FullName         string       `gorm:"type:text;not null"`
	Email            *string      `gorm:"type:text"`
	Phone            *string      `gorm:"type:varchar(32)"`
	IsContractHolder bool         `gorm:"not null;default:false"`
	StartDate        time.Time    `gorm:"not null"`
	EndDate          *time.Time
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Tenant) TableName() string { return "tenants" }

// IsActive reports whether the tenant has not moved out.
func (t Tenant) IsActive() bool {
	return t.EndDate == nil
}
