// Package domain contains persistence models for rent invoicing.
package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusUnpaid  Status = "UNPAID"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
	StatusVoid    Status = "VOID"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusUnpaid, StatusPaid, StatusOverdue, StatusVoid:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusVoid
}

func (s Status) Value() (driver.Value, error) {
	if s == "" {
		return nil, ErrInvalidStatus
	}
	return string(s), nil
}

func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("invoice status: cannot scan %T", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Breakdown keys stored on every invoice.
const (
	BreakdownElectricUsage  = "electric_usage"
	BreakdownElectricSource = "electric_source"
	BreakdownElectricPrice  = "electric_unit_price"
	BreakdownWaterUsage     = "water_usage"
	BreakdownWaterSource    = "water_source"
	BreakdownWaterPrice     = "water_unit_price"
	BreakdownWaterMethod    = "water_method"
	BreakdownHeadcount      = "headcount"
	BreakdownActiveTenants  = "active_headcount"
)

// Invoice is one month of rent and utilities for a room.
type Invoice struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	InvoiceNumber  string            `gorm:"type:varchar(64);not null"`
	BuildingID     snowflake.ID      `gorm:"not null;index"`
	RoomID         snowflake.ID      `gorm:"not null;uniqueIndex:ux_invoices_room_period,priority:1"`
	Period         string            `gorm:"type:varchar(7);not null;index;uniqueIndex:ux_invoices_room_period,priority:2"`
	TenantID       *snowflake.ID     `gorm:"index"`
	RoomPrice      int64             `gorm:"not null;default:0"`
	ElectricAmount int64             `gorm:"not null;default:0"`
	WaterAmount    int64             `gorm:"not null;default:0"`
	TotalAmount    int64             `gorm:"not null;default:0"`
	Status         Status            `gorm:"type:varchar(16);not null;index"`
	DueDate        time.Time         `gorm:"not null;index"`
	IssuedAt       *time.Time        `gorm:""`
	PaidAt         *time.Time        `gorm:""`
	VoidedAt       *time.Time        `gorm:""`
	Breakdown      datatypes.JSONMap `gorm:"not null"`
	CreatedBy      string            `gorm:"type:text;not null"`
	CreatedAt      time.Time         `gorm:"not null"`
	UpdatedAt      time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
