package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	History(ctx context.Context, roomID string, limit int) ([]HistoryEntry, error)
	RecordMeter(ctx context.Context, req RecordMeterRequest) (*MeterRecordResponse, error)
}

type CreateRequest struct {
	RoomID        string  `json:"room_id"`
	Period        string  `json:"period"`
	ElectricIndex *int64  `json:"electric_index"`
	WaterIndex    *int64  `json:"water_index"`
	ImageURL      *string `json:"image_url"`
	MeterReset    bool    `json:"meter_reset"`
	Actor         string  `json:"-"`
}

// UpdateRequest changes only the fields that are set. The period of a
// reading never changes.
type UpdateRequest struct {
	ID            string  `json:"id"`
	ElectricIndex *int64  `json:"electric_index"`
	WaterIndex    *int64  `json:"water_index"`
	ImageURL      *string `json:"image_url"`
	MeterReset    bool    `json:"meter_reset"`
	Actor         string  `json:"-"`
}

type RecordMeterRequest struct {
	RoomID        string `json:"room_id"`
	Period        string `json:"period"`
	MeterType     string `json:"meter_type"`
	PreviousValue int64  `json:"previous_value"`
	CurrentValue  int64  `json:"current_value"`
}

type Response struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	Period        string    `json:"period"`
	ElectricIndex *int64    `json:"electric_index"`
	WaterIndex    *int64    `json:"water_index"`
	ImageURL      *string   `json:"image_url,omitempty"`
	MeterReset    bool      `json:"meter_reset"`
	CreatedBy     string    `json:"created_by"`
	UpdatedBy     string    `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HistoryEntry pairs a reading with its usage against the preceding period.
// Usage is nil when the preceding reading or field is missing.
type HistoryEntry struct {
	Response
	ElectricUsage *int64 `json:"electric_usage"`
	WaterUsage    *int64 `json:"water_usage"`
}

type MeterRecordResponse struct {
	ID            string `json:"id"`
	RoomID        string `json:"room_id"`
	Period        string `json:"period"`
	MeterType     string `json:"meter_type"`
	PreviousValue int64  `json:"previous_value"`
	CurrentValue  int64  `json:"current_value"`
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidActor           = errors.New("invalid_actor")
	ErrInvalidPeriod          = errors.New("invalid_period")
	ErrInvalidMeterType       = errors.New("invalid_meter_type")
	ErrInvalidIndexValue      = errors.New("invalid_index_value")
	ErrInvalidMeterIndex      = errors.New("invalid_meter_index")
	ErrUtilityReadingExists   = errors.New("utility_reading_exists")
	ErrUtilityReadingNotFound = errors.New("utility_reading_not_found")
)
