// Package domain defines utility cost calculation for a room and period.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/period"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
)

type Utility string

const (
	UtilityElectric Utility = "electric"
	UtilityWater    Utility = "water"
)

// SourceName records which store produced a usage figure.
type SourceName string

const (
	SourceUtilityReading SourceName = "utility_reading"
	SourceMeterRecord    SourceName = "meter_record"
	SourceNone           SourceName = "none"
)

// ReadingSource yields consumption for one utility of a room in a period.
// ok is false when the source holds no usable data, which lets the next
// source in line answer. A negative delta is reported as zero with ok true.
type ReadingSource interface {
	Name() SourceName
	Usage(ctx context.Context, roomID snowflake.ID, p period.Period, utility Utility) (quantity int64, ok bool, err error)
}

// Charges is the computed utility portion of an invoice.
type Charges struct {
	ElectricUsage  int64
	ElectricSource SourceName
	ElectricAmount int64

	WaterUsage  int64
	WaterSource SourceName
	WaterMethod propertydomain.WaterMethod
	// Headcount is the raw count billed for PER_CAPITA water. ActiveHeadcount
	// excludes moved-out tenants and is recorded for audit only.
	Headcount       int64
	ActiveHeadcount int64
	WaterAmount     int64
}

// Calculator never fails on missing readings or missing configuration;
// those degrade to zero charges. Only storage errors are returned.
type Calculator interface {
	Calculate(ctx context.Context, building *propertydomain.Building, roomID snowflake.ID, p period.Period) (Charges, error)
}
