package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentbill/internal/period"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	"github.com/smallbiznis/rentbill/internal/utilitycost/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	ReadingRepo readingdomain.Repository
	Registry    propertydomain.Registry
}

type Calculator struct {
	log      *zap.Logger
	registry propertydomain.Registry
	sources  []domain.ReadingSource
}

// New wires the sources in priority order: utility readings first, then
// legacy meter records.
func New(p Params) domain.Calculator {
	return NewCalculator(p.Log, p.Registry,
		NewUtilityReadingSource(p.DB, p.ReadingRepo),
		NewMeterRecordSource(p.DB, p.ReadingRepo),
	)
}

func NewCalculator(log *zap.Logger, registry propertydomain.Registry, sources ...domain.ReadingSource) *Calculator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{
		log:      log.Named("utilitycost"),
		registry: registry,
		sources:  sources,
	}
}

func (c *Calculator) Calculate(ctx context.Context, building *propertydomain.Building, roomID snowflake.ID, p period.Period) (domain.Charges, error) {
	var charges domain.Charges
	if building == nil {
		return charges, fmt.Errorf("calculate charges: %w", propertydomain.ErrBuildingNotFound)
	}

	elecUsage, elecSource, err := c.usage(ctx, roomID, p, domain.UtilityElectric)
	if err != nil {
		return charges, err
	}
	charges.ElectricUsage = elecUsage
	charges.ElectricSource = elecSource
	charges.ElectricAmount = amount(building.ElectricUnitPrice, elecUsage)

	waterUsage, waterSource, err := c.usage(ctx, roomID, p, domain.UtilityWater)
	if err != nil {
		return charges, err
	}
	charges.WaterUsage = waterUsage
	charges.WaterSource = waterSource
	charges.WaterMethod = building.WaterMethod

	switch building.WaterMethod {
	case propertydomain.WaterMethodByMeter:
		charges.WaterAmount = amount(building.WaterUnitPrice, waterUsage)
	case propertydomain.WaterMethodPerCapita:
		headcount, err := c.registry.CountTenants(ctx, roomID)
		if err != nil {
			return charges, err
		}
		active, err := c.registry.CountActiveTenants(ctx, roomID)
		if err != nil {
			return charges, err
		}
		charges.Headcount = headcount
		charges.ActiveHeadcount = active
		charges.WaterAmount = amount(building.WaterUnitPrice, headcount)
	default:
		charges.WaterAmount = 0
	}

	c.log.Debug("utility charges computed",
		zap.String("room_id", roomID.String()),
		zap.String("period", p.String()),
		zap.String("electric_source", string(elecSource)),
		zap.Int64("electric_usage", elecUsage),
		zap.Int64("electric_amount", charges.ElectricAmount),
		zap.String("water_source", string(waterSource)),
		zap.String("water_method", string(building.WaterMethod)),
		zap.Int64("water_amount", charges.WaterAmount),
	)
	return charges, nil
}

func (c *Calculator) usage(ctx context.Context, roomID snowflake.ID, p period.Period, utility domain.Utility) (int64, domain.SourceName, error) {
	for _, src := range c.sources {
		qty, ok, err := src.Usage(ctx, roomID, p, utility)
		if err != nil {
			return 0, domain.SourceNone, fmt.Errorf("%s %s usage: %w", src.Name(), utility, err)
		}
		if ok {
			return qty, src.Name(), nil
		}
	}
	return 0, domain.SourceNone, nil
}

// amount multiplies in decimal and rounds half away from zero to whole
// currency units. An unset price yields zero.
func amount(price decimal.NullDecimal, quantity int64) int64 {
	if !price.Valid || quantity <= 0 {
		return 0
	}
	return price.Decimal.Mul(decimal.NewFromInt(quantity)).Round(0).IntPart()
}
