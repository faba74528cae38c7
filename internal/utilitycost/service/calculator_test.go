package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentbill/internal/period"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	propertyrepo "github.com/smallbiznis/rentbill/internal/property/repository"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	readingrepo "github.com/smallbiznis/rentbill/internal/reading/repository"
	"github.com/smallbiznis/rentbill/internal/testutil"
	"github.com/smallbiznis/rentbill/internal/utilitycost/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type calcFixture struct {
	db   *gorm.DB
	node *snowflake.Node
	calc domain.Calculator
	room propertydomain.Room
}

func setupCalculator(t *testing.T) calcFixture {
	t.Helper()

	db := testutil.NewDB(t,
		&propertydomain.Building{},
		&propertydomain.Room{},
		&propertydomain.Tenant{},
		&readingdomain.UtilityReading{},
		&readingdomain.MeterRecord{},
	)
	node := testutil.MustNode(t)

	room := propertydomain.Room{ID: node.Generate(), BuildingID: node.Generate(), RoomNumber: "101", Price: 3_000_000}
	require.NoError(t, db.Create(&room).Error)

	calc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		ReadingRepo: readingrepo.Provide(),
		Registry:    propertyrepo.Provide(db),
	})
	return calcFixture{db: db, node: node, calc: calc, room: room}
}

func (f calcFixture) reading(t *testing.T, p string, electric, water *int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&readingdomain.UtilityReading{
		ID:            f.node.Generate(),
		RoomID:        f.room.ID,
		Period:        p,
		ElectricIndex: electric,
		WaterIndex:    water,
		CreatedBy:     "seed",
		UpdatedBy:     "seed",
	}).Error)
}

func (f calcFixture) meterRecord(t *testing.T, p string, meterType readingdomain.MeterType, prev, curr int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&readingdomain.MeterRecord{
		ID:            f.node.Generate(),
		RoomID:        f.room.ID,
		Period:        p,
		MeterType:     meterType,
		PreviousValue: prev,
		CurrentValue:  curr,
	}).Error)
}

func (f calcFixture) tenant(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&propertydomain.Tenant{
		ID:        f.node.Generate(),
		RoomID:    f.room.ID,
		FullName:  name,
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestCalculateByMeterFromUtilityReadings(t *testing.T) {
	f := setupCalculator(t)
	f.reading(t, "2025-01", testutil.Int64Ptr(100), testutil.Int64Ptr(50))
	f.reading(t, "2025-02", testutil.Int64Ptr(150), testutil.Int64Ptr(60))

	building := &propertydomain.Building{
		ElectricUnitPrice: price(3000),
		WaterUnitPrice:    price(20000),
		WaterMethod:       propertydomain.WaterMethodByMeter,
	}

	charges, err := f.calc.Calculate(context.Background(), building, f.room.ID, period.MustParse("2025-02"))
	require.NoError(t, err)

	assert.Equal(t, int64(50), charges.ElectricUsage)
	assert.Equal(t, int64(150_000), charges.ElectricAmount)
	assert.Equal(t, domain.SourceUtilityReading, charges.ElectricSource)
	assert.Equal(t, int64(10), charges.WaterUsage)
	assert.Equal(t, int64(200_000), charges.WaterAmount)
	assert.Equal(t, int64(3_350_000), f.room.Price+charges.ElectricAmount+charges.WaterAmount)
}

func TestCalculatePerCapitaIgnoresUsage(t *testing.T) {
	f := setupCalculator(t)
	f.tenant(t, "An")
	f.tenant(t, "Binh")
	f.reading(t, "2025-01", testutil.Int64Ptr(100), testutil.Int64Ptr(50))
	f.reading(t, "2025-02", testutil.Int64Ptr(150), testutil.Int64Ptr(90))

	building := &propertydomain.Building{
		WaterUnitPrice: price(20000),
		WaterMethod:    propertydomain.WaterMethodPerCapita,
	}

	charges, err := f.calc.Calculate(context.Background(), building, f.room.ID, period.MustParse("2025-02"))
	require.NoError(t, err)

	assert.Equal(t, int64(0), charges.ElectricAmount, "no electric price configured")
	assert.Equal(t, int64(2), charges.Headcount)
	assert.Equal(t, int64(2), charges.ActiveHeadcount)
	assert.Equal(t, int64(40_000), charges.WaterAmount)
}

func TestCalculatePerCapitaBillsRawHeadcount(t *testing.T) {
	f := setupCalculator(t)
	f.tenant(t, "An")
	movedOut := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&propertydomain.Tenant{
		ID:        f.node.Generate(),
		RoomID:    f.room.ID,
		FullName:  "Chi",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &movedOut,
	}).Error)

	building := &propertydomain.Building{
		WaterUnitPrice: price(20000),
		WaterMethod:    propertydomain.WaterMethodPerCapita,
	}
	charges, err := f.calc.Calculate(context.Background(), building, f.room.ID, period.MustParse("2025-02"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), charges.Headcount)
	assert.Equal(t, int64(1), charges.ActiveHeadcount)
	assert.Equal(t, int64(40_000), charges.WaterAmount)
}

func TestCalculateMissingPreviousReadingCountsFromZero(t *testing.T) {
	f := setupCalculator(t)
	f.reading(t, "2025-02", testutil.Int64Ptr(42), nil)

	building := &propertydomain.Building{ElectricUnitPrice: price(1000)}

	charges, err := f.calc.Calculate(context.Background(), building, f.room.ID, period.MustParse("2025-02"))
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), charges.ElectricAmount)
	assert.Equal(t, domain.SourceNone, charges.WaterSource)
	assert.Equal(t, int64(0), charges.WaterAmount)
}

func TestCalculateClampsNegativeUsage(t *testing.T) {
	f := setupCalculator(t)
	f.reading(t, "2025-01", testutil.Int64Ptr(9990), testutil.Int64Ptr(50))
	f.reading(t, "2025-02", testutil.Int64Ptr(20), testutil.Int64Ptr(40))
	// Present but ignored: a usable utility reading wins even when clamped.
	f.meterRecord(t, "2025-02", readingdomain.MeterTypeElectric, 0, 500)

	building := &propertydomain.Building{
		ElectricUnitPrice: price(3000),
		WaterUnitPrice:    price(20000),
		WaterMethod:       propertydomain.WaterMethodByMeter,
	}

	charges, err := f.calc.Calculate(context.Background(), building, f.room.ID, period.MustParse("2025-02"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), charges.ElectricUsage)
	assert.Equal(t, int64(0), charges.ElectricAmount)
	assert.Equal(t, domain.SourceUtilityReading, charges.ElectricSource)
	assert.Equal(t, int64(0), charges.WaterAmount)
}

func TestCalculateFallsBackToMeterRecords(t *testing.T) {
	f := setupCalculator(t)
	f.meterRecord(t, "2025-02", readingdomain.MeterTypeElectric, 1200, 1260)
	f.meterRecord(t, "2025-02", readingdomain.MeterTypeWater, 30, 25)

	building := &propertydomain.Building{
		ElectricUnitPrice: price(3500),
		WaterUnitPrice:    price(15000),
		WaterMethod:       propertydomain.WaterMethodByMeter,
	}

	charges, err := f.calc.Calculate(context.Background(), building, f.room.ID, period.MustParse("2025-02"))
	require.NoError(t, err)
	assert.Equal(t, domain.SourceMeterRecord, charges.ElectricSource)
	assert.Equal(t, int64(210_000), charges.ElectricAmount)
	assert.Equal(t, domain.SourceMeterRecord, charges.WaterSource)
	assert.Equal(t, int64(0), charges.WaterAmount)
}

func TestCalculateUnsetMethodOrPriceYieldsZero(t *testing.T) {
	f := setupCalculator(t)
	f.tenant(t, "An")
	f.reading(t, "2025-01", testutil.Int64Ptr(0), testutil.Int64Ptr(0))
	f.reading(t, "2025-02", testutil.Int64Ptr(10), testutil.Int64Ptr(10))

	cases := []struct {
		name     string
		building *propertydomain.Building
	}{
		{"no method", &propertydomain.Building{WaterUnitPrice: price(20000)}},
		{"by meter without price", &propertydomain.Building{WaterMethod: propertydomain.WaterMethodByMeter}},
		{"per capita without price", &propertydomain.Building{WaterMethod: propertydomain.WaterMethodPerCapita}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			charges, err := f.calc.Calculate(context.Background(), tc.building, f.room.ID, period.MustParse("2025-02"))
			require.NoError(t, err)
			assert.Zero(t, charges.WaterAmount)
			assert.Zero(t, charges.ElectricAmount)
		})
	}
}

func TestAmountRoundsHalfAwayFromZero(t *testing.T) {
	p := decimal.NewNullDecimal(decimal.RequireFromString("1234.5"))
	assert.Equal(t, int64(1235), amount(p, 1))
	assert.Equal(t, int64(3704), amount(p, 3))
	assert.Zero(t, amount(decimal.NullDecimal{}, 10))
}

type failingSource struct{}

func (failingSource) Name() domain.SourceName { return "failing" }

func (failingSource) Usage(context.Context, snowflake.ID, period.Period, domain.Utility) (int64, bool, error) {
	return 0, false, errors.New("connection reset")
}

type fixedSource struct {
	qty int64
	ok  bool
}

func (fixedSource) Name() domain.SourceName { return "fixed" }

func (s fixedSource) Usage(context.Context, snowflake.ID, period.Period, domain.Utility) (int64, bool, error) {
	return s.qty, s.ok, nil
}

func TestCalculatorSourceOrder(t *testing.T) {
	building := &propertydomain.Building{ElectricUnitPrice: price(10)}
	p := period.MustParse("2025-02")

	calc := NewCalculator(nil, nil, fixedSource{ok: false}, fixedSource{qty: 7, ok: true})
	charges, err := calc.Calculate(context.Background(), building, 1, p)
	require.NoError(t, err)
	assert.Equal(t, int64(70), charges.ElectricAmount)

	calc = NewCalculator(nil, nil, failingSource{}, fixedSource{qty: 7, ok: true})
	_, err = calc.Calculate(context.Background(), building, 1, p)
	require.Error(t, err)
}
