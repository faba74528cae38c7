package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentbill/internal/property/domain"
	"github.com/smallbiznis/rentbill/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookups(t *testing.T) {
	db := testutil.NewDB(t, &domain.Building{}, &domain.Room{}, &domain.Tenant{})
	node := testutil.MustNode(t)
	ctx := context.Background()

	building := domain.Building{
		ID:                node.Generate(),
		Name:              "Sunrise",
		ElectricUnitPrice: decimal.NewNullDecimal(decimal.NewFromInt(3000)),
		WaterMethod:       domain.WaterMethodPerCapita,
	}
	require.NoError(t, db.Create(&building).Error)

	roomB := domain.Room{ID: node.Generate(), BuildingID: building.ID, RoomNumber: "B1", Price: 2_500_000, Status: domain.RoomStatusOccupied}
	roomA := domain.Room{ID: node.Generate(), BuildingID: building.ID, RoomNumber: "A1", Price: 3_000_000, Status: domain.RoomStatusOccupied}
	require.NoError(t, db.Create(&roomB).Error)
	require.NoError(t, db.Create(&roomA).Error)

	moved := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	tenants := []domain.Tenant{
		{ID: node.Generate(), RoomID: roomA.ID, FullName: "Former Holder", IsContractHolder: true, StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: &moved},
		{ID: node.Generate(), RoomID: roomA.ID, FullName: "Current Holder", IsContractHolder: true, StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: node.Generate(), RoomID: roomA.ID, FullName: "Roommate", StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, db.Create(&tenants).Error)

	reg := Provide(db)

	got, err := reg.GetBuilding(ctx, building.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.WaterMethodPerCapita, got.WaterMethod)
	assert.True(t, got.ElectricUnitPrice.Valid)
	assert.True(t, got.ElectricUnitPrice.Decimal.Equal(decimal.NewFromInt(3000)))
	assert.False(t, got.WaterUnitPrice.Valid)

	missing, err := reg.GetBuilding(ctx, node.Generate())
	require.NoError(t, err)
	assert.Nil(t, missing)

	rooms, err := reg.ListRoomsByBuilding(ctx, building.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "A1", rooms[0].RoomNumber)
	assert.Equal(t, domain.RoomStatusOccupied, rooms[0].Status)

	holder, err := reg.FindContractHolder(ctx, roomA.ID)
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, "Current Holder", holder.FullName)

	none, err := reg.FindContractHolder(ctx, roomB.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	raw, err := reg.CountTenants(ctx, roomA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), raw)

	active, err := reg.CountActiveTenants(ctx, roomA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
}

func TestParseEnumsAtEdge(t *testing.T) {
	assert.Equal(t, domain.WaterMethodByMeter, domain.ParseWaterMethod(" by_meter "))
	assert.Equal(t, domain.WaterMethodUnset, domain.ParseWaterMethod("flat"))
	assert.Equal(t, domain.RoomStatusUnknown, domain.ParseRoomStatus("haunted"))

	var m domain.WaterMethod
	require.NoError(t, m.Scan([]byte("PER_CAPITA")))
	assert.Equal(t, domain.WaterMethodPerCapita, m)
	require.NoError(t, m.Scan(nil))
	assert.Equal(t, domain.WaterMethodUnset, m)
}
