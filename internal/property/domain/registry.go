package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrBuildingNotFound = errors.New("building_not_found")
	ErrRoomNotFound     = errors.New("room_not_found")
	ErrTenantNotFound   = errors.New("tenant_not_found")
)

// Registry is the read side of the building/room/tenant store.
// Lookups return nil, nil when the row does not exist.
type Registry interface {
	GetBuilding(ctx context.Context, id snowflake.ID) (*Building, error)
	GetRoom(ctx context.Context, id snowflake.ID) (*Room, error)
	ListRoomsByBuilding(ctx context.Context, buildingID snowflake.ID) ([]*Room, error)
	GetTenant(ctx context.Context, id snowflake.ID) (*Tenant, error)
	// FindContractHolder returns the room's current contract holder.
	FindContractHolder(ctx context.Context, roomID snowflake.ID) (*Tenant, error)
	// CountTenants is the raw headcount linked to the room, moved-out tenants included.
	CountTenants(ctx context.Context, roomID snowflake.ID) (int64, error)
	CountActiveTenants(ctx context.Context, roomID snowflake.ID) (int64, error)
}
