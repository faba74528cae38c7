package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/property/domain"
	"github.com/smallbiznis/rentbill/pkg/db/option"
	"github.com/smallbiznis/rentbill/pkg/repository"
	"gorm.io/gorm"
)

type registry struct {
	buildings repository.Reader[domain.Building]
	rooms     repository.Reader[domain.Room]
	tenants   repository.Reader[domain.Tenant]
}

func Provide(db *gorm.DB) domain.Registry {
	return &registry{
		buildings: repository.NewReader[domain.Building](db),
		rooms:     repository.NewReader[domain.Room](db),
		tenants:   repository.NewReader[domain.Tenant](db),
	}
}

func (r *registry) GetBuilding(ctx context.Context, id snowflake.ID) (*domain.Building, error) {
	return r.buildings.FindOne(ctx, &domain.Building{ID: id})
}

func (r *registry) GetRoom(ctx context.Context, id snowflake.ID) (*domain.Room, error) {
	return r.rooms.FindOne(ctx, &domain.Room{ID: id})
}

func (r *registry) ListRoomsByBuilding(ctx context.Context, buildingID snowflake.ID) ([]*domain.Room, error) {
	return r.rooms.Find(ctx, &domain.Room{BuildingID: buildingID},
		option.OrderBy("room_number", false),
		option.OrderBy("id", false),
	)
}

func (r *registry) GetTenant(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	return r.tenants.FindOne(ctx, &domain.Tenant{ID: id})
}

func (r *registry) FindContractHolder(ctx context.Context, roomID snowflake.ID) (*domain.Tenant, error) {
	return r.tenants.FindOne(ctx, &domain.Tenant{RoomID: roomID},
		option.Where("is_contract_holder = ?", true),
		option.Where("end_date IS NULL"),
		option.OrderBy("start_date", true),
	)
}

func (r *registry) CountTenants(ctx context.Context, roomID snowflake.ID) (int64, error) {
	return r.tenants.Count(ctx, &domain.Tenant{RoomID: roomID})
}

func (r *registry) CountActiveTenants(ctx context.Context, roomID snowflake.ID) (int64, error) {
	return r.tenants.Count(ctx, &domain.Tenant{RoomID: roomID}, option.Where("end_date IS NULL"))
}
