package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/clock"
	obsmetrics "github.com/smallbiznis/rentbill/internal/observability/metrics"
	"github.com/smallbiznis/rentbill/internal/period"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	"github.com/smallbiznis/rentbill/internal/reading/domain"
	"github.com/smallbiznis/rentbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 12
	maxHistoryLimit     = 120
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Registry propertydomain.Registry
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	registry propertydomain.Registry
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reading.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return nil, domain.ErrInvalidActor
	}
	roomID, err := parseID(req.RoomID)
	if err != nil {
		return nil, err
	}
	p, err := period.Parse(strings.TrimSpace(req.Period))
	if err != nil {
		return nil, domain.ErrInvalidPeriod
	}
	if err := checkNonNegative(req.ElectricIndex, req.WaterIndex); err != nil {
		return nil, err
	}

	room, err := s.registry.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, propertydomain.ErrRoomNotFound
	}

	now := s.clock.Now().UTC()
	reading := &domain.UtilityReading{
		ID:            s.genID.Generate(),
		RoomID:        roomID,
		Period:        p.String(),
		ElectricIndex: req.ElectricIndex,
		WaterIndex:    req.WaterIndex,
		ImageURL:      normalizeURL(req.ImageURL),
		MeterReset:    req.MeterReset,
		CreatedBy:     actor,
		UpdatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByRoomPeriod(ctx, tx, roomID, reading.Period)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrUtilityReadingExists
		}

		if err := s.validate(ctx, tx, roomID, p, reading.ElectricIndex, reading.WaterIndex, req.MeterReset); err != nil {
			return err
		}

		if err := s.repo.Insert(ctx, tx, reading); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrUtilityReadingExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.observeRejection(ctx, err)
		return nil, err
	}

	s.log.Info("utility reading created",
		zap.String("reading_id", reading.ID.String()),
		zap.String("room_id", roomID.String()),
		zap.String("period", reading.Period),
		zap.Bool("meter_reset", reading.MeterReset),
		zap.String("actor", actor),
	)
	return toResponse(reading), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return nil, domain.ErrInvalidActor
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := checkNonNegative(req.ElectricIndex, req.WaterIndex); err != nil {
		return nil, err
	}

	var updated *domain.UtilityReading
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrUtilityReadingNotFound
		}

		if req.ElectricIndex != nil {
			item.ElectricIndex = req.ElectricIndex
		}
		if req.WaterIndex != nil {
			item.WaterIndex = req.WaterIndex
		}
		if req.ImageURL != nil {
			item.ImageURL = normalizeURL(req.ImageURL)
		}
		item.MeterReset = req.MeterReset
		item.UpdatedBy = actor
		item.UpdatedAt = s.clock.Now().UTC()

		p, err := period.Parse(item.Period)
		if err != nil {
			return err
		}
		if err := s.validate(ctx, tx, item.RoomID, p, item.ElectricIndex, item.WaterIndex, req.MeterReset); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		s.observeRejection(ctx, err)
		return nil, err
	}

	s.log.Info("utility reading updated",
		zap.String("reading_id", updated.ID.String()),
		zap.String("period", updated.Period),
		zap.Bool("meter_reset", updated.MeterReset),
		zap.String("actor", actor),
	)
	return toResponse(updated), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	readingID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, s.db, readingID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrUtilityReadingNotFound
	}
	return toResponse(item), nil
}

// History returns readings newest first, each with usage against the
// reading of the immediately preceding period.
func (s *Service) History(ctx context.Context, roomID string, limit int) ([]domain.HistoryEntry, error) {
	id, err := parseID(roomID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	items, err := s.repo.ListByRoom(ctx, s.db, id, limit+1)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[string]*domain.UtilityReading, len(items))
	for i := range items {
		byPeriod[items[i].Period] = &items[i]
	}
	oldest := ""
	if len(items) > 0 {
		oldest = items[len(items)-1].Period
	}

	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]domain.HistoryEntry, 0, len(items))
	for i := range items {
		item := &items[i]
		p, err := period.Parse(item.Period)
		if err != nil {
			s.log.Warn("skipping reading with malformed period",
				zap.String("reading_id", item.ID.String()),
				zap.String("period", item.Period),
			)
			continue
		}

		prevKey := p.Previous().String()
		prev, ok := byPeriod[prevKey]
		if !ok && prevKey < oldest {
			// Older than anything fetched; look it up directly.
			prev, err = s.repo.FindByRoomPeriod(ctx, s.db, id, prevKey)
			if err != nil {
				return nil, err
			}
		}

		entry := domain.HistoryEntry{Response: *toResponse(item)}
		if prev != nil {
			entry.ElectricUsage = usage(prev.ElectricIndex, item.ElectricIndex)
			entry.WaterUsage = usage(prev.WaterIndex, item.WaterIndex)
		}
		out = append(out, entry)
	}
	return out, nil
}

// RecordMeter writes the legacy meter pair for a room and period, replacing
// any earlier values for the same meter type.
func (s *Service) RecordMeter(ctx context.Context, req domain.RecordMeterRequest) (*domain.MeterRecordResponse, error) {
	roomID, err := parseID(req.RoomID)
	if err != nil {
		return nil, err
	}
	p, err := period.Parse(strings.TrimSpace(req.Period))
	if err != nil {
		return nil, domain.ErrInvalidPeriod
	}
	meterType, err := domain.ParseMeterType(req.MeterType)
	if err != nil {
		return nil, err
	}
	if req.PreviousValue < 0 || req.CurrentValue < 0 {
		return nil, domain.ErrInvalidIndexValue
	}

	now := s.clock.Now().UTC()
	record := &domain.MeterRecord{
		ID:            s.genID.Generate(),
		RoomID:        roomID,
		Period:        p.String(),
		MeterType:     meterType,
		PreviousValue: req.PreviousValue,
		CurrentValue:  req.CurrentValue,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.UpsertMeterRecord(ctx, s.db, record); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindMeterRecord(ctx, s.db, roomID, record.Period, meterType)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("meter record vanished after upsert")
	}
	return &domain.MeterRecordResponse{
		ID:            stored.ID.String(),
		RoomID:        stored.RoomID.String(),
		Period:        stored.Period,
		MeterType:     string(stored.MeterType),
		PreviousValue: stored.PreviousValue,
		CurrentValue:  stored.CurrentValue,
	}, nil
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, roomID snowflake.ID, p period.Period, electric, water *int64, meterReset bool) error {
	if meterReset {
		return nil
	}
	prev, err := s.repo.FindByRoomPeriod(ctx, tx, roomID, p.Previous().String())
	if err != nil {
		return err
	}
	return checkMonotonic(prev, electric, water, meterReset)
}

func (s *Service) observeRejection(ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMeterIndex):
		s.metrics.RecordReadingRejected(ctx, "index_regression")
	case errors.Is(err, domain.ErrUtilityReadingExists):
		s.metrics.RecordReadingRejected(ctx, "duplicate_period")
	}
}

func usage(previous, current *int64) *int64 {
	if previous == nil || current == nil {
		return nil
	}
	delta := *current - *previous
	if delta < 0 {
		delta = 0
	}
	return &delta
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toResponse(r *domain.UtilityReading) *domain.Response {
	return &domain.Response{
		ID:            r.ID.String(),
		RoomID:        r.RoomID.String(),
		Period:        r.Period,
		ElectricIndex: r.ElectricIndex,
		WaterIndex:    r.WaterIndex,
		ImageURL:      r.ImageURL,
		MeterReset:    r.MeterReset,
		CreatedBy:     r.CreatedBy,
		UpdatedBy:     r.UpdatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
