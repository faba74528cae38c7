package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentbill/internal/config"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/rentbill/internal/invoice/format"
	"github.com/smallbiznis/rentbill/internal/period"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	utilitycostdomain "github.com/smallbiznis/rentbill/internal/utilitycost/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	skipAlreadyInvoiced  = "already_invoiced"
	skipNoContractHolder = "no_contract_holder"
)

type roomSkip struct {
	reason string
}

func (e roomSkip) Error() string { return "room skipped: " + e.reason }

// GenerateInvoices creates one DRAFT invoice per eligible room. Rooms that are
// already invoiced for the period or have no contract holder are left out of
// the result without error, so the call can be repeated safely.
func (s *Service) GenerateInvoices(ctx context.Context, req invoicedomain.GenerateRequest) ([]invoicedomain.Summary, error) {
	actor, err := normalizeActor(req.Actor)
	if err != nil {
		return nil, err
	}
	buildingID, err := parseID(req.BuildingID)
	if err != nil {
		return nil, err
	}
	p, err := period.Parse(strings.TrimSpace(req.Period))
	if err != nil {
		return nil, invoicedomain.ErrInvalidPeriod
	}

	building, err := s.registry.GetBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, propertydomain.ErrBuildingNotFound
	}

	rooms, err := s.registry.ListRoomsByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	cfg := s.billing.Get()
	now := s.clock.Now().UTC()
	dueDate := dueDateFrom(now, cfg)

	created := make([]invoicedomain.Summary, 0, len(rooms))
	skipped := 0
	for _, room := range rooms {
		if room == nil {
			continue
		}
		invoice, err := s.generateForRoom(ctx, building, room, p, now, dueDate, actor)
		if err != nil {
			var skip roomSkip
			if errors.As(err, &skip) {
				skipped++
				s.metrics.RecordInvoiceSkipped(ctx, skip.reason)
				s.log.Debug("room skipped",
					zap.String("room_id", room.ID.String()),
					zap.String("period", p.String()),
					zap.String("reason", skip.reason),
				)
				continue
			}
			return nil, fmt.Errorf("generate invoice for room %s: %w", room.ID, err)
		}
		created = append(created, s.toSummary(invoice))
	}

	s.log.Info("invoices generated",
		zap.String("building_id", buildingID.String()),
		zap.String("period", p.String()),
		zap.Int("rooms", len(rooms)),
		zap.Int("created", len(created)),
		zap.Int("skipped", skipped),
		zap.String("actor", actor),
	)
	return created, nil
}

func (s *Service) generateForRoom(
	ctx context.Context,
	building *propertydomain.Building,
	room *propertydomain.Room,
	p period.Period,
	now time.Time,
	dueDate time.Time,
	actor string,
) (*invoicedomain.Invoice, error) {
	exists, err := s.repo.ExistsForRoomPeriod(ctx, s.db, room.ID, p.String())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, roomSkip{reason: skipAlreadyInvoiced}
	}

	holder, err := s.registry.FindContractHolder(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if holder == nil || !holder.IsActive() {
		return nil, roomSkip{reason: skipNoContractHolder}
	}

	charges, err := s.calculator.Calculate(ctx, building, room.ID, p)
	if err != nil {
		return nil, err
	}

	invoiceID := s.genID.Generate()
	number, err := invoiceformat.FormatInvoiceNumber(invoiceformat.DefaultInvoiceNumberTemplate, p, room.RoomNumber)
	if err != nil {
		number = "INV-" + invoiceID.String()
	}

	tenantID := holder.ID
	invoice := &invoicedomain.Invoice{
		ID:             invoiceID,
		InvoiceNumber:  number,
		BuildingID:     building.ID,
		RoomID:         room.ID,
		Period:         p.String(),
		TenantID:       &tenantID,
		RoomPrice:      room.Price,
		ElectricAmount: charges.ElectricAmount,
		WaterAmount:    charges.WaterAmount,
		TotalAmount:    room.Price + charges.ElectricAmount + charges.WaterAmount,
		Status:         invoicedomain.StatusDraft,
		DueDate:        dueDate,
		Breakdown:      breakdown(building, charges),
		CreatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, invoice); err != nil {
		if errors.Is(err, invoicedomain.ErrInvoiceAlreadyExists) {
			return nil, roomSkip{reason: skipAlreadyInvoiced}
		}
		return nil, err
	}

	s.metrics.RecordInvoiceGenerated(ctx, string(charges.ElectricSource))
	return invoice, nil
}

// dueDateFrom counts DueDays calendar days from the start of the generation
// day in the billing time zone.
func dueDateFrom(now time.Time, cfg config.BillingConfig) time.Time {
	loc := cfg.Location()
	return startOfDay(now, loc).In(loc).AddDate(0, 0, cfg.DueDays).UTC()
}

func breakdown(building *propertydomain.Building, charges utilitycostdomain.Charges) datatypes.JSONMap {
	out := datatypes.JSONMap{
		invoicedomain.BreakdownElectricUsage:  charges.ElectricUsage,
		invoicedomain.BreakdownElectricSource: string(charges.ElectricSource),
		invoicedomain.BreakdownWaterUsage:     charges.WaterUsage,
		invoicedomain.BreakdownWaterSource:    string(charges.WaterSource),
		invoicedomain.BreakdownWaterMethod:    string(charges.WaterMethod),
		invoicedomain.BreakdownHeadcount:      charges.Headcount,
		invoicedomain.BreakdownActiveTenants:  charges.ActiveHeadcount,
	}
	if price := priceString(building.ElectricUnitPrice); price != "" {
		out[invoicedomain.BreakdownElectricPrice] = price
	}
	if price := priceString(building.WaterUnitPrice); price != "" {
		out[invoicedomain.BreakdownWaterPrice] = price
	}
	return out
}

func priceString(price decimal.NullDecimal) string {
	if !price.Valid {
		return ""
	}
	return price.Decimal.String()
}
