package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/clock"
	"github.com/smallbiznis/rentbill/internal/config"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/rentbill/internal/observability/metrics"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	"github.com/smallbiznis/rentbill/internal/period"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	utilitycostdomain "github.com/smallbiznis/rentbill/internal/utilitycost/domain"
	"github.com/smallbiznis/rentbill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 20

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Billing     *config.BillingConfigHolder
	Repo        invoicedomain.Repository
	Registry    propertydomain.Registry
	Calculator  utilitycostdomain.Calculator
	PaymentLogs paymentlogdomain.Service
	Notifier    invoicedomain.Notifier
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	billing     *config.BillingConfigHolder
	repo        invoicedomain.Repository
	registry    propertydomain.Registry
	calculator  utilitycostdomain.Calculator
	paymentLogs paymentlogdomain.Service
	notifier    invoicedomain.Notifier
	metrics     *obsmetrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		billing:     p.Billing,
		repo:        p.Repo,
		registry:    p.Registry,
		calculator:  p.Calculator,
		paymentLogs: p.PaymentLogs,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
	}
}

func (s *Service) GetInvoice(ctx context.Context, id string) (*invoicedomain.Summary, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}

	summary := s.toSummary(item)
	return &summary, nil
}

func (s *Service) ListInvoices(ctx context.Context, req invoicedomain.ListRequest) (invoicedomain.ListResponse, error) {
	var filter invoicedomain.ListFilter

	if raw := strings.TrimSpace(req.BuildingID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return invoicedomain.ListResponse{}, err
		}
		filter.BuildingID = id
	}
	if raw := strings.TrimSpace(req.RoomID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return invoicedomain.ListResponse{}, err
		}
		filter.RoomID = id
	}
	if raw := strings.TrimSpace(req.Period); raw != "" {
		p, err := period.Parse(raw)
		if err != nil {
			return invoicedomain.ListResponse{}, invoicedomain.ErrInvalidPeriod
		}
		filter.Period = p.String()
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := invoicedomain.ParseStatus(raw)
		if err != nil {
			return invoicedomain.ListResponse{}, err
		}
		filter.Status = status
	}
	beforeID, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return invoicedomain.ListResponse{}, invoicedomain.ErrInvalidPageToken
	}
	filter.BeforeID = beforeID
	pageSize := req.Limit(defaultPageSize)
	filter.Limit = pageSize

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return invoicedomain.ListResponse{}, err
	}

	items, pageInfo := pagination.Page(items, pageSize, func(item *invoicedomain.Invoice) snowflake.ID {
		return item.ID
	})

	invoices := make([]invoicedomain.Summary, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, s.toSummary(item))
	}

	return invoicedomain.ListResponse{Invoices: invoices, PageInfo: pageInfo}, nil
}

func (s *Service) toSummary(item *invoicedomain.Invoice) invoicedomain.Summary {
	loc := s.billing.Get().Location()
	summary := invoicedomain.Summary{
		ID:             item.ID.String(),
		InvoiceNumber:  item.InvoiceNumber,
		BuildingID:     item.BuildingID.String(),
		RoomID:         item.RoomID.String(),
		Period:         item.Period,
		RoomPrice:      item.RoomPrice,
		ElectricAmount: item.ElectricAmount,
		WaterAmount:    item.WaterAmount,
		TotalAmount:    item.TotalAmount,
		Status:         item.Status,
		DueDate:        item.DueDate.In(loc).Format(time.DateOnly),
		DueAt:          item.DueDate.UTC(),
		IssuedAt:       utcPtr(item.IssuedAt),
		PaidAt:         utcPtr(item.PaidAt),
		VoidedAt:       utcPtr(item.VoidedAt),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
	if item.TenantID != nil {
		summary.TenantID = item.TenantID.String()
	}
	if len(item.Breakdown) > 0 {
		summary.Breakdown = map[string]any(item.Breakdown)
	}
	return summary
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// startOfDay returns local midnight of the day containing now, in UTC.
func startOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func normalizeActor(raw string) (string, error) {
	actor := strings.TrimSpace(raw)
	if actor == "" {
		return "", invoicedomain.ErrInvalidActor
	}
	return actor, nil
}
