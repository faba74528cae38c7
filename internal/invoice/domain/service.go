package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/rentbill/pkg/db/pagination"
)

type GenerateRequest struct {
	BuildingID string
	Period     string
	Actor      string
}

type TransitionRequest struct {
	InvoiceID string
	Actor     string
	Note      string
}

type ListRequest struct {
	pagination.Pagination
	BuildingID string `form:"building_id"`
	RoomID     string `form:"room_id"`
	Period     string `form:"period"`
	Status     string `form:"status"`
}

// Summary is the external view of an invoice. DueDate is the calendar date
// in the billing time zone.
type Summary struct {
	ID             string         `json:"id"`
	InvoiceNumber  string         `json:"invoice_number"`
	BuildingID     string         `json:"building_id"`
	RoomID         string         `json:"room_id"`
	TenantID       string         `json:"tenant_id,omitempty"`
	Period         string         `json:"period"`
	RoomPrice      int64          `json:"room_price"`
	ElectricAmount int64          `json:"electric_amount"`
	WaterAmount    int64          `json:"water_amount"`
	TotalAmount    int64          `json:"total_amount"`
	Status         Status         `json:"status"`
	DueDate        string         `json:"due_date"`
	DueAt          time.Time      `json:"due_at"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	VoidedAt       *time.Time     `json:"voided_at,omitempty"`
	Breakdown      map[string]any `json:"breakdown,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Invoices []Summary `json:"invoices"`
}

type SweepResult struct {
	Marked int `json:"marked"`
	Failed int `json:"failed"`
}

type Service interface {
	GenerateInvoices(ctx context.Context, req GenerateRequest) ([]Summary, error)
	GetInvoice(ctx context.Context, id string) (*Summary, error)
	ListInvoices(ctx context.Context, req ListRequest) (ListResponse, error)

	IssueInvoice(ctx context.Context, req TransitionRequest) (*Summary, error)
	PayInvoice(ctx context.Context, req TransitionRequest) (*Summary, error)
	VoidInvoice(ctx context.Context, req TransitionRequest) (*Summary, error)
	SendInvoiceEmail(ctx context.Context, id string) error

	MarkOverdueInvoices(ctx context.Context, actor string) (SweepResult, error)
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidPeriod         = errors.New("invalid_period")
	ErrInvalidActor          = errors.New("invalid_actor")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidPageToken      = errors.New("invalid_page_token")
	ErrInvoiceNotFound       = errors.New("invoice_not_found")
	ErrInvoiceAlreadyExists  = errors.New("invoice_already_exists")
	ErrInvoiceAlreadyPaid    = errors.New("invoice_already_paid")
	ErrInvoiceCannotBePaid   = errors.New("invoice_cannot_be_paid")
	ErrInvoiceCannotBeVoided = errors.New("invoice_cannot_be_voided")
	ErrInvoiceCannotBeIssued = errors.New("invoice_cannot_be_issued")
	ErrInvoiceStatusChanged  = errors.New("invoice_status_changed")
	ErrEmailRequired         = errors.New("email_required")
)
