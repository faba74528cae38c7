package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry describes a log line. Append writes it on the caller's transaction
// so the log and the status change commit together.
type Entry struct {
	InvoiceID snowflake.ID
	Action    Action
	OldStatus string
	NewStatus string
	Amount    int64
	Actor     string
	Note      string
}

type ListRequest struct {
	pagination.Pagination
	InvoiceID string
}

type ListResponse struct {
	pagination.PageInfo
	PaymentLogs []PaymentLog `json:"payment_logs"`
}

type Service interface {
	Append(ctx context.Context, tx *gorm.DB, entry Entry) (*PaymentLog, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
