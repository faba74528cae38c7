package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Action string

const (
	ActionPaid          Action = "PAID"
	ActionMarkedOverdue Action = "MARKED_OVERDUE"
	ActionStatusChanged Action = "STATUS_CHANGED"
)

func (a Action) Valid() bool {
	switch a {
	case ActionPaid, ActionMarkedOverdue, ActionStatusChanged:
		return true
	default:
		return false
	}
}

// PaymentLog is an append-only record of an invoice status change.
type PaymentLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Action    Action       `gorm:"type:varchar(32);not null" json:"action"`
	OldStatus string       `gorm:"type:varchar(16);not null" json:"old_status"`
	NewStatus string       `gorm:"type:varchar(16);not null" json:"new_status"`
	Amount    int64        `gorm:"not null;default:0" json:"amount"`
	Actor     string       `gorm:"type:text;not null" json:"actor"`
	Note      *string      `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (PaymentLog) TableName() string { return "payment_logs" }
