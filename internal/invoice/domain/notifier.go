package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Notice is what a tenant is told about an invoice.
type Notice struct {
	InvoiceID      snowflake.ID
	InvoiceNumber  string
	ToEmail        string
	TenantName     string
	RoomNumber     string
	Period         string
	RoomPrice      int64
	ElectricAmount int64
	WaterAmount    int64
	TotalAmount    int64
	DueDate        time.Time
}

// Notifier delivers invoice notices. Delivery errors are returned to the
// caller unchanged.
type Notifier interface {
	SendInvoice(ctx context.Context, notice Notice) error
}
