package service

import (
	"context"
	"fmt"
	"strings"

	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	"go.uber.org/zap"
)

const (
	emailOutcomeSent     = "sent"
	emailOutcomeRejected = "rejected"
	emailOutcomeFailed   = "failed"
)

// SendInvoiceEmail sends the invoice to its tenant. It does not change the
// invoice status.
func (s *Service) SendInvoiceEmail(ctx context.Context, id string) error {
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return invoicedomain.ErrInvoiceNotFound
	}

	notice, err := s.buildNotice(ctx, invoice)
	if err != nil {
		s.metrics.RecordEmail(ctx, emailOutcomeRejected)
		return err
	}

	if err := s.notifier.SendInvoice(ctx, notice); err != nil {
		s.metrics.RecordEmail(ctx, emailOutcomeFailed)
		s.log.Warn("invoice email failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("send invoice email: %w", err)
	}

	s.metrics.RecordEmail(ctx, emailOutcomeSent)
	s.log.Info("invoice email sent",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("period", invoice.Period),
	)
	return nil
}

func (s *Service) buildNotice(ctx context.Context, invoice *invoicedomain.Invoice) (invoicedomain.Notice, error) {
	if invoice.TenantID == nil {
		return invoicedomain.Notice{}, propertydomain.ErrTenantNotFound
	}
	tenant, err := s.registry.GetTenant(ctx, *invoice.TenantID)
	if err != nil {
		return invoicedomain.Notice{}, err
	}
	if tenant == nil {
		return invoicedomain.Notice{}, propertydomain.ErrTenantNotFound
	}

	var email string
	if tenant.Email != nil {
		email = strings.TrimSpace(*tenant.Email)
	}
	if email == "" {
		return invoicedomain.Notice{}, invoicedomain.ErrEmailRequired
	}

	room, err := s.registry.GetRoom(ctx, invoice.RoomID)
	if err != nil {
		return invoicedomain.Notice{}, err
	}
	if room == nil {
		return invoicedomain.Notice{}, propertydomain.ErrRoomNotFound
	}

	return invoicedomain.Notice{
		InvoiceID:      invoice.ID,
		InvoiceNumber:  invoice.InvoiceNumber,
		ToEmail:        email,
		TenantName:     tenant.FullName,
		RoomNumber:     room.RoomNumber,
		Period:         invoice.Period,
		RoomPrice:      invoice.RoomPrice,
		ElectricAmount: invoice.ElectricAmount,
		WaterAmount:    invoice.WaterAmount,
		TotalAmount:    invoice.TotalAmount,
		DueDate:        invoice.DueDate.In(s.billing.Get().Location()),
	}, nil
}
