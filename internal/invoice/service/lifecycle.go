package service

import (
	"context"

	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type transition struct {
	name   string
	to     invoicedomain.Status
	action paymentlogdomain.Action
	// allow returns the domain error for a disallowed source status.
	allow func(from invoicedomain.Status) error
}

func (s *Service) IssueInvoice(ctx context.Context, req invoicedomain.TransitionRequest) (*invoicedomain.Summary, error) {
	return s.applyTransition(ctx, req, transition{
		name:   "issue",
		to:     invoicedomain.StatusUnpaid,
		action: paymentlogdomain.ActionStatusChanged,
		allow: func(from invoicedomain.Status) error {
			if from != invoicedomain.StatusDraft {
				return invoicedomain.ErrInvoiceCannotBeIssued
			}
			return nil
		},
	})
}

// PayInvoice settles DRAFT and UNPAID invoices. OVERDUE invoices are only
// payable when billing.allowOverduePayment is set.
func (s *Service) PayInvoice(ctx context.Context, req invoicedomain.TransitionRequest) (*invoicedomain.Summary, error) {
	allowOverdue := s.billing.Get().AllowOverduePayment
	summary, err := s.applyTransition(ctx, req, transition{
		name:   "pay",
		to:     invoicedomain.StatusPaid,
		action: paymentlogdomain.ActionPaid,
		allow: func(from invoicedomain.Status) error {
			switch from {
			case invoicedomain.StatusPaid:
				return invoicedomain.ErrInvoiceAlreadyPaid
			case invoicedomain.StatusDraft, invoicedomain.StatusUnpaid:
				return nil
			case invoicedomain.StatusOverdue:
				if allowOverdue {
					return nil
				}
				return invoicedomain.ErrInvoiceCannotBePaid
			default:
				return invoicedomain.ErrInvoiceCannotBePaid
			}
		},
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPayment(ctx, summary.TotalAmount)
	return summary, nil
}

func (s *Service) VoidInvoice(ctx context.Context, req invoicedomain.TransitionRequest) (*invoicedomain.Summary, error) {
	return s.applyTransition(ctx, req, transition{
		name:   "void",
		to:     invoicedomain.StatusVoid,
		action: paymentlogdomain.ActionStatusChanged,
		allow: func(from invoicedomain.Status) error {
			if from.Terminal() {
				return invoicedomain.ErrInvoiceCannotBeVoided
			}
			return nil
		},
	})
}

// applyTransition locks the invoice, checks the source status, updates it and
// appends the payment log inside one transaction.
func (s *Service) applyTransition(ctx context.Context, req invoicedomain.TransitionRequest, t transition) (*invoicedomain.Summary, error) {
	actor, err := normalizeActor(req.Actor)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.InvoiceID)
	if err != nil {
		return nil, err
	}

	var (
		updated *invoicedomain.Invoice
		from    invoicedomain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		from = invoice.Status
		if err := t.allow(from); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		update := invoicedomain.StatusUpdate{
			ID:        invoice.ID,
			From:      from,
			To:        t.to,
			UpdatedAt: now,
		}
		switch t.to {
		case invoicedomain.StatusUnpaid:
			update.IssuedAt = &now
			invoice.IssuedAt = &now
		case invoicedomain.StatusPaid:
			update.PaidAt = &now
			invoice.PaidAt = &now
		case invoicedomain.StatusVoid:
			update.VoidedAt = &now
			invoice.VoidedAt = &now
		}

		ok, err := s.repo.UpdateStatus(ctx, tx, update)
		if err != nil {
			return err
		}
		if !ok {
			return invoicedomain.ErrInvoiceStatusChanged
		}

		if _, err := s.paymentLogs.Append(ctx, tx, paymentlogdomain.Entry{
			InvoiceID: invoice.ID,
			Action:    t.action,
			OldStatus: string(from),
			NewStatus: string(t.to),
			Amount:    invoice.TotalAmount,
			Actor:     actor,
			Note:      req.Note,
		}); err != nil {
			return err
		}

		invoice.Status = t.to
		invoice.UpdatedAt = now
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceTransition(ctx, string(from), string(t.to))
	s.log.Info("invoice status changed",
		zap.String("invoice_id", updated.ID.String()),
		zap.String("operation", t.name),
		zap.String("from_status", string(from)),
		zap.String("to_status", string(t.to)),
		zap.String("actor", actor),
	)

	summary := s.toSummary(updated)
	return &summary, nil
}
