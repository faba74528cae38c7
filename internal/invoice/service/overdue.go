package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSweepBatchSize = 100

var errNotOverdue = errors.New("not_overdue")

// MarkOverdueInvoices moves DRAFT and UNPAID invoices whose due date is before
// today (billing time zone) to OVERDUE. Each invoice commits in its own
// transaction; a failing invoice is logged and the sweep moves on.
func (s *Service) MarkOverdueInvoices(ctx context.Context, actor string) (invoicedomain.SweepResult, error) {
	var result invoicedomain.SweepResult

	actor, err := normalizeActor(actor)
	if err != nil {
		return result, err
	}

	cfg := s.billing.Get()
	cutoff := startOfDay(s.clock.Now(), cfg.Location())
	batchSize := cfg.OverdueSweep.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	var (
		afterID snowflake.ID
		errs    []error
	)
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := s.repo.ListOverdueCandidates(ctx, s.db, cutoff, afterID, batchSize)
		if err != nil {
			return result, fmt.Errorf("list overdue candidates: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, item := range batch {
			afterID = item.ID
			err := s.markOverdue(ctx, item.ID, cutoff, actor)
			switch {
			case err == nil:
				result.Marked++
			case errors.Is(err, errNotOverdue):
			default:
				result.Failed++
				errs = append(errs, fmt.Errorf("invoice %s: %w", item.ID, err))
			}
		}

		if len(batch) < batchSize {
			break
		}
	}

	fields := []zap.Field{
		zap.Time("cutoff", cutoff),
		zap.Int("marked", result.Marked),
		zap.Int("failed", result.Failed),
	}
	if len(errs) > 0 {
		s.log.Warn("overdue sweep finished with failures", append(fields, zap.Error(errors.Join(errs...)))...)
	} else {
		s.log.Info("overdue sweep finished", fields...)
	}
	return result, nil
}

func (s *Service) markOverdue(ctx context.Context, id snowflake.ID, cutoff time.Time, actor string) error {
	var from invoicedomain.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return errNotOverdue
		}
		if invoice.Status != invoicedomain.StatusDraft && invoice.Status != invoicedomain.StatusUnpaid {
			return errNotOverdue
		}
		if !invoice.DueDate.Before(cutoff) {
			return errNotOverdue
		}
		from = invoice.Status

		now := s.clock.Now().UTC()
		ok, err := s.repo.UpdateStatus(ctx, tx, invoicedomain.StatusUpdate{
			ID:        invoice.ID,
			From:      invoice.Status,
			To:        invoicedomain.StatusOverdue,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errNotOverdue
		}

		if _, err := s.paymentLogs.Append(ctx, tx, paymentlogdomain.Entry{
			InvoiceID: invoice.ID,
			Action:    paymentlogdomain.ActionMarkedOverdue,
			OldStatus: string(invoice.Status),
			NewStatus: string(invoicedomain.StatusOverdue),
			Amount:    invoice.TotalAmount,
			Actor:     actor,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordInvoiceTransition(ctx, string(from), string(invoicedomain.StatusOverdue))
	return nil
}
