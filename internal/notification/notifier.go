package notification

import (
	"context"

	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	"go.uber.org/zap"
)

// EmailNotifier renders invoice notices and hands them to a Provider.
type EmailNotifier struct {
	provider Provider
	renderer *Renderer
	log      *zap.Logger
}

func NewEmailNotifier(provider Provider, renderer *Renderer, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		provider: provider,
		renderer: renderer,
		log:      log.Named("notification.email"),
	}
}

func (n *EmailNotifier) SendInvoice(ctx context.Context, notice invoicedomain.Notice) error {
	rendered, err := n.renderer.RenderInvoice(notice)
	if err != nil {
		return err
	}

	if err := n.provider.Send(ctx, Message{
		To:      []string{notice.ToEmail},
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	}); err != nil {
		return err
	}

	n.log.Debug("invoice email delivered",
		zap.String("invoice_id", notice.InvoiceID.String()),
		zap.String("period", notice.Period),
	)
	return nil
}
