package notification

import (
	"context"

	"go.uber.org/zap"
)

type Message struct {
	To      []string
	Subject string
	HTML    string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// NoOpProvider logs instead of sending. It is used when SMTP is not configured.
type NoOpProvider struct {
	log *zap.Logger
}

func NewNoOpProvider(log *zap.Logger) *NoOpProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoOpProvider{log: log.Named("notification.noop")}
}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) error {
	p.log.Info("email suppressed",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
