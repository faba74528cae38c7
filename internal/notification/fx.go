package notification

import (
	"github.com/smallbiznis/rentbill/internal/config"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(NewProviderFromConfig),
	fx.Provide(NewRendererFromConfig),
	fx.Provide(
		fx.Annotate(
			NewEmailNotifier,
			fx.As(new(invoicedomain.Notifier)),
		),
	),
)

func NewProviderFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if !cfg.SMTP.Enabled() {
		log.Warn("smtp not configured, invoice emails will be logged only")
		return NewNoOpProvider(log)
	}
	return NewSMTP(SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.FromEmail,
		FromName: cfg.SMTP.FromName,
	})
}

// NewRendererFromConfig reads the locale once at startup.
func NewRendererFromConfig(billing *config.BillingConfigHolder) (*Renderer, error) {
	cfg := billing.Get()
	return NewRenderer(cfg.CurrencyLocale, cfg.CurrencySymbol)
}
