package paymentlog

import (
	"github.com/smallbiznis/rentbill/internal/paymentlog/repository"
	"github.com/smallbiznis/rentbill/internal/paymentlog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentlog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
