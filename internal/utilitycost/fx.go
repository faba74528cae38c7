package utilitycost

import (
	"github.com/smallbiznis/rentbill/internal/utilitycost/service"
	"go.uber.org/fx"
)

var Module = fx.Module("utilitycost.service",
	fx.Provide(service.New),
)
