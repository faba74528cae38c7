package property

import (
	"github.com/smallbiznis/rentbill/internal/property/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("property.registry",
	fx.Provide(repository.Provide),
)
