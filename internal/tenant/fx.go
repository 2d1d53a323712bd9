package tenant

import (
	"github.com/steeplehq/steeple/internal/tenant/repository"
	"github.com/steeplehq/steeple/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
