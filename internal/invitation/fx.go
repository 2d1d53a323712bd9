package invitation

import (
	"github.com/steeplehq/steeple/internal/invitation/repository"
	"github.com/steeplehq/steeple/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewLimiter),
	fx.Provide(service.NewService),
)
