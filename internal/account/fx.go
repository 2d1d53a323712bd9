package account

import (
	"github.com/steeplehq/steeple/internal/account/repository"
	"github.com/steeplehq/steeple/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
