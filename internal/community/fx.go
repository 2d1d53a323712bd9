package community

import (
	"github.com/steeplehq/steeple/internal/community/domain"
	"github.com/steeplehq/steeple/internal/community/repository"
	"github.com/steeplehq/steeple/internal/community/service"
	"github.com/steeplehq/steeple/internal/community/storage"
	"github.com/steeplehq/steeple/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("community.service",
	fx.Provide(
		repository.NewRepository,
		newStorage,
		service.NewService,
	),
)

func newStorage(cfg config.Config) domain.Storage {
	return storage.NewLocal(cfg.MediaDir)
}
