package migration

import (
	"github.com/steeplehq/steeple/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Embedded migrations target postgres; other dialects are
			// for local development and manage schema out of band.
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
