package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/account"
	"github.com/steeplehq/steeple/internal/channel"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/community"
	"github.com/steeplehq/steeple/internal/config"
	"github.com/steeplehq/steeple/internal/identity"
	"github.com/steeplehq/steeple/internal/invitation"
	"github.com/steeplehq/steeple/internal/migration"
	"github.com/steeplehq/steeple/internal/observability"
	"github.com/steeplehq/steeple/internal/providers/email"
	"github.com/steeplehq/steeple/internal/realtime"
	"github.com/steeplehq/steeple/internal/server"
	"github.com/steeplehq/steeple/internal/tenant"
	"github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		identity.Module,
		email.Module,
		account.Module,
		tenant.Module,
		invitation.Module,
		realtime.Module,
		channel.Module,
		community.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
