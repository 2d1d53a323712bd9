package identity

import (
	"github.com/steeplehq/steeple/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(func(cfg config.Config) *Verifier {
		return NewVerifier(cfg.IdentitySecret, cfg.IdentityIssuer)
	}),
)
