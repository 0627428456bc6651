package provision

import (
	"github.com/squareft/authbridge/internal/callback"

	"go.uber.org/fx"
)

// Module provides first-run provisioning
var Module = fx.Module("provision",
	fx.Provide(
		fx.Annotate(
			NewPostgresStore,
			fx.As(new(Store)),
		),
		fx.Annotate(
			NewService,
			fx.As(new(callback.Provisioner)),
		),
	),
)
