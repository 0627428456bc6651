package bridge

import (
	"github.com/squareft/authbridge/internal/callback"

	"go.uber.org/fx"
)

// Module provides the cross-origin session bridge
var Module = fx.Module("bridge",
	fx.Provide(
		fx.Annotate(
			NewBridge,
			fx.As(new(callback.Pusher)),
			fx.As(fx.Self()),
		),
	),
)
