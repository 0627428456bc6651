package callback

import "go.uber.org/fx"

// Module provides the callback state machine dependencies
var Module = fx.Module("callback",
	fx.Provide(
		NewMachine,
	),
)
