package cookies

import "go.uber.org/fx"

// Module provides the cross-origin cookie store
var Module = fx.Module("cookies",
	fx.Provide(
		fx.Annotate(
			NewMemoryJar,
			fx.As(new(Jar)),
		),
		NewStore,
	),
)
