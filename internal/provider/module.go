package provider

import "go.uber.org/fx"

// Module provides the identity-provider client dependencies
var Module = fx.Module("provider",
	fx.Provide(
		fx.Annotate(
			NewMemoryVerifierStore,
			fx.As(new(VerifierStore)),
		),
		fx.Annotate(
			NewHTTPClient,
			fx.As(new(Client)),
		),
	),
)
