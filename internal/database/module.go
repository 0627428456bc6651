package database

import "go.uber.org/fx"

// Module provides the shared Postgres connection
var Module = fx.Module("database",
	fx.Provide(Open),
)
