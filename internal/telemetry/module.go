package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides the activity-event queue
var Module = fx.Module("telemetry",
	fx.Provide(
		fx.Annotate(
			prometheus.NewRegistry,
			fx.As(new(prometheus.Registerer)),
			fx.As(new(prometheus.Gatherer)),
		),
		NewMetrics,
		fx.Annotate(
			NewPostgresWriter,
			fx.As(new(Writer)),
		),
		NewRecorder,
	),
)
