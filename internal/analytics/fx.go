package analytics

import (
	"github.com/moniepoint/analytics/internal/analytics/service"
	"go.uber.org/fx"
)

// Module wires the aggregation engine.
var Module = fx.Module("analytics",
	fx.Provide(
		service.NewService,
	),
)
