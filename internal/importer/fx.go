package importer

import (
	"github.com/moniepoint/analytics/internal/importer/service"
	"go.uber.org/fx"
)

// Module wires the import pipeline.
var Module = fx.Module("importer",
	fx.Provide(
		service.NewService,
	),
)
