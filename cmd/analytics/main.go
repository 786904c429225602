package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/moniepoint/analytics/internal/analytics"
	"github.com/moniepoint/analytics/internal/cache"
	"github.com/moniepoint/analytics/internal/clock"
	"github.com/moniepoint/analytics/internal/config"
	"github.com/moniepoint/analytics/internal/migration"
	"github.com/moniepoint/analytics/internal/observability"
	"github.com/moniepoint/analytics/internal/server"
	"github.com/moniepoint/analytics/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		migration.Module,

		// Functional Domains
		analytics.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
