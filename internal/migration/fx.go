package migration

import (
	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	importerdomain "github.com/moniepoint/analytics/internal/importer/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		// Versioned SQL migrations exist for Postgres only; other dialects
		// (sqlite for local runs and tests) derive the schema from the models.
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}
		return conn.AutoMigrate(
			&activitydomain.ActivityEvent{},
			&importerdomain.ImportRun{},
		)
	}),
)
