package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/moniepoint/analytics/internal/cache"
	"github.com/moniepoint/analytics/internal/clock"
	"github.com/moniepoint/analytics/internal/config"
	"github.com/moniepoint/analytics/internal/importer"
	importerdomain "github.com/moniepoint/analytics/internal/importer/domain"
	"github.com/moniepoint/analytics/internal/migration"
	"github.com/moniepoint/analytics/internal/observability"
	"github.com/moniepoint/analytics/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	dataDir := flag.String("data-dir", "", "directory containing activity files (defaults to DATA_DIR)")
	batchSize := flag.Int("batch-size", 0, "rows per bulk write (defaults to importer config)")
	flag.Parse()

	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		migration.Module,
		importer.Module,

		fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, p runParams) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						code := runImport(context.Background(), p, *dataDir, *batchSize)
						_ = shutdowner.Shutdown(fx.ExitCode(code))
					}()
					return nil
				},
			})
		}),
	)
	app.Run()
}

type runParams struct {
	fx.In

	Svc    importerdomain.Service
	Cfg    config.Config
	Holder *config.ImporterConfigHolder
	Log    *zap.Logger
}

func runImport(ctx context.Context, p runParams, dataDir string, batchSize int) int {
	// One immutable snapshot per run; a hot reload never lands mid-import.
	snapshot := p.Holder.Get()

	req := importerdomain.RunRequest{
		DataDir:     p.Cfg.DataDir,
		FilePattern: snapshot.FilePattern,
		BatchSize:   snapshot.BatchSize,
		ErrorLogCap: snapshot.ErrorLogCap,
	}
	if dataDir != "" {
		req.DataDir = dataDir
	}
	if batchSize > 0 {
		req.BatchSize = batchSize
	}

	summary, err := p.Svc.Run(ctx, req)
	if err != nil {
		p.Log.Error("import failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		if errors.Is(err, importerdomain.ErrDataDirNotFound) || errors.Is(err, importerdomain.ErrInvalidRequest) {
			return 2
		}
		return 1
	}

	printSummary(summary)
	return 0
}

func printSummary(summary *importerdomain.Summary) {
	fmt.Printf("import run %s (%s)\n", summary.RunID, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	for _, file := range summary.Files {
		if file.SchemaError != "" {
			fmt.Printf("  %-40s skipped: %s\n", file.File, file.SchemaError)
			continue
		}
		fmt.Printf("  %-40s read=%d imported=%d skipped=%d\n",
			file.File, file.RowsRead, file.Imported, file.Skipped)
		for _, rowErr := range file.Errors {
			fmt.Printf("    line %d: %s\n", rowErr.Line, rowErr.Reason)
		}
	}
	fmt.Printf("total: files=%d read=%d imported=%d skipped=%d\n",
		len(summary.Files), summary.TotalRead, summary.TotalImported, summary.TotalSkipped)
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
