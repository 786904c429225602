package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	"github.com/moniepoint/analytics/internal/cache"
	"github.com/moniepoint/analytics/internal/clock"
	"github.com/moniepoint/analytics/internal/importer/domain"
	obsmetrics "github.com/moniepoint/analytics/internal/observability/metrics"
	"github.com/moniepoint/analytics/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
	Cache   cache.MetricCache   `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
	cache   cache.MetricCache
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("importer.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
		cache:   p.Cache,
	}
}

// Run imports every matching activity file under req.DataDir into the event
// store. The whole run is one transaction: row and header problems are
// skipped and reported, but a store failure rolls everything back.
func (s *Service) Run(ctx context.Context, req domain.RunRequest) (*domain.Summary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	files, err := s.discoverFiles(req)
	if err != nil {
		return nil, err
	}

	runID := s.genID.Generate()
	summary := &domain.Summary{
		RunID:     runID.String(),
		StartedAt: s.clock.Now(),
	}

	if len(files) == 0 {
		s.log.Warn("no activity files found",
			zap.String("data_dir", req.DataDir),
			zap.String("pattern", req.FilePattern),
		)
		summary.FinishedAt = s.clock.Now()
		return summary, nil
	}

	collector := newErrorCollector(req.ErrorLogCap, s.log)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, file := range files {
			report, err := s.processFile(ctx, tx, file, req.BatchSize, collector)
			if err != nil {
				return err
			}

			summary.Files = append(summary.Files, report)
			summary.TotalRead += report.RowsRead
			summary.TotalImported += report.Imported
			summary.TotalSkipped += report.Skipped

			s.metrics.RecordFileImported(ctx, report.File, int64(report.Imported), int64(report.Skipped))
			s.log.Info("file loaded",
				zap.String("file", report.File),
				zap.Int("rows_read", report.RowsRead),
				zap.Int("imported", report.Imported),
				zap.Int("skipped", report.Skipped),
			)
		}

		summary.FinishedAt = s.clock.Now()
		return tx.Create(s.buildRunRecord(runID, summary)).Error
	})

	if txErr != nil {
		s.log.Error("import rolled back", zap.Error(txErr))
		failed := &domain.Summary{
			RunID:      summary.RunID,
			StartedAt:  summary.StartedAt,
			FinishedAt: s.clock.Now(),
		}
		return failed, fmt.Errorf("import transaction failed: %w", txErr)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.log.Info("import complete",
		zap.String("run_id", summary.RunID),
		zap.Int("files", len(summary.Files)),
		zap.Int("total_imported", summary.TotalImported),
		zap.Int("total_skipped", summary.TotalSkipped),
	)
	return summary, nil
}

func validateRequest(req domain.RunRequest) error {
	if strings.TrimSpace(req.DataDir) == "" {
		return fmt.Errorf("%w: data dir is required", domain.ErrInvalidRequest)
	}
	if req.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidRequest)
	}
	if req.ErrorLogCap < 0 {
		return fmt.Errorf("%w: error log cap cannot be negative", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.FilePattern) == "" {
		return fmt.Errorf("%w: file pattern is required", domain.ErrInvalidRequest)
	}
	return nil
}

// discoverFiles lists matching files in lexicographic order so repeated runs
// produce identical summaries.
func (s *Service) discoverFiles(req domain.RunRequest) ([]string, error) {
	info, err := os.Stat(req.DataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDataDirNotFound, req.DataDir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrDataDirNotFound, req.DataDir)
	}

	files, err := filepath.Glob(filepath.Join(req.DataDir, req.FilePattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", req.FilePattern, err)
	}
	sort.Strings(files)
	return files, nil
}

// processFile loads one file inside the shared transaction. Header mismatches
// skip the whole file; malformed rows are skipped and counted. Only store
// failures propagate and abort the run.
func (s *Service) processFile(ctx context.Context, tx *gorm.DB, path string, batchSize int, collector *errorCollector) (domain.FileReport, error) {
	report := domain.FileReport{File: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		report.SchemaError = fmt.Sprintf("cannot open file: %v", err)
		s.log.Error("skipping unreadable file", zap.String("file", report.File), zap.Error(err))
		return report, nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		report.SchemaError = fmt.Sprintf("cannot read header: %v", err)
		s.log.Error("skipping file without header", zap.String("file", report.File), zap.Error(err))
		return report, nil
	}

	if err := validateHeader(header); err != nil {
		report.SchemaError = err.Error()
		s.log.Error("skipping file with invalid header", zap.String("file", report.File), zap.Error(err))
		return report, nil
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(strings.ToLower(col))
	}

	batch := make([]*activitydomain.ActivityEvent, 0, batchSize)
	line := 1

	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.RowsRead++
			report.Skipped++
			collector.Add(report.File, domain.RowError{Line: line, Reason: err.Error()})
			continue
		}

		report.RowsRead++
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		event, rowErr := normalizeRow(row, line)
		if rowErr != nil {
			report.Skipped++
			collector.Add(report.File, *rowErr)
			continue
		}

		batch = append(batch, event)
		if len(batch) >= batchSize {
			if err := s.flush(ctx, tx, batch); err != nil {
				return report, err
			}
			report.Imported += len(batch)
			batch = batch[:0]
		}
	}

	if err := s.flush(ctx, tx, batch); err != nil {
		return report, err
	}
	report.Imported += len(batch)
	report.Errors = collector.ForFile(report.File)

	return report, nil
}

// flush bulk-writes one batch. Conflicting event IDs are ignored so reloads
// of the same files are idempotent with respect to store content.
func (s *Service) flush(ctx context.Context, tx *gorm.DB, batch []*activitydomain.ActivityEvent) error {
	if len(batch) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&batch).Error
	if err != nil && db.IsDuplicateKeyErr(err) {
		// a concurrent reload racing the same batch; duplicates are not errors
		return nil
	}
	return err
}

func (s *Service) buildRunRecord(runID snowflake.ID, summary *domain.Summary) *domain.ImportRun {
	run := &domain.ImportRun{
		ID:           runID,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
		FilesRead:    len(summary.Files),
		RowsRead:     summary.TotalRead,
		RowsImported: summary.TotalImported,
		RowsSkipped:  summary.TotalSkipped,
		Report:       datatypes.JSONMap{},
	}

	payload, err := json.Marshal(summary.Files)
	if err != nil {
		s.log.Warn("cannot encode run report", zap.Error(err))
		return run
	}
	var files []any
	if err := json.Unmarshal(payload, &files); err != nil {
		s.log.Warn("cannot decode run report", zap.Error(err))
		return run
	}
	run.Report = datatypes.JSONMap{"files": files}
	return run
}
