package service

import (
	"github.com/moniepoint/analytics/internal/importer/domain"
	"go.uber.org/zap"
)

// errorCollector accumulates row-level failures across one run. Detail is
// kept and logged for at most cap errors globally; everything beyond that is
// only counted, so a badly mangled file cannot flood the output.
type errorCollector struct {
	cap      int
	log      *zap.Logger
	total    int
	detailed int
	byFile   map[string][]domain.RowError
}

func newErrorCollector(cap int, log *zap.Logger) *errorCollector {
	return &errorCollector{
		cap:    cap,
		log:    log,
		byFile: make(map[string][]domain.RowError),
	}
}

func (c *errorCollector) Add(file string, rowErr domain.RowError) {
	c.total++
	if c.detailed >= c.cap {
		return
	}
	c.detailed++
	c.byFile[file] = append(c.byFile[file], rowErr)
	c.log.Warn("skipping malformed row",
		zap.String("file", file),
		zap.Int("line", rowErr.Line),
		zap.String("reason", rowErr.Reason),
	)
}

func (c *errorCollector) Total() int { return c.total }

func (c *errorCollector) ForFile(file string) []domain.RowError {
	return c.byFile[file]
}
