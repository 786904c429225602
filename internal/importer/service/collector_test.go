package service

import (
	"fmt"
	"testing"

	"github.com/moniepoint/analytics/internal/importer/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestErrorCollector_CapsDetailGlobally(t *testing.T) {
	c := newErrorCollector(3, zap.NewNop())

	for i := 0; i < 2; i++ {
		c.Add("a.csv", domain.RowError{Line: i + 2, Reason: "bad row"})
	}
	for i := 0; i < 4; i++ {
		c.Add("b.csv", domain.RowError{Line: i + 2, Reason: "bad row"})
	}

	assert.Equal(t, 6, c.Total())
	assert.Len(t, c.ForFile("a.csv"), 2)
	assert.Len(t, c.ForFile("b.csv"), 1)
}

func TestErrorCollector_ZeroCapOnlyCounts(t *testing.T) {
	c := newErrorCollector(0, zap.NewNop())

	for i := 0; i < 5; i++ {
		c.Add("a.csv", domain.RowError{Line: i + 2, Reason: fmt.Sprintf("bad row %d", i)})
	}

	assert.Equal(t, 5, c.Total())
	assert.Empty(t, c.ForFile("a.csv"))
}

func TestErrorCollector_UnknownFileIsEmpty(t *testing.T) {
	c := newErrorCollector(10, zap.NewNop())
	assert.Empty(t, c.ForFile("never-seen.csv"))
}
