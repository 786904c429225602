package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.NotNil(t, provider)
}

func TestMetricsRecordWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "merchant-analytics"}, noop.NewMeterProvider())
	require.NoError(t, err)

	m.RecordFileImported(context.Background(), "activities_2024_01.csv", 10, 2)
	m.RecordMetricQuery(context.Background(), "top_merchant")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordFileImported(context.Background(), "activities_2024_01.csv", 1, 0)
	m.RecordMetricQuery(context.Background(), "kyc_funnel")
}
