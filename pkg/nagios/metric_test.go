package nagios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricPerfString(t *testing.T) {
	t.Parallel()

	warning, err := NewRange("300:")
	require.NoError(t, err)
	critical, err := NewRange("60:")
	require.NoError(t, err)

	metric := &Metric{Name: "uptime", Value: int64(268241), Unit: "s"}
	assert.Equal(t, "'uptime'=268241s;300:;60:", metric.PerfString(warning, critical))

	minVal, maxVal := float64(0), float64(1024)
	metric = &Metric{Name: "connections", Value: int64(12), Min: &minVal, Max: &maxVal}
	assert.Equal(t, "'connections'=12;;;0;1024", metric.PerfString(nil, nil))

	metric = &Metric{Name: "rate", Value: float64(2.5)}
	assert.Equal(t, "'rate'=2.5", metric.PerfString(nil, nil), "trailing semicolons are stripped")
}

func TestMetricValueString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "true", (&Metric{Name: "ping", Value: true}).ValueString())
	assert.Equal(t, "false", (&Metric{Name: "ping", Value: false}).ValueString())
	assert.Equal(t, "42", (&Metric{Name: "n", Value: int64(42)}).ValueString())
	assert.Equal(t, "1.5", (&Metric{Name: "n", Value: float64(1.5)}).ValueString())
}
