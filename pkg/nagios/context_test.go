package nagios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolContext(t *testing.T) {
	t.Parallel()

	ctx := NewBoolContext("ping", true, StateCritical)

	res, err := ctx.Evaluate(&Metric{Name: "ping", Value: true, ContextName: "ping"})
	require.NoError(t, err)
	assert.Equal(t, StateOK, res.State)

	res, err = ctx.Evaluate(&Metric{Name: "ping", Value: false, ContextName: "ping"})
	require.NoError(t, err)
	assert.Equal(t, StateCritical, res.State)

	downgraded := NewBoolContext("ping", true, StateWarning)
	res, err = downgraded.Evaluate(&Metric{Name: "ping", Value: false, ContextName: "ping"})
	require.NoError(t, err)
	assert.Equal(t, StateWarning, res.State, "mismatch state is configurable")

	_, err = ctx.Evaluate(&Metric{Name: "ping", Value: int64(1), ContextName: "ping"})
	assert.Error(t, err, "non-boolean value is a contract violation")
}

func TestScalarContext(t *testing.T) {
	t.Parallel()

	ctx, err := NewScalarContext("connections", "80", "100")
	require.NoError(t, err)

	cases := []struct {
		value    interface{}
		expected State
	}{
		{int64(10), StateOK},
		{int64(80), StateOK},
		{int64(81), StateWarning},
		{int64(100), StateWarning},
		{int64(101), StateCritical},
		{float64(99.5), StateWarning},
	}
	for _, data := range cases {
		res, err := ctx.Evaluate(&Metric{Name: "connections", Value: data.value, ContextName: "connections"})
		require.NoError(t, err)
		assert.Equalf(t, data.expected, res.State, "value %v evaluates to %s", data.value, data.expected.String())
	}

	_, err = ctx.Evaluate(&Metric{Name: "connections", Value: true, ContextName: "connections"})
	assert.Error(t, err, "boolean value is a contract violation")
}

func TestScalarContextZeroThreshold(t *testing.T) {
	t.Parallel()

	ctx, err := NewScalarContext("rate", "0", "0")
	require.NoError(t, err)

	res, err := ctx.Evaluate(&Metric{Name: "rate", Value: int64(0), ContextName: "rate"})
	require.NoError(t, err)
	assert.Equal(t, StateOK, res.State, "value 0 with threshold 0 is OK")

	res, err = ctx.Evaluate(&Metric{Name: "rate", Value: int64(500), ContextName: "rate"})
	require.NoError(t, err)
	assert.Equal(t, StateOK, res.State, "threshold 0 keeps matching positive values")
}

func TestInvertedScalarContext(t *testing.T) {
	t.Parallel()

	ctx, err := NewInvertedScalarContext("uptime", "300", "60")
	require.NoError(t, err)

	cases := []struct {
		value    int64
		expected State
	}{
		{30, StateCritical},
		{100, StateWarning},
		{1000, StateOK},
	}
	for _, data := range cases {
		res, err := ctx.Evaluate(&Metric{Name: "uptime", Value: data.value, Unit: "s", ContextName: "uptime"})
		require.NoError(t, err)
		assert.Equalf(t, data.expected, res.State, "uptime %d evaluates to %s", data.value, data.expected.String())
	}

	res, err := ctx.Evaluate(&Metric{Name: "uptime", Value: int64(30), Unit: "s", ContextName: "uptime"})
	require.NoError(t, err)
	assert.Equal(t, "uptime is 30s (outside range 60:)", res.String())
}
