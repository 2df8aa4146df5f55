package nagios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRange(t *testing.T) {
	t.Parallel()

	valid := []struct {
		input    string
		rendered string
	}{
		{"10", "10"},
		{" 3.4", "3.4"},
		{"10:", "10:"},
		{"~:10", "~:10"},
		{"10:20", "10:20"},
		{"@10:20", "@10:20"},
		{"0", "0:"}, // zero fix-up
	}
	for _, data := range valid {
		rng, err := NewRange(data.input)
		require.NoErrorf(t, err, "range %s parses", data.input)
		assert.Equalf(t, data.rendered, rng.String(), "range %s renders as %s", data.input, data.rendered)
	}

	invalid := []string{"", "foo", "3,4", "20:10", "@20:10"}
	for _, input := range invalid {
		_, err := NewRange(input)
		assert.Errorf(t, err, "range %q fails to parse", input)
	}
}

func TestRangeContains(t *testing.T) {
	t.Parallel()

	borders := []struct {
		threshold string
		value     float64
		expected  bool
	}{
		{"10", -1, false},
		{"10", 0, true},
		{"10", 10, true},
		{"10", 11, false},

		{"10:", 9, false},
		{"10:", 10, true},
		{"10:", 11, true},

		{"~:10", -100, true},
		{"~:10", 10, true},
		{"~:10", 11, false},

		{"10:20", 9, false},
		{"10:20", 10, true},
		{"10:20", 20, true},
		{"10:20", 21, false},

		{"@10:20", 9, true},
		{"@10:20", 10, false},
		{"@10:20", 20, false},
		{"@10:20", 21, true},
	}

	for _, data := range borders {
		rng, err := NewRange(data.threshold)
		require.NoErrorf(t, err, "range %s parses", data.threshold)
		assert.Equalf(t, data.expected, rng.Contains(data.value),
			"range %s contains %f", data.threshold, data.value)
	}
}

func TestRangeZeroFixup(t *testing.T) {
	t.Parallel()

	// a zero threshold means "zero or more", not the literal {0}
	rng, err := NewRange("0")
	require.NoError(t, err)

	assert.True(t, rng.Contains(0), "value 0 is ok with threshold 0")
	assert.True(t, rng.Contains(42), "value 42 is ok with threshold 0")
	assert.False(t, rng.Contains(-1), "negative values stay out of range")
}

func TestNewFloorRange(t *testing.T) {
	t.Parallel()

	rng, err := NewFloorRange("300")
	require.NoError(t, err)
	assert.Equal(t, "300:", rng.String(), "bare number becomes a floor")
	assert.False(t, rng.Contains(299))
	assert.True(t, rng.Contains(300))

	rng, err = NewFloorRange("10:20")
	require.NoError(t, err)
	assert.Equal(t, "10:20", rng.String(), "explicit ranges are kept")
}
