package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat64E(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, Float64(1.5), 0.0001)
	assert.InDelta(t, 3, Float64(int32(3)), 0.0001)
	assert.InDelta(t, 3, Float64(int64(3)), 0.0001)
	assert.InDelta(t, 3, Float64(uint32(3)), 0.0001)
	assert.InDelta(t, 3, Float64(uint64(3)), 0.0001)
	assert.InDelta(t, 3.5, Float64("3.5"), 0.0001)

	_, err := Float64E("foo")
	assert.Error(t, err)
	_, err = Float64E(true)
	assert.Error(t, err, "booleans never convert to numbers")
}

func TestInt64E(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(3), Int64(int32(3)))
	assert.Equal(t, int64(3), Int64(uint64(3)))
	assert.Equal(t, int64(3), Int64(3.9))
	assert.Equal(t, int64(3), Int64("3"))

	_, err := Int64E("3.5.6")
	assert.Error(t, err)
}

func TestBoolE(t *testing.T) {
	t.Parallel()

	for _, raw := range []interface{}{true, "1", "true", "yes", "on", "enabled"} {
		assert.Truef(t, Bool(raw), "%v converts to true", raw)
	}
	for _, raw := range []interface{}{false, "0", "false", "no", "off", "disabled"} {
		assert.Falsef(t, Bool(raw), "%v converts to false", raw)
	}

	_, err := BoolE("maybe")
	assert.Error(t, err)
}

func TestNum2String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3", Num2String(float64(3)), "whole floats lose their decimals")
	assert.Equal(t, "3.14", Num2String(3.14))
	assert.Equal(t, "42", Num2String(int64(42)))
	assert.Equal(t, "42", Num2String(uint64(42)))
	assert.Equal(t, "42", Num2String(uint32(42)))

	str, err := Num2StringE("foo")
	assert.Error(t, err)
	assert.Empty(t, str)
}
