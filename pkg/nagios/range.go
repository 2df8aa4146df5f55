package nagios

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Range implements the threshold format from
// https://www.monitoring-plugins.org/doc/guidelines.html#THRESHOLDFORMAT
//
// A value is OK when it lies inside the range (or outside, for the inverted
// "@low:high" form).
type Range struct {
	input   string
	lower   float64
	upper   float64
	outside bool
}

var (
	reDigit          = `(-?\d+(\.\d+)?)`
	reZeroToX        = regexp.MustCompile(fmt.Sprintf(`^%s$`, reDigit))
	reXToInf         = regexp.MustCompile(fmt.Sprintf(`^%s:$`, reDigit))
	reMinusInfToX    = regexp.MustCompile(fmt.Sprintf(`^~:%s$`, reDigit))
	reLowToHigh      = regexp.MustCompile(fmt.Sprintf(`^(@?)%s:%s$`, reDigit, reDigit))
	reBareNumber     = regexp.MustCompile(fmt.Sprintf(`^%s$`, reDigit))
	negativeInfinity = float64(math.MinInt64)

	// ErrLowAboveHigh is returned when the low bound exceeds the high bound.
	ErrLowAboveHigh = errors.New("range low bound is bigger than the high bound")
)

// NewRange parses a threshold definition into a Range.
//
// A definition of exactly "0" is rewritten to "0:" (zero or more) before
// parsing. The literal range {0} would flag every non-zero value, which is
// never what a zero threshold means in practice, so an unset/zero threshold
// keeps matching all non-negative values. This rewrite is authoritative
// behavior, not a bug.
func NewRange(def string) (*Range, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, fmt.Errorf("empty range given")
	}
	if def == "0" {
		def = "0:"
	}

	if m := reZeroToX.FindString(def); m != "" {
		x, err := strconv.ParseFloat(m, 64)
		if err == nil {
			return &Range{input: def, lower: 0, upper: x, outside: true}, nil
		}
	}
	if m := reXToInf.FindStringSubmatch(def); len(m) == 3 {
		x, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &Range{input: def, lower: x, upper: math.MaxFloat64, outside: true}, nil
		}
	}
	if m := reMinusInfToX.FindStringSubmatch(def); len(m) == 3 {
		x, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &Range{input: def, lower: negativeInfinity, upper: x, outside: true}, nil
		}
	}
	if m := reLowToHigh.FindStringSubmatch(def); len(m) == 6 {
		low, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("range parse error: %s", err.Error())
		}
		high, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return nil, fmt.Errorf("range parse error: %s", err.Error())
		}
		if low > high {
			return nil, ErrLowAboveHigh
		}

		return &Range{input: def, lower: low, upper: high, outside: m[1] != "@"}, nil
	}

	return nil, fmt.Errorf("range syntax not supported: %s", def)
}

// NewFloorRange parses a threshold for metrics where low values are the
// unhealthy ones (uptime style). A bare number N becomes the range "N:", so
// the check alerts when the value drops below N. Explicit ranges are taken
// as given.
func NewFloorRange(def string) (*Range, error) {
	def = strings.TrimSpace(def)
	if reBareNumber.MatchString(def) {
		def += ":"
	}

	return NewRange(def)
}

// Contains returns true when the value is acceptable for this range.
func (r *Range) Contains(value float64) bool {
	if r.outside {
		return value >= r.lower && value <= r.upper
	}

	return value < r.lower || value > r.upper
}

// String returns the original (possibly rewritten) definition, which is also
// the form used in performance data.
func (r *Range) String() string {
	return r.input
}
