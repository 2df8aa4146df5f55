package nagios

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ovh/ovh-nagios-plugins/pkg/convert"
)

// Metric is a single named value produced by a resource probe. The value is
// either a bool or a number, ContextName selects the evaluation context it
// belongs to. Metrics are created once and never modified afterwards.
type Metric struct {
	Name        string
	Value       interface{}
	Unit        string
	ContextName string
	Hint        string // extra detail shown instead of the plain value, e.g. a member error
	Min         *float64
	Max         *float64
}

// PerfString builds the performance data token for this metric:
// 'name'=value[unit];warn;crit;min;max with empty trailing fields stripped.
func (m *Metric) PerfString(warning, critical *Range) string {
	var res bytes.Buffer

	res.WriteString(fmt.Sprintf("'%s'=%s%s", m.Name, convert.Num2String(m.Value), m.Unit))

	res.WriteString(";")
	if warning != nil {
		res.WriteString(warning.String())
	}

	res.WriteString(";")
	if critical != nil {
		res.WriteString(critical.String())
	}

	res.WriteString(";")
	if m.Min != nil {
		res.WriteString(strconv.FormatFloat(*m.Min, 'f', -1, 64))
	}

	res.WriteString(";")
	if m.Max != nil {
		res.WriteString(strconv.FormatFloat(*m.Max, 'f', -1, 64))
	}

	resStr := res.String()
	for strings.HasSuffix(resStr, ";") {
		resStr = strings.TrimSuffix(resStr, ";")
	}

	return resStr
}

// ValueString returns the rendered metric value, booleans become true/false.
func (m *Metric) ValueString() string {
	if b, ok := m.Value.(bool); ok {
		return strconv.FormatBool(b)
	}

	return convert.Num2String(m.Value)
}
