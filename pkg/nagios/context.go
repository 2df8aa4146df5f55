package nagios

import (
	"fmt"

	"github.com/ovh/ovh-nagios-plugins/pkg/convert"
)

// Context evaluates metrics of one name into results. Contexts are looked up
// by the metric's ContextName, a metric without a matching context aborts the
// check.
type Context interface {
	Name() string

	// Evaluate turns a metric into a result. An error means the metric's
	// value type does not fit this context, which is a contract violation
	// between probe and context, not a check outcome.
	Evaluate(metric *Metric) (*Result, error)

	// Performance returns the perfdata token for the metric, false when the
	// metric produces none.
	Performance(metric *Metric) (string, bool)
}

// BoolContext compares a boolean metric against an expected value.
type BoolContext struct {
	name       string
	expected   bool
	onMismatch State
}

// NewBoolContext builds a boolean context. onMismatch is the state reported
// when the value differs from expected, usually StateCritical, downgraded to
// StateWarning for non-paging checks.
func NewBoolContext(name string, expected bool, onMismatch State) *BoolContext {
	return &BoolContext{
		name:       name,
		expected:   expected,
		onMismatch: onMismatch,
	}
}

func (c *BoolContext) Name() string {
	return c.name
}

func (c *BoolContext) Evaluate(metric *Metric) (*Result, error) {
	value, ok := metric.Value.(bool)
	if !ok {
		return nil, fmt.Errorf("context %s expects a boolean metric, got %v (%T)",
			c.name, metric.Value, metric.Value)
	}

	result := &Result{Metric: metric, State: StateOK, Hint: metric.Hint}
	if value != c.expected {
		result.State = c.onMismatch
	}

	return result, nil
}

func (c *BoolContext) Performance(_ *Metric) (string, bool) {
	return "", false
}

// ScalarContext checks a numeric metric against a warning and a critical
// range. Critical is tested first and wins.
type ScalarContext struct {
	name     string
	warning  *Range
	critical *Range
}

// NewScalarContext builds a scalar context from threshold definitions, empty
// definitions leave the corresponding range unset.
func NewScalarContext(name, warning, critical string) (*ScalarContext, error) {
	ctx := &ScalarContext{name: name}

	var err error
	if warning != "" {
		ctx.warning, err = NewRange(warning)
		if err != nil {
			return nil, fmt.Errorf("invalid warning threshold: %s", err.Error())
		}
	}
	if critical != "" {
		ctx.critical, err = NewRange(critical)
		if err != nil {
			return nil, fmt.Errorf("invalid critical threshold: %s", err.Error())
		}
	}

	return ctx, nil
}

func (c *ScalarContext) Name() string {
	return c.name
}

func (c *ScalarContext) Evaluate(metric *Metric) (*Result, error) {
	value, err := convert.Float64E(metric.Value)
	if err != nil {
		return nil, fmt.Errorf("context %s expects a numeric metric: %s", c.name, err.Error())
	}

	switch {
	case c.critical != nil && !c.critical.Contains(value):
		return c.violation(metric, StateCritical, c.critical), nil
	case c.warning != nil && !c.warning.Contains(value):
		return c.violation(metric, StateWarning, c.warning), nil
	}

	return &Result{Metric: metric, State: StateOK, Hint: metric.Hint}, nil
}

func (c *ScalarContext) Performance(metric *Metric) (string, bool) {
	return metric.PerfString(c.warning, c.critical), true
}

func (c *ScalarContext) violation(metric *Metric, state State, rng *Range) *Result {
	return &Result{
		Metric: metric,
		State:  state,
		Hint: fmt.Sprintf("%s is %s%s (outside range %s)",
			metric.Name, metric.ValueString(), metric.Unit, rng.String()),
	}
}

// InvertedScalarContext alerts when the value falls below the thresholds,
// used for quantities that must stay above a floor, uptime being the typical
// case. Bare numeric thresholds are read as floors ("N" means "N:").
type InvertedScalarContext struct {
	ScalarContext
}

func NewInvertedScalarContext(name, warning, critical string) (*InvertedScalarContext, error) {
	ctx := &InvertedScalarContext{ScalarContext{name: name}}

	var err error
	if warning != "" {
		ctx.warning, err = NewFloorRange(warning)
		if err != nil {
			return nil, fmt.Errorf("invalid warning threshold: %s", err.Error())
		}
	}
	if critical != "" {
		ctx.critical, err = NewFloorRange(critical)
		if err != nil {
			return nil, fmt.Errorf("invalid critical threshold: %s", err.Error())
		}
	}

	return ctx, nil
}
