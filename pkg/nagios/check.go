package nagios

import (
	"context"
	"fmt"
	"strings"

	"github.com/kdar/factorlog"
)

// Resource is a probe against one monitored system. Implementations connect
// eagerly in their constructor and fail fast, Probe only gathers metrics.
type Resource interface {
	Name() string
	Probe(ctx context.Context) ([]*Metric, error)
}

// CheckResult is the final outcome of a check run.
type CheckResult struct {
	State    State
	Output   string
	Perfdata []string
}

// BuildPluginOutput assembles the plugin output line including perfdata.
func (cr *CheckResult) BuildPluginOutput() string {
	output := cr.Output
	if len(cr.Perfdata) > 0 {
		output += " |" + strings.Join(cr.Perfdata, " ")
	}

	return output
}

// Check drives one plugin run: probe the resource, evaluate every metric
// against its context, aggregate states and render the summary.
type Check struct {
	resource Resource
	contexts map[string]Context
	summary  Summary
	log      *factorlog.FactorLog
}

// NewCheck builds a check for the given resource.
func NewCheck(resource Resource, log *factorlog.FactorLog, contexts ...Context) *Check {
	check := &Check{
		resource: resource,
		contexts: make(map[string]Context),
		log:      log,
	}
	for _, ctx := range contexts {
		check.AddContext(ctx)
	}

	return check
}

// AddContext registers an evaluation context, replacing any previous context
// of the same name.
func (c *Check) AddContext(ctx Context) {
	c.contexts[ctx.Name()] = ctx
}

// Run executes the probe and evaluates its metrics. Errors from the probe or
// from context lookup/evaluation never escape, they degrade the run to an
// UNKNOWN result as required by the plugin contract.
func (c *Check) Run(ctx context.Context) *CheckResult {
	metrics, err := c.resource.Probe(ctx)
	if err != nil {
		c.log.Debugf("probe %s failed: %s", c.resource.Name(), err.Error())

		return c.unknown(err)
	}

	results := make(Results, 0, len(metrics))
	perfdata := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		evalCtx, ok := c.contexts[metric.ContextName]
		if !ok {
			return c.unknown(fmt.Errorf("metric %s has no context named %s", metric.Name, metric.ContextName))
		}

		result, err := evalCtx.Evaluate(metric)
		if err != nil {
			return c.unknown(err)
		}
		results = append(results, result)
		c.log.Tracef("metric %s=%s -> %s", metric.Name, metric.ValueString(), result.State.String())

		if token, ok := evalCtx.Performance(metric); ok {
			perfdata = append(perfdata, token)
		}
	}

	state := results.WorstState()
	summary := c.summary.Ok(results)
	if state > StateOK {
		summary = c.summary.Problem(results)
	}

	return &CheckResult{
		State:    state,
		Output:   fmt.Sprintf("%s - %s", state.String(), summary),
		Perfdata: perfdata,
	}
}

func (c *Check) unknown(err error) *CheckResult {
	return &CheckResult{
		State:  StateUnknown,
		Output: fmt.Sprintf("%s - %s", StateUnknown.String(), err.Error()),
	}
}
