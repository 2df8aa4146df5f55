package nagios

import "fmt"

// Result is the outcome of evaluating one metric against its context.
type Result struct {
	Metric *Metric
	State  State
	Hint   string
}

func (r *Result) String() string {
	if r.Hint != "" {
		return r.Hint
	}

	return fmt.Sprintf("%s is %s%s", r.Metric.Name, r.Metric.ValueString(), r.Metric.Unit)
}

// Results is the collection of all evaluated metrics of one check run.
type Results []*Result

// WorstState returns the most severe state among all results, StateOK when
// there are none.
func (results Results) WorstState() State {
	worst := StateOK
	for _, res := range results {
		worst = WorstState(worst, res.State)
	}

	return worst
}

// Problems returns only the violating results.
func (results Results) Problems() Results {
	problems := make(Results, 0)
	for _, res := range results {
		if res.State > StateOK {
			problems = append(problems, res)
		}
	}

	return problems
}
