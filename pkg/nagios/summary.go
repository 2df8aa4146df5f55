package nagios

import (
	"sort"
	"strings"
)

// Summary renders the collected results into the single line printed to
// stdout. Rendered fragments are sorted lexicographically before joining, so
// two runs over the same result set always produce byte-identical output.
type Summary struct{}

// Ok renders an all-OK outcome: every result, sorted, comma-joined.
func (Summary) Ok(results Results) string {
	return joinSorted(results)
}

// Problem renders a non-OK outcome: only the violating results, sorted,
// comma-joined.
func (Summary) Problem(results Results) string {
	return joinSorted(results.Problems())
}

func joinSorted(results Results) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, res.String())
	}
	sort.Strings(parts)

	return strings.Join(parts, ", ")
}
