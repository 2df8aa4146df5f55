package timescaledb

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

type fakeRow struct {
	values []interface{}
	err    error
}

func (f *fakeRow) Scan(dest ...interface{}) error {
	if f.err != nil {
		return f.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(f.values[i]))
	}

	return nil
}

type fakeRows struct {
	rows [][]interface{}
	idx  int
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++

	return true
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	row := f.rows[f.idx-1]
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}

	return nil
}

func (f *fakeRows) Err() error { return nil }
func (f *fakeRows) Close()     {}

// fakeDB answers queries by fragment match and records every query issued.
type fakeDB struct {
	t       *testing.T
	results map[string][][]interface{}
	queries []string
}

func (f *fakeDB) lookup(query string) ([][]interface{}, error) {
	f.queries = append(f.queries, query)
	for fragment, rows := range f.results {
		if strings.Contains(query, fragment) {
			return rows, nil
		}
	}

	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (f *fakeDB) QueryRow(_ context.Context, sql string) Row {
	rows, err := f.lookup(sql)
	if err != nil {
		return &fakeRow{err: err}
	}
	if len(rows) == 0 {
		return &fakeRow{err: fmt.Errorf("no rows in result set")}
	}

	return &fakeRow{values: rows[0]}
}

func (f *fakeDB) Query(_ context.Context, sql string) (Rows, error) {
	rows, err := f.lookup(sql)
	if err != nil {
		return nil, err
	}

	return &fakeRows{rows: rows}, nil
}

func (f *fakeDB) Close(_ context.Context) error { return nil }

func (f *fakeDB) queryCount(fragment string) int {
	count := 0
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			count++
		}
	}

	return count
}

func newTestResource(t *testing.T, command string, db *fakeDB, connect dbConnector) *Resource {
	t.Helper()
	nagios.SetLogLevel("off")

	check, ok := availableChecks[command]
	require.True(t, ok, "check %s exists", command)

	return &Resource{
		command:   command,
		check:     check,
		conn:      db,
		connectDB: connect,
		opts:      &Options{},
		log:       nagios.Logger(),
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	nagios.SetLogLevel("off")

	_, err := NewResource(context.Background(), "bogus", &Options{}, nagios.Logger())
	require.Error(t, err)

	checkErr := &nagios.CheckError{}
	assert.ErrorAs(t, err, &checkErr)
}

func TestCheckExtension(t *testing.T) {
	t.Parallel()

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_extension": {{"2.14.2"}},
	}}
	res := newTestResource(t, "extension", db, nil)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, true, metrics[0].Value)
	assert.Contains(t, metrics[0].Hint, "2.14.2")
}

func TestCheckExtensionNotInstalled(t *testing.T) {
	t.Parallel()

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_extension": {},
	}}
	res := newTestResource(t, "extension", db, nil)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err, "missing extension is a check outcome, not an error")
	require.Len(t, metrics, 1)
	assert.Equal(t, false, metrics[0].Value)
	assert.Contains(t, metrics[0].Hint, "not installed")

	// the failing boolean resolves to CRITICAL, never UNKNOWN
	res = newTestResource(t, "extension", &fakeDB{t: t, results: db.results}, nil)
	result := nagios.NewCheck(res, nagios.Logger(),
		nagios.NewBoolContext("extension", true, nagios.StateCritical)).Run(context.Background())
	assert.Equal(t, nagios.StateCritical, result.State)
}

func TestCheckRecovery(t *testing.T) {
	t.Parallel()

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_is_in_recovery": {{true}},
	}}
	res := newTestResource(t, "recovery", db, nil)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, true, metrics[0].Value)
	assert.Equal(t, "instance is in recovery", metrics[0].Hint)
}

func TestRecoveryMemoized(t *testing.T) {
	t.Parallel()
	nagios.SetLogLevel("off")

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_is_in_recovery": {{false}},
	}}
	res := newTestResource(t, "recovery", db, nil)

	first, err := res.inRecovery(context.Background())
	require.NoError(t, err)
	second, err := res.inRecovery(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, db.queryCount("pg_is_in_recovery"), "recovery state is looked up once per invocation")
}

func TestCheckUptime(t *testing.T) {
	t.Parallel()

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_postmaster_start_time": {{float64(12345.6)}},
	}}
	res := newTestResource(t, "uptime", db, nil)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, int64(12345), metrics[0].Value)
	assert.Equal(t, "s", metrics[0].Unit)
}

func TestCheckConnections(t *testing.T) {
	t.Parallel()

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_stat_activity": {{int64(42)}},
		"pg_settings":      {{"200"}},
	}}
	res := newTestResource(t, "connections", db, nil)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, int64(42), metrics[0].Value)
	require.NotNil(t, metrics[0].Max)
	assert.InDelta(t, 200, *metrics[0].Max, 0.1)
}

func TestCheckConnectionsDefaultMax(t *testing.T) {
	t.Parallel()

	db := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_stat_activity": {{int64(7)}},
		"pg_settings":      {},
	}}
	res := newTestResource(t, "connections", db, nil)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err)
	require.NotNil(t, metrics[0].Max)
	assert.InDelta(t, 1024, *metrics[0].Max, 0.1, "unreported max_connections falls back to 1024")
}

func TestCheckHypertables(t *testing.T) {
	t.Parallel()

	main := &fakeDB{t: t, results: map[string][][]interface{}{
		"pg_database": {{"metrics"}, {"broken"}, {"plain"}},
	}}

	connect := func(_ context.Context, dbname string) (Querier, error) {
		switch dbname {
		case "metrics":
			return &fakeDB{t: t, results: map[string][][]interface{}{
				"pg_extension":                        {{"2.14.2"}},
				"timescaledb_information.hypertables": {{int64(3)}},
			}}, nil
		case "plain":
			return &fakeDB{t: t, results: map[string][][]interface{}{
				"pg_extension": {},
			}}, nil
		}

		return nil, fmt.Errorf("connection refused")
	}

	res := newTestResource(t, "hypertables", main, connect)
	metrics, err := res.Probe(context.Background())
	require.NoError(t, err, "a failing database never aborts the iteration")
	require.Len(t, metrics, 3)

	assert.Equal(t, "metrics", metrics[0].Name)
	assert.Equal(t, int64(3), metrics[0].Value)
	assert.Equal(t, "hypertables", metrics[0].ContextName)

	assert.Equal(t, "broken", metrics[1].Name)
	assert.Equal(t, false, metrics[1].Value)
	assert.Equal(t, "db_reachable", metrics[1].ContextName)
	assert.Contains(t, metrics[1].Hint, "connection refused")

	assert.Equal(t, "plain", metrics[2].Name)
	assert.Equal(t, int64(0), metrics[2].Value, "databases without the extension report zero")
}
