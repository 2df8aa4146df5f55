package clickhouse

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// checkPing verifies the instance answers a trivial query. The failure text
// travels with the metric so the summary can show it.
func checkPing(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	alive := true
	hint := ""

	var one uint8
	err := res.queryRow(ctx, "SELECT 1", &one)
	if err != nil || one != 1 {
		alive = false
		hint = "clickhouse does not answer queries"
		if err != nil {
			hint = fmt.Sprintf("clickhouse does not answer queries: %s", err.Error())
		}
	}

	return []*nagios.Metric{{
		Name:        "ping",
		Value:       alive,
		ContextName: "ping",
		Hint:        hint,
	}}, nil
}

// checkUptime reports seconds since the server started.
func checkUptime(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	var uptime uint32
	if err := res.queryRow(ctx, "SELECT uptime()", &uptime); err != nil {
		return nil, fmt.Errorf("cannot read uptime: %s", err.Error())
	}

	return []*nagios.Metric{{
		Name:        "uptime",
		Value:       int64(uptime),
		Unit:        "s",
		ContextName: "uptime",
	}}, nil
}

// checkConnections compares the open client connections against the server's
// max_connections setting. Instances configured without the setting fall
// back to the compiled-in server default of 1024.
func checkConnections(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	var current int64
	err := res.queryRow(ctx,
		"SELECT sum(value) FROM system.metrics WHERE metric IN ('TCPConnection', 'HTTPConnection', 'MySQLConnection', 'InterserverConnection')",
		&current)
	if err != nil {
		return nil, fmt.Errorf("cannot read connection metrics: %s", err.Error())
	}

	maxConns := defaultMaxConnections
	var setting string
	err = res.queryRow(ctx, "SELECT value FROM system.settings WHERE name = 'max_connections'", &setting)
	switch {
	case err == errNoRows:
		res.log.Debugf("max_connections not reported, assuming %d", defaultMaxConnections)
	case err != nil:
		return nil, fmt.Errorf("cannot read max_connections: %s", err.Error())
	default:
		parsed, perr := strconv.ParseInt(setting, 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("unexpected max_connections value %q", setting)
		}
		maxConns = parsed
	}

	minVal := float64(0)
	maxVal := float64(maxConns)

	return []*nagios.Metric{{
		Name:        "connections",
		Value:       current,
		ContextName: "connections",
		Min:         &minVal,
		Max:         &maxVal,
	}}, nil
}

// checkQueryRate samples the cumulative query counter twice, one second
// apart, and reports the delta. A single sample pair can be noisy, that is
// accepted: the monitoring system smooths over scheduled runs.
func checkQueryRate(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	before, err := res.queryCounter(ctx, "Query")
	if err != nil {
		return nil, err
	}

	time.Sleep(res.rateSleep)

	after, err := res.queryCounter(ctx, "Query")
	if err != nil {
		return nil, err
	}

	return []*nagios.Metric{{
		Name:        "query_rate",
		Value:       int64(after) - int64(before),
		ContextName: "query_rate",
	}}, nil
}

// checkReplication reports the absolute delay of every replicated table plus
// a read-only flag per table. An instance without replicated tables yields
// an informational metric instead of an error.
func checkReplication(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	rows, err := res.conn.Query(ctx,
		"SELECT database, table, is_readonly, absolute_delay FROM system.replicas")
	if err != nil {
		return nil, fmt.Errorf("cannot read system.replicas: %s", err.Error())
	}
	defer func() { _ = rows.Close() }()

	metrics := make([]*nagios.Metric, 0)
	for rows.Next() {
		var (
			database string
			table    string
			readonly uint8
			delay    uint64
		)
		if err := rows.Scan(&database, &table, &readonly, &delay); err != nil {
			return nil, fmt.Errorf("cannot scan system.replicas row: %s", err.Error())
		}

		name := database + "." + table
		metrics = append(metrics,
			&nagios.Metric{
				Name:        name,
				Value:       int64(delay),
				Unit:        "s",
				ContextName: "replica_delay",
			},
			&nagios.Metric{
				Name:        name + " read_only",
				Value:       readonly != 0,
				ContextName: "read_only",
				Hint:        hintIf(readonly != 0, fmt.Sprintf("replica %s is read only", name)),
			},
		)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read system.replicas: %s", err.Error())
	}

	if len(metrics) == 0 {
		// no replicated tables is a valid state, not a failure
		metrics = append(metrics, &nagios.Metric{
			Name:        "replication_configured",
			Value:       false,
			ContextName: "replication_configured",
		})
	}

	return metrics, nil
}

func hintIf(cond bool, hint string) string {
	if cond {
		return hint
	}

	return ""
}

// errNoRows marks an empty result set for single-row queries.
var errNoRows = fmt.Errorf("query returned no rows")

// queryRow runs a query expected to return at most one row with one column.
func (r *Resource) queryRow(ctx context.Context, query string, dest interface{}) error {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}

		return errNoRows
	}

	return rows.Scan(dest)
}

// queryCounter reads one cumulative counter from system.events, counters
// that never fired are absent and read as zero.
func (r *Resource) queryCounter(ctx context.Context, event string) (uint64, error) {
	var value uint64
	err := r.queryRow(ctx, fmt.Sprintf("SELECT value FROM system.events WHERE event = '%s'", event), &value)
	if err == errNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cannot read %s counter: %s", event, err.Error())
	}

	return value, nil
}
