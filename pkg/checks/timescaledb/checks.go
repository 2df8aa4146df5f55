package timescaledb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// checkExtension reports whether the timescaledb extension is installed in
// the connected database. A missing extension is an expected state of the
// target, reported as a failing boolean, never as UNKNOWN.
func checkExtension(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	version, err := res.extensionVersion(ctx)
	if err != nil {
		return nil, err
	}

	installed := version != ""
	hint := fmt.Sprintf("timescaledb %s is installed", version)
	if !installed {
		hint = "timescaledb is not installed"
	}

	return []*nagios.Metric{{
		Name:        "timescaledb",
		Value:       installed,
		ContextName: "extension",
		Hint:        hint,
	}}, nil
}

// checkRecovery reports whether the instance is a recovering standby.
func checkRecovery(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	recovery, err := res.inRecovery(ctx)
	if err != nil {
		return nil, err
	}

	hint := ""
	if recovery {
		hint = "instance is in recovery"
	}

	return []*nagios.Metric{{
		Name:        "recovery",
		Value:       recovery,
		ContextName: "recovery",
		Hint:        hint,
	}}, nil
}

// checkUptime reports seconds since the postmaster started.
func checkUptime(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	var uptime float64
	err := res.conn.QueryRow(ctx,
		"SELECT EXTRACT(EPOCH FROM (now() - pg_postmaster_start_time()))::float8").Scan(&uptime)
	if err != nil {
		return nil, fmt.Errorf("cannot read uptime: %s", err.Error())
	}

	return []*nagios.Metric{{
		Name:        "uptime",
		Value:       int64(uptime),
		Unit:        "s",
		ContextName: "uptime",
	}}, nil
}

// checkConnections compares the backend count against max_connections,
// falling back to a 1024 ceiling when the setting is not reported.
func checkConnections(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	var current int64
	err := res.conn.QueryRow(ctx, "SELECT count(*) FROM pg_stat_activity").Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("cannot read pg_stat_activity: %s", err.Error())
	}

	maxConns := defaultMaxConnections
	rows, err := res.conn.Query(ctx, "SELECT setting FROM pg_settings WHERE name = 'max_connections'")
	if err != nil {
		return nil, fmt.Errorf("cannot read pg_settings: %s", err.Error())
	}
	defer rows.Close()

	if rows.Next() {
		var setting string
		if err := rows.Scan(&setting); err != nil {
			return nil, fmt.Errorf("cannot scan pg_settings row: %s", err.Error())
		}
		parsed, perr := strconv.ParseInt(setting, 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("unexpected max_connections value %q", setting)
		}
		maxConns = parsed
	} else {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("cannot read pg_settings: %s", err.Error())
		}
		res.log.Debugf("max_connections not reported, assuming %d", defaultMaxConnections)
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

// checkHypertables iterates over every connectable database and counts its
// hypertables. A database that cannot be reached produces its own failing
// metric instead of aborting the iteration, databases without the extension
// report an informational zero.
func checkHypertables(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	databases, err := listDatabases(ctx, res.conn)
	if err != nil {
		return nil, err
	}

	metrics := make([]*nagios.Metric, 0, len(databases))
	for _, dbname := range databases {
		count, err := countHypertables(ctx, res, dbname)
		if err != nil {
			res.log.Debugf("database %s: %s", dbname, err.Error())
			metrics = append(metrics, &nagios.Metric{
				Name:        dbname,
				Value:       false,
				ContextName: "db_reachable",
				Hint:        fmt.Sprintf("database %s failed: %s", dbname, err.Error()),
			})

			continue
		}

		metrics = append(metrics, &nagios.Metric{
			Name:        dbname,
			Value:       count,
			ContextName: "hypertables",
		})
	}

	return metrics, nil
}

func countHypertables(ctx context.Context, res *Resource, dbname string) (int64, error) {
	conn, err := res.connectDB(ctx, dbname)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close(ctx) }()

	_, installed, err := queryExtensionVersion(ctx, conn)
	if err != nil {
		return 0, err
	}
	if !installed {
		return 0, nil
	}

	var count int64
	err = conn.QueryRow(ctx, "SELECT count(*) FROM timescaledb_information.hypertables").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("cannot count hypertables: %s", err.Error())
	}

	return count, nil
}

func listDatabases(ctx context.Context, conn Querier) ([]string, error) {
	rows, err := conn.Query(ctx,
		"SELECT datname FROM pg_database WHERE datallowconn AND NOT datistemplate ORDER BY datname")
	if err != nil {
		return nil, fmt.Errorf("cannot list databases: %s", err.Error())
	}
	defer rows.Close()

	databases := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("cannot scan pg_database row: %s", err.Error())
		}
		databases = append(databases, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot list databases: %s", err.Error())
	}

	return databases, nil
}
