package timescaledb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kdar/factorlog"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// defaultMaxConnections is assumed when the server does not report the
// max_connections setting.
const defaultMaxConnections = int64(1024)

// Row is a single-row result.
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows is the tabular result subset the checks consume.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Querier is the narrow slice of the PostgreSQL client used by the checks.
type Querier interface {
	QueryRow(ctx context.Context, sql string) Row
	Query(ctx context.Context, sql string) (Rows, error)
	Close(ctx context.Context) error
}

// dbConnector opens a short-lived connection to another database of the same
// instance, used by the per-database iteration. Swapped out in tests.
type dbConnector func(ctx context.Context, dbname string) (Querier, error)

// Options carries connection parameters for one plugin invocation.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Timeout  time.Duration
}

type checkFunc func(ctx context.Context, res *Resource) ([]*nagios.Metric, error)

var availableChecks = map[string]checkFunc{
	"extension":   checkExtension,
	"recovery":    checkRecovery,
	"uptime":      checkUptime,
	"connections": checkConnections,
	"hypertables": checkHypertables,
}

// Resource probes one PostgreSQL/TimescaleDB instance. Extension and
// recovery lookups are memoized for the lifetime of the resource, which is a
// single plugin invocation.
type Resource struct {
	command   string
	check     checkFunc
	conn      Querier
	connectDB dbConnector
	opts      *Options
	log       *factorlog.FactorLog

	extVersion *string
	recovery   *bool
}

// NewResource connects to the instance and resolves the check routine,
// failing fast on unknown commands or connection problems.
func NewResource(ctx context.Context, command string, opts *Options, log *factorlog.FactorLog) (*Resource, error) {
	check, ok := availableChecks[command]
	if !ok {
		return nil, nagios.CheckErrorf("no check routine for command %s", command)
	}

	conn, err := connect(ctx, opts, opts.DBName)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to postgres at %s:%d: %s", opts.Host, opts.Port, err.Error())
	}
	log.Debugf("connected to postgres at %s:%d database %s", opts.Host, opts.Port, opts.DBName)

	return &Resource{
		command: command,
		check:   check,
		conn:    conn,
		connectDB: func(ctx context.Context, dbname string) (Querier, error) {
			return connect(ctx, opts, dbname)
		},
		opts: opts,
		log:  log,
	}, nil
}

func (r *Resource) Name() string {
	return "timescaledb " + r.command
}

// Probe runs the selected check routine.
func (r *Resource) Probe(ctx context.Context) ([]*nagios.Metric, error) {
	return r.check(ctx, r)
}

// Close releases the connection, called from the command layer.
func (r *Resource) Close(ctx context.Context) {
	if err := r.conn.Close(ctx); err != nil {
		r.log.Debugf("closing postgres connection: %s", err.Error())
	}
}

// extensionVersion returns the installed timescaledb version, empty when the
// extension is absent. The lookup runs once per invocation.
func (r *Resource) extensionVersion(ctx context.Context) (string, error) {
	if r.extVersion != nil {
		return *r.extVersion, nil
	}

	version, _, err := queryExtensionVersion(ctx, r.conn)
	if err != nil {
		return "", err
	}
	r.extVersion = &version

	return version, nil
}

// inRecovery returns whether the instance is a recovering standby, looked up
// once per invocation.
func (r *Resource) inRecovery(ctx context.Context) (bool, error) {
	if r.recovery != nil {
		return *r.recovery, nil
	}

	var recovery bool
	if err := r.conn.QueryRow(ctx, "SELECT pg_is_in_recovery()").Scan(&recovery); err != nil {
		return false, fmt.Errorf("cannot read recovery state: %s", err.Error())
	}
	r.recovery = &recovery

	return recovery, nil
}

func queryExtensionVersion(ctx context.Context, conn Querier) (version string, installed bool, err error) {
	rows, err := conn.Query(ctx, "SELECT extversion FROM pg_extension WHERE extname = 'timescaledb'")
	if err != nil {
		return "", false, fmt.Errorf("cannot read pg_extension: %s", err.Error())
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, fmt.Errorf("cannot read pg_extension: %s", err.Error())
		}

		return "", false, nil
	}
	if err := rows.Scan(&version); err != nil {
		return "", false, fmt.Errorf("cannot scan pg_extension row: %s", err.Error())
	}

	return version, true, nil
}

func connect(ctx context.Context, opts *Options, dbname string) (Querier, error) {
	parts := []string{
		fmt.Sprintf("host=%s", opts.Host),
		fmt.Sprintf("port=%d", opts.Port),
		fmt.Sprintf("dbname=%s", dbname),
		fmt.Sprintf("connect_timeout=%d", int(opts.Timeout.Seconds())),
	}
	if opts.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", opts.User))
	}
	if opts.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", opts.Password))
	}
	if opts.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", opts.SSLMode))
	}

	conn, err := pgx.Connect(ctx, strings.Join(parts, " "))
	if err != nil {
		return nil, err
	}

	return &pgxQuerier{conn: conn}, nil
}

// pgxQuerier adapts a pgx connection to the Querier interface.
type pgxQuerier struct {
	conn *pgx.Conn
}

func (q *pgxQuerier) QueryRow(ctx context.Context, sql string) Row {
	return q.conn.QueryRow(ctx, sql)
}

func (q *pgxQuerier) Query(ctx context.Context, sql string) (Rows, error) {
	rows, err := q.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (q *pgxQuerier) Close(ctx context.Context) error {
	return q.conn.Close(ctx)
}
