package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/kdar/factorlog"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// defaultMaxConnections is assumed when the server does not report the
// max_connections setting.
const defaultMaxConnections = int64(1024)

// Rows is the tabular result subset the checks consume.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Querier is the narrow slice of the native ClickHouse client used by the
// checks, kept small so tests can substitute it.
type Querier interface {
	Query(ctx context.Context, query string) (Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options carries connection parameters for one plugin invocation.
type Options struct {
	Host          string
	Port          int
	Database      string
	User          string
	Password      string
	TLS           bool
	TLSSkipVerify bool
	Timeout       time.Duration
}

type checkFunc func(ctx context.Context, res *Resource) ([]*nagios.Metric, error)

// availableChecks maps the command name given on the command line to its
// probe routine. Resolved once when the resource is built.
var availableChecks = map[string]checkFunc{
	"ping":        checkPing,
	"uptime":      checkUptime,
	"connections": checkConnections,
	"query_rate":  checkQueryRate,
	"replication": checkReplication,
}

// Resource probes one ClickHouse instance. The connection is opened when the
// resource is constructed and lives until process exit.
type Resource struct {
	command   string
	check     checkFunc
	conn      Querier
	log       *factorlog.FactorLog
	rateSleep time.Duration
}

// NewResource connects to the instance and resolves the check routine. It
// fails fast on an unknown command, an unreachable target or bad
// credentials, there are no retries.
func NewResource(ctx context.Context, command string, opts *Options, log *factorlog.FactorLog) (*Resource, error) {
	check, ok := availableChecks[command]
	if !ok {
		return nil, nagios.CheckErrorf("no check routine for command %s", command)
	}

	conn, err := connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to clickhouse at %s:%d: %s", opts.Host, opts.Port, err.Error())
	}
	log.Debugf("connected to clickhouse at %s:%d", opts.Host, opts.Port)

	return &Resource{
		command:   command,
		check:     check,
		conn:      conn,
		log:       log,
		rateSleep: time.Second,
	}, nil
}

func (r *Resource) Name() string {
	return "clickhouse " + r.command
}

// Probe runs the selected check routine.
func (r *Resource) Probe(ctx context.Context) ([]*nagios.Metric, error) {
	return r.check(ctx, r)
}

// Close releases the connection, called from the command layer.
func (r *Resource) Close() {
	if err := r.conn.Close(); err != nil {
		r.log.Debugf("closing clickhouse connection: %s", err.Error())
	}
}

func connect(ctx context.Context, opts *Options) (Querier, error) {
	var tlsConf *tls.Config
	if opts.TLS {
		tlsConf = &tls.Config{
			InsecureSkipVerify: opts.TLSSkipVerify, //nolint:gosec // operator opt-in
		}
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		TLS:         tlsConf,
		DialTimeout: opts.Timeout,
		ReadTimeout: opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}

	return &nativeQuerier{conn: conn}, nil
}

// nativeQuerier adapts the clickhouse-go native connection to the Querier
// interface.
type nativeQuerier struct {
	conn clickhouse.Conn
}

func (q *nativeQuerier) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := q.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (q *nativeQuerier) Ping(ctx context.Context) error {
	return q.conn.Ping(ctx)
}

func (q *nativeQuerier) Close() error {
	return q.conn.Close()
}
