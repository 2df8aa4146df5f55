package mongodb

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/kdar/factorlog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// defaultMaxConnections is assumed when serverStatus does not report
// connection numbers.
const defaultMaxConnections = int64(1024)

// Runner is the narrow slice of the MongoDB client used by the checks.
type Runner interface {
	RunCommand(ctx context.Context, db string, cmd bson.D) (bson.M, error)

	// FindOne returns the matching document, or nil without error when no
	// document matches.
	FindOne(ctx context.Context, db, coll string, filter bson.D) (bson.M, error)

	ReplaceOne(ctx context.Context, db, coll string, filter bson.D, doc bson.M, upsert bool) error
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// memberDialer checks reachability of a single replica set member. Swapped
// out in tests.
type memberDialer func(ctx context.Context, member string, opts *Options) error

// Options carries connection parameters for one plugin invocation.
type Options struct {
	Host          string
	Port          int
	User          string
	Password      string
	AuthDB        string
	TLS           bool
	TLSSkipVerify bool
	Timeout       time.Duration

	// write canary settings
	CanaryDatabase   string
	CanaryCollection string
	CreateCanary     bool
}

type checkFunc func(ctx context.Context, res *Resource) ([]*nagios.Metric, error)

var availableChecks = map[string]checkFunc{
	"connect":      checkConnect,
	"uptime":       checkUptime,
	"connections":  checkConnections,
	"cluster":      checkCluster,
	"write_canary": checkWriteCanary,
}

// Resource probes one MongoDB instance or replica set.
type Resource struct {
	command string
	check   checkFunc
	client  Runner
	dial    memberDialer
	opts    *Options
	log     *factorlog.FactorLog
}

// NewResource connects to the instance and resolves the check routine,
// failing fast on unknown commands or connection problems.
func NewResource(ctx context.Context, command string, opts *Options, log *factorlog.FactorLog) (*Resource, error) {
	check, ok := availableChecks[command]
	if !ok {
		return nil, nagios.CheckErrorf("no check routine for command %s", command)
	}

	client, err := connect(ctx, net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)), opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb at %s:%d: %s", opts.Host, opts.Port, err.Error())
	}
	log.Debugf("connected to mongodb at %s:%d", opts.Host, opts.Port)

	return &Resource{
		command: command,
		check:   check,
		client:  client,
		dial:    dialMember,
		opts:    opts,
		log:     log,
	}, nil
}

func (r *Resource) Name() string {
	return "mongodb " + r.command
}

// Probe runs the selected check routine.
func (r *Resource) Probe(ctx context.Context) ([]*nagios.Metric, error) {
	return r.check(ctx, r)
}

// Close releases the connection, called from the command layer.
func (r *Resource) Close(ctx context.Context) {
	if err := r.client.Disconnect(ctx); err != nil {
		r.log.Debugf("closing mongodb connection: %s", err.Error())
	}
}

func connect(ctx context.Context, addr string, opts *Options) (Runner, error) {
	clientOpts := options.Client().
		ApplyURI("mongodb://" + addr).
		SetDirect(true).
		SetConnectTimeout(opts.Timeout).
		SetServerSelectionTimeout(opts.Timeout)

	if opts.User != "" {
		authDB := opts.AuthDB
		if authDB == "" {
			authDB = "admin"
		}
		clientOpts.SetAuth(options.Credential{
			Username:   opts.User,
			Password:   opts.Password,
			AuthSource: authDB,
		})
	}

	if opts.TLS {
		clientOpts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: opts.TLSSkipVerify, //nolint:gosec // operator opt-in
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)

		return nil, err
	}

	return &clientRunner{client: client}, nil
}

// dialMember opens a short-lived direct connection to a replica set member
// and pings it.
func dialMember(ctx context.Context, member string, opts *Options) error {
	client, err := connect(ctx, member, opts)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	return client.Ping(ctx)
}

// clientRunner adapts the mongo driver client to the Runner interface.
type clientRunner struct {
	client *mongo.Client
}

func (c *clientRunner) RunCommand(ctx context.Context, db string, cmd bson.D) (bson.M, error) {
	var doc bson.M
	if err := c.client.Database(db).RunCommand(ctx, cmd).Decode(&doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (c *clientRunner) FindOne(ctx context.Context, db, coll string, filter bson.D) (bson.M, error) {
	var doc bson.M
	err := c.client.Database(db).Collection(coll).FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (c *clientRunner) ReplaceOne(ctx context.Context, db, coll string, filter bson.D, doc bson.M, upsert bool) error {
	_, err := c.client.Database(db).Collection(coll).
		ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(upsert))

	return err
}

func (c *clientRunner) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *clientRunner) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
