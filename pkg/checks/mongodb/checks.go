package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ovh/ovh-nagios-plugins/pkg/convert"
	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// canaryID is the fixed _id of the write canary sentinel document.
const canaryID = "canary"

// checkConnect verifies the instance answers a ping.
func checkConnect(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	alive := true
	hint := ""
	if err := res.client.Ping(ctx); err != nil {
		alive = false
		hint = fmt.Sprintf("mongodb does not answer: %s", err.Error())
	}

	return []*nagios.Metric{{
		Name:        "connect",
		Value:       alive,
		ContextName: "connect",
		Hint:        hint,
	}}, nil
}

// checkUptime reports seconds since the server started.
func checkUptime(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	status, err := res.serverStatus(ctx)
	if err != nil {
		return nil, err
	}

	uptime, err := convert.Float64E(status["uptime"])
	if err != nil {
		return nil, fmt.Errorf("serverStatus reports no usable uptime: %s", err.Error())
	}

	return []*nagios.Metric{{
		Name:        "uptime",
		Value:       int64(uptime),
		Unit:        "s",
		ContextName: "uptime",
	}}, nil
}

// checkConnections compares current connections against the server limit
// (current+available). Servers that omit the numbers fall back to a 1024
// ceiling.
func checkConnections(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	status, err := res.serverStatus(ctx)
	if err != nil {
		return nil, err
	}

	current := int64(0)
	maxConns := defaultMaxConnections
	if conns, ok := status["connections"].(bson.M); ok {
		current = convert.Int64(conns["current"])
		if available, err := convert.Int64E(conns["available"]); err == nil {
			maxConns = current + available
		}
	} else {
		res.log.Debugf("serverStatus reports no connection numbers, assuming max %d", defaultMaxConnections)
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

// checkCluster probes every replica set member with a direct connection and
// reports one metric per member. An unreachable member never aborts the
// remaining ones, the summary names exactly which member is down.
func checkCluster(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	status, err := res.client.RunCommand(ctx, "admin", bson.D{{Key: "replSetGetStatus", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("cannot read replica set status: %s", err.Error())
	}

	members, ok := status["members"].(bson.A)
	if !ok || len(members) == 0 {
		return nil, nagios.CheckErrorf("replica set reports no members")
	}

	metrics := make([]*nagios.Metric, 0, len(members))
	for _, raw := range members {
		member, ok := raw.(bson.M)
		if !ok {
			continue
		}
		name, _ := member["name"].(string)
		if name == "" {
			continue
		}

		hint := ""
		reachable := true
		if err := res.dial(ctx, name, res.opts); err != nil {
			reachable = false
			hint = fmt.Sprintf("member %s is unreachable: %s", name, err.Error())
			res.log.Debugf("dial %s: %s", name, err.Error())
		}

		metrics = append(metrics, &nagios.Metric{
			Name:        name,
			Value:       reachable,
			ContextName: "members",
			Hint:        hint,
		})
	}

	return metrics, nil
}

// checkWriteCanary rewrites the sentinel document and reports the write
// round-trip time. The sentinel must exist beforehand unless --create allows
// provisioning it on the fly.
func checkWriteCanary(ctx context.Context, res *Resource) ([]*nagios.Metric, error) {
	opts := res.opts
	filter := bson.D{{Key: "_id", Value: canaryID}}

	sentinel, err := res.client.FindOne(ctx, opts.CanaryDatabase, opts.CanaryCollection, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot read canary document: %s", err.Error())
	}
	if sentinel == nil && !opts.CreateCanary {
		return nil, nagios.CheckErrorf(
			"canary document %s.%s/%s does not exist, provision it or pass --create",
			opts.CanaryDatabase, opts.CanaryCollection, canaryID)
	}

	doc := bson.M{"_id": canaryID, "ts": time.Now().UTC()}
	start := time.Now()
	err = res.client.ReplaceOne(ctx, opts.CanaryDatabase, opts.CanaryCollection, filter, doc, true)
	elapsed := time.Since(start)

	written := err == nil
	hint := ""
	if err != nil {
		hint = fmt.Sprintf("canary write failed: %s", err.Error())
	}

	return []*nagios.Metric{
		{
			Name:        "canary_write_time",
			Value:       elapsed.Seconds(),
			Unit:        "s",
			ContextName: "canary_write_time",
		},
		{
			Name:        "canary_written",
			Value:       written,
			ContextName: "canary_written",
			Hint:        hint,
		},
	}, nil
}

func (r *Resource) serverStatus(ctx context.Context) (bson.M, error) {
	status, err := r.client.RunCommand(ctx, "admin", bson.D{{Key: "serverStatus", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("cannot read serverStatus: %s", err.Error())
	}

	return status, nil
}
