// Command lwwdemo is a runnable illustration of the crdt package: it
// builds two nodes from a pair of YAML config files, has them diverge
// locally, syncs them both ways with crdt.SyncNodes, and prints the
// converged state. It is not a server and owns no transport or storage of
// its own.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/guusw/crdt-lite/config"
	"github.com/guusw/crdt-lite/crdt"
	"github.com/guusw/crdt-lite/metrics"
	"github.com/guusw/crdt-lite/telemetry"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	nodeAPath := flag.String("node-a", "", "config file for node A")
	nodeBPath := flag.String("node-b", "", "config file for node B")
	flag.Parse()

	logger, err := telemetry.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *nodeAPath == "" || *nodeBPath == "" {
		logger.Fatal("usage: lwwdemo -node-a=a.yaml -node-b=b.yaml")
	}

	cfgA, err := config.Load(*nodeAPath)
	if err != nil {
		logger.Fatalw("loading node A config", "err", err)
	}
	cfgB, err := config.Load(*nodeBPath)
	if err != nil {
		logger.Fatalw("loading node B config", "err", err)
	}

	reg := prometheus.NewRegistry()
	byID := map[uint64]*config.Document{cfgA.NodeID: cfgA, cfgB.NodeID: cfgB}
	built := make(map[uint64]*crdt.Replica[string, string], 2)
	a := resolveReplica(cfgA, byID, built, logger, reg)
	b := resolveReplica(cfgB, byID, built, logger, reg)

	a.InsertOrUpdate("user:1", map[string]string{"name": "Ada", "email": "ada@example.com"})
	b.InsertOrUpdate("user:2", map[string]string{"name": "Linus"})
	a.InsertOrUpdate("user:2", map[string]string{"name": "Linus T."})

	var sinceAtoB, sinceBtoA uint64
	crdt.SyncNodes(a, b, &sinceAtoB)
	crdt.SyncNodes(b, a, &sinceBtoA)
	crdt.SyncNodes(a, b, &sinceAtoB)

	logger.Infow("converged state", "node_a_clock", a.GetClock(), "node_b_clock", b.GetClock())
	printData("node A", a.GetData())
	printData("node B", b.GetData())
}

// resolveReplica builds cfg's replica, first resolving (and caching) its
// parent_of target if one is named, so a child config can appear before its
// parent in the file list.
func resolveReplica(cfg *config.Document, byID map[uint64]*config.Document, built map[uint64]*crdt.Replica[string, string], logger *zap.SugaredLogger, reg prometheus.Registerer) *crdt.Replica[string, string] {
	if r, ok := built[cfg.NodeID]; ok {
		return r
	}

	var opts []crdt.Option[string, string]
	opts = append(opts, crdt.WithLogger[string, string](logger))
	if cfg.MetricsEnabled {
		opts = append(opts, crdt.WithMetrics[string, string](metrics.NewSet(reg)))
	}

	var r *crdt.Replica[string, string]
	if cfg.ParentOf != nil {
		parentCfg, ok := byID[*cfg.ParentOf]
		if !ok {
			logger.Fatalw("parent_of names an unknown node", "node_id", cfg.NodeID, "parent_of", *cfg.ParentOf)
		}
		parent := resolveReplica(parentCfg, byID, built, logger, reg)
		r = crdt.NewReplicaWithParent[string, string](cfg.NodeID, parent, opts...)
	} else {
		r = crdt.NewReplica[string, string](cfg.NodeID, opts...)
	}
	built[cfg.NodeID] = r
	return r
}

func printData(label string, data map[string]crdt.Snapshot[string]) {
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%s:\n", label)
	for _, id := range ids {
		fmt.Printf("  %s: %v\n", id, data[id].Fields)
	}
}
