// Command pedersen-node runs one node of a random-pedersen commit-reveal
// cluster.
//
// Configuration is read entirely from the environment, per the protocol's
// deployment model of one process per node behind a stable hostname:
//
//	PORT            HTTP listen port (default: 7000)
//	PROJECT         deployment project name, used to derive peer hostnames
//	SERVICE         service name, used to derive peer hostnames
//	NODE_ID         this node's id within the cluster (default: 1)
//	NUM_NODES       total number of nodes in the cluster (default: 2)
//	MPC_THRESHOLD   fraction of NUM_NODES; floor(MPC_THRESHOLD * NUM_NODES) peer
//	                responses are required for commit (default: 0.66)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deeprnd/random-pedersen/config"
	"github.com/deeprnd/random-pedersen/log"
	"github.com/deeprnd/random-pedersen/node"
)

func main() {
	os.Exit(run())
}

// run is the actual entry point, returning an exit code.
func run() int {
	l := log.Default().Module("main")

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	l.Info("starting pedersen-node",
		"node_id", cfg.NodeID,
		"num_nodes", cfg.NumNodes,
		"project", cfg.Project,
		"service", cfg.Service,
		"threshold", cfg.Threshold,
		"quorum_size", cfg.QuorumSize(),
		"addr", cfg.Addr(),
	)

	n, err := node.New(&cfg)
	if err != nil {
		l.Error("failed to create node", "error", err)
		return 1
	}

	if err := n.Start(); err != nil {
		l.Error("failed to start node", "error", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	l.Info("received signal, shutting down", "signal", sig.String())

	if err := n.Stop(); err != nil {
		l.Error("error during shutdown", "error", err)
		return 1
	}

	l.Info("shutdown complete")
	return 0
}
