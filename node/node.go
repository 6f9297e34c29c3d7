// Package node wires configuration, the session cache, the peer fan-out
// client, and the protocol handlers into one process, and manages the
// HTTP server's Start/Stop lifecycle.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/deeprnd/random-pedersen/cache"
	"github.com/deeprnd/random-pedersen/config"
	"github.com/deeprnd/random-pedersen/httpapi"
	"github.com/deeprnd/random-pedersen/log"
	"github.com/deeprnd/random-pedersen/peers"
	"github.com/deeprnd/random-pedersen/protocol"
)

// Node is the top-level random-pedersen node: one HTTP server backed by a
// session cache, a static peer directory, and the protocol handlers.
type Node struct {
	config config.Config

	sessions *cache.SessionCache
	dir      *peers.Directory
	client   *peers.Client
	svc      *protocol.Service
	api      *httpapi.Server
	server   *http.Server

	log *log.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// New creates a new Node with the given configuration. It initializes all
// subsystems but does not start the HTTP server.
func New(cfg *config.Config) (*Node, error) {
	if cfg == nil {
		c := config.DefaultConfig()
		cfg = &c
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	n := &Node{
		config: *cfg,
		log:    log.Default().Module("node"),
		stop:   make(chan struct{}),
	}

	n.sessions = cache.New(cache.DefaultCapacity, cache.DefaultTTL, cache.DefaultTTI)
	n.dir = peers.NewDirectory(*cfg)
	n.client = peers.NewClient(n.dir, cfg.QuorumSize())
	n.svc = protocol.NewService(*cfg, n.sessions, n.client)
	n.api = httpapi.NewServer(n.svc, n.dir)

	return n, nil
}

// Start starts the HTTP server.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return errors.New("node already running")
	}

	n.log.Info("starting node", "node_id", n.config.NodeID, "num_nodes", n.config.NumNodes, "addr", n.config.Addr())

	n.server = &http.Server{
		Addr:    n.config.Addr(),
		Handler: n.api.Handler(),
	}
	go func() {
		n.log.Info("http server listening", "addr", n.config.Addr())
		if err := n.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.log.Error("http server error", "error", err)
		}
	}()

	n.running = true
	n.log.Info("node started")
	return nil
}

// Stop gracefully shuts down the HTTP server and the session cache's
// background janitor.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}

	n.log.Info("stopping node")

	if n.server != nil {
		if err := n.server.Shutdown(context.Background()); err != nil {
			n.log.Error("http server shutdown error", "error", err)
		}
	}
	n.sessions.Close()

	n.running = false
	close(n.stop)
	n.log.Info("node stopped")
	return nil
}

// Wait blocks until the node is stopped.
func (n *Node) Wait() {
	<-n.stop
}

// Config returns the node's configuration.
func (n *Node) Config() config.Config {
	return n.config
}

// Running reports whether the node is currently running.
func (n *Node) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// Handler returns the node's routed HTTP handler, useful for tests that
// want to drive requests without binding a real listener.
func (n *Node) Handler() http.Handler {
	return n.api.Handler()
}
