// Package peers implements the static peer topology (C4) and the fan-out
// RPC client (C5) used to gather co-commitments from every other node in
// the deployment. Topology is derived purely from configuration; there is
// no dynamic discovery.
package peers

import (
	"fmt"

	"github.com/deeprnd/random-pedersen/config"
)

// Directory resolves node ids to reachable HTTP addresses under the static
// "{project}_{service}_{node_id}:{port}" naming convention a docker-compose
// or k8s deployment of this service uses.
type Directory struct {
	cfg config.Config
}

// NewDirectory builds a Directory from the process configuration.
func NewDirectory(cfg config.Config) *Directory {
	return &Directory{cfg: cfg}
}

// PeerAddress returns the base HTTP address of node i, for i in [1, NumNodes].
// The configured Port is used for every peer; the service distinguishes
// peers by hostname alone. The port-per-peer variant some deployments want
// is not implemented here -- see DESIGN.md.
func (d *Directory) PeerAddress(i int) string {
	return fmt.Sprintf("http://%s_%s_%d:%d", d.cfg.Project, d.cfg.Service, i, d.cfg.Port)
}

// SelfAddress returns this node's own address.
func (d *Directory) SelfAddress() string {
	return d.PeerAddress(d.cfg.NodeID)
}

// AllNodeURLs returns every node's base address, self included, ordered by
// node id. Backs GET /nodes.
func (d *Directory) AllNodeURLs() []string {
	urls := make([]string, 0, d.cfg.NumNodes)
	for i := 1; i <= d.cfg.NumNodes; i++ {
		urls = append(urls, d.PeerAddress(i))
	}
	return urls
}

// NodeURL returns the address of a specific node id. Backs GET /node/{id}.
func (d *Directory) NodeURL(nodeID int) (string, bool) {
	if nodeID < 1 || nodeID > d.cfg.NumNodes {
		return "", false
	}
	return d.PeerAddress(nodeID), true
}

// Endpoints returns the /co-commit-random URL of every peer, excluding
// self, ordered by node id. Satisfies P11: length NumNodes-1, no
// duplicates, self excluded.
func (d *Directory) Endpoints() []string {
	eps := make([]string, 0, d.cfg.NumNodes-1)
	for i := 1; i <= d.cfg.NumNodes; i++ {
		if i == d.cfg.NodeID {
			continue
		}
		eps = append(eps, d.PeerAddress(i)+"/co-commit-random")
	}
	return eps
}

// PeerNodeIDs returns every node id other than self, ordered ascending.
func (d *Directory) PeerNodeIDs() []int {
	ids := make([]int, 0, d.cfg.NumNodes-1)
	for i := 1; i <= d.cfg.NumNodes; i++ {
		if i != d.cfg.NodeID {
			ids = append(ids, i)
		}
	}
	return ids
}
