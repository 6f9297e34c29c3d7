package peers

import (
	"testing"

	"github.com/deeprnd/random-pedersen/config"
)

func testConfig() config.Config {
	return config.Config{
		Port:      7000,
		Project:   "random_pedersen",
		Service:   "node",
		NodeID:    2,
		NumNodes:  5,
		Threshold: 0.66,
	}
}

func TestSelfAddress(t *testing.T) {
	d := NewDirectory(testConfig())
	if got, want := d.SelfAddress(), "http://random_pedersen_node_2:7000"; got != want {
		t.Fatalf("SelfAddress() = %q, want %q", got, want)
	}
}

// TestEndpointsExcludesSelf covers P11: peer_addresses(node_id, N) excludes
// node_id, has length N-1, and contains no duplicates.
func TestEndpointsExcludesSelf(t *testing.T) {
	d := NewDirectory(testConfig())
	eps := d.Endpoints()

	if len(eps) != 4 {
		t.Fatalf("expected 4 endpoints, got %d", len(eps))
	}
	selfEndpoint := d.SelfAddress() + "/co-commit-random"
	seen := make(map[string]bool, len(eps))
	for _, ep := range eps {
		if ep == selfEndpoint {
			t.Fatalf("endpoints must not include self: %q", ep)
		}
		if seen[ep] {
			t.Fatalf("duplicate endpoint: %q", ep)
		}
		seen[ep] = true
	}
}

func TestAllNodeURLsIncludesSelf(t *testing.T) {
	d := NewDirectory(testConfig())
	urls := d.AllNodeURLs()
	if len(urls) != 5 {
		t.Fatalf("expected 5 urls, got %d", len(urls))
	}
	found := false
	for _, u := range urls {
		if u == d.SelfAddress() {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected self address among all node urls")
	}
}

func TestNodeURLOutOfRange(t *testing.T) {
	d := NewDirectory(testConfig())
	if _, ok := d.NodeURL(0); ok {
		t.Fatalf("expected NodeURL(0) to report not found")
	}
	if _, ok := d.NodeURL(6); ok {
		t.Fatalf("expected NodeURL(6) to report not found")
	}
	if _, ok := d.NodeURL(1); !ok {
		t.Fatalf("expected NodeURL(1) to report found")
	}
}
