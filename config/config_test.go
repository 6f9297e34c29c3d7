package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Port != 7000 {
		t.Errorf("expected default port 7000, got %d", c.Port)
	}
	if c.Project != "random_pedersen" {
		t.Errorf("expected default project random_pedersen, got %q", c.Project)
	}
	if c.Service != "node" {
		t.Errorf("expected default service node, got %q", c.Service)
	}
	if c.NodeID != 1 {
		t.Errorf("expected default node_id 1, got %d", c.NodeID)
	}
	if c.NumNodes != 2 {
		t.Errorf("expected default num_nodes 2, got %d", c.NumNodes)
	}
	if c.Threshold != 0.66 {
		t.Errorf("expected default threshold 0.66, got %f", c.Threshold)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config should validate cleanly: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ID", "3")
	t.Setenv("NUM_NODES", "5")
	t.Setenv("MPC_THRESHOLD", "0.5")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != 8080 || c.NodeID != 3 || c.NumNodes != 5 || c.Threshold != 0.5 {
		t.Fatalf("unexpected config from env: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestFromEnvRejectsMalformedInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for malformed PORT")
	}
}

// TestQuorumSize covers the threshold shortfall arithmetic from scenario 6:
// NUM_NODES=5, MPC_THRESHOLD=0.66 -> floor(0.66*5) = 3.
func TestQuorumSize(t *testing.T) {
	c := Config{NumNodes: 5, Threshold: 0.66}
	if got := c.QuorumSize(); got != 3 {
		t.Fatalf("expected quorum size 3, got %d", got)
	}
}

func TestValidateRejectsBadNodeID(t *testing.T) {
	c := Config{Port: 7000, Project: "p", Service: "s", NumNodes: 2, NodeID: 3, Threshold: 0.66}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for node_id out of range")
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	c := Config{Port: 7000, Project: "p", Service: "s", NumNodes: 2, NodeID: 1, Threshold: 1.5}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for threshold out of range")
	}
}
