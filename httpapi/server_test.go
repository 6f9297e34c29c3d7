package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/deeprnd/random-pedersen/cache"
	"github.com/deeprnd/random-pedersen/config"
	"github.com/deeprnd/random-pedersen/pedersen"
	"github.com/deeprnd/random-pedersen/peers"
	"github.com/deeprnd/random-pedersen/protocol"
)

type noopGatherer struct{}

func (noopGatherer) GatherCommitments(context.Context, peers.CommitmentForRandom) ([]peers.CommitmentForRandom, error) {
	return nil, protocol.ErrThresholdNotReached
}

func newTestServer(t *testing.T) (*Server, *cache.SessionCache) {
	t.Helper()
	cfg := config.Config{NodeID: 1, NumNodes: 2, Threshold: 0.5, Project: "p", Service: "s", Port: 7000}
	c := cache.New(cache.DefaultCapacity, cache.DefaultTTL, cache.DefaultTTI)
	t.Cleanup(c.Close)
	svc := protocol.NewService(cfg, c, noopGatherer{})
	dir := peers.NewDirectory(cfg)
	return NewServer(svc, dir), c
}

func TestHandleNodes(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var urls []string
	if err := json.Unmarshal(w.Body.Bytes(), &urls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 node urls, got %d", len(urls))
	}
}

func TestHandleNodeFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/node/2", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleNodeNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/node/99", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleCommitThresholdFailureMapsTo500(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/commit-random", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleCoCommitMalformedBodyMapsTo400(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/co-commit-random", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleCoCommitSuccess(t *testing.T) {
	s, _ := newTestServer(t)

	cd, _, err := pedersen.New(55)
	if err != nil {
		t.Fatalf("pedersen.New: %v", err)
	}
	body, err := json.Marshal(protocol.CommitmentForRandom{
		NodeID:       2,
		CommitmentID: uuid.New(),
		Commitment:   protocol.Bytes(cd.ToBytes()),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/co-commit-random", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

// TestRevealUnknownSessionMapsTo404 covers the reveal NOT_FOUND path.
func TestRevealUnknownSessionMapsTo404(t *testing.T) {
	s, _ := newTestServer(t)

	body, err := json.Marshal(protocol.CommitmentForRandom{CommitmentID: uuid.New()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/reveal-random", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCORSHeadersPresent(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header to be set")
	}
}
