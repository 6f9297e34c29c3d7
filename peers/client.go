package peers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deeprnd/random-pedersen/log"
)

// ErrThresholdNotReached is returned by GatherCommitments when fewer than
// the configured quorum of peers responded successfully.
var ErrThresholdNotReached = errors.New("peers: threshold not reached")

// endpointSource supplies the set of peer URLs to fan out to. *Directory
// satisfies it; tests substitute a fake to point at httptest servers.
type endpointSource interface {
	Endpoints() []string
}

// Client fans a dealer's commitment out to every peer and collects
// co-commit responses, tolerant of individual peer failure.
type Client struct {
	eps        endpointSource
	http       *http.Client
	quorumSize int
	log        *log.Logger
}

// httpTimeout bounds how long an individual peer call may take before the
// underlying transport gives up; it is not a protocol-level quorum
// deadline, which is left to the caller through ctx.
const httpTimeout = 10 * time.Second

// NewClient builds a Client over dir, requiring at least quorumSize
// successful peer responses for GatherCommitments to succeed.
func NewClient(dir *Directory, quorumSize int) *Client {
	return newClient(dir, quorumSize)
}

func newClient(eps endpointSource, quorumSize int) *Client {
	return &Client{
		eps:        eps,
		http:       &http.Client{Timeout: httpTimeout},
		quorumSize: quorumSize,
		log:        log.Default().Module("peers"),
	}
}

// GatherCommitments issues one concurrent POST /co-commit-random per peer
// carrying local (the dealer's tagged commitment), awaits every request to
// either complete or fail, and returns the successful responses. Individual
// peer failures are logged and dropped from the result set; only the
// aggregate count against the quorum threshold is surfaced as an error.
//
// Ordering between peer responses is not observable by callers: the
// aggregation the protocol layer performs on top of this is commutative.
func (c *Client) GatherCommitments(ctx context.Context, local CommitmentForRandom) ([]CommitmentForRandom, error) {
	endpoints := c.eps.Endpoints()

	results := make([]*CommitmentForRandom, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)

	for i, endpoint := range endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			resp, err := c.postCommitment(gctx, endpoint, local)
			if err != nil {
				c.log.Warn("peer co-commit failed", "endpoint", endpoint, "error", err)
				return nil
			}
			results[i] = resp
			return nil
		})
	}
	// errgroup.Wait only returns a non-nil error if a Go func itself
	// returned one; every failure path above is swallowed deliberately, so
	// this can never fail. It is still checked, never ignored.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("peers: unexpected fan-out error: %w", err)
	}

	successes := make([]CommitmentForRandom, 0, len(results))
	for _, r := range results {
		if r != nil {
			successes = append(successes, *r)
		}
	}

	if len(successes) < c.quorumSize {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrThresholdNotReached, len(successes), c.quorumSize)
	}
	return successes, nil
}

func (c *Client) postCommitment(ctx context.Context, endpoint string, body CommitmentForRandom) (*CommitmentForRandom, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peer returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out CommitmentForRandom
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
