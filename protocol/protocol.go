// Package protocol implements the three handlers that drive a session
// through its commit, co-commit, and reveal phases, plus the client-side
// Verify helper that checks a completed session's aggregate.
package protocol

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/deeprnd/random-pedersen/cache"
	"github.com/deeprnd/random-pedersen/config"
	"github.com/deeprnd/random-pedersen/log"
	"github.com/deeprnd/random-pedersen/pedersen"
	"github.com/deeprnd/random-pedersen/peers"
	"github.com/deeprnd/random-pedersen/randomness"
)

// gatherer is the subset of peers.Client that Service needs; it exists so
// tests can substitute a fake fan-out without standing up real HTTP peers.
type gatherer interface {
	GatherCommitments(ctx context.Context, local peers.CommitmentForRandom) ([]peers.CommitmentForRandom, error)
}

// Service implements commit, co-commit, and reveal over a session cache and
// a peer fan-out client.
type Service struct {
	cfg    config.Config
	cache  *cache.SessionCache
	client gatherer
	log    *log.Logger
}

// NewService builds a Service for this node.
func NewService(cfg config.Config, sessions *cache.SessionCache, client gatherer) *Service {
	return &Service{
		cfg:    cfg,
		cache:  sessions,
		client: client,
		log:    log.Default().Module("protocol"),
	}
}

// drawContribution draws a fresh 32-bit value (lifted into the 64-bit
// field Commitment operates on) and commits to it. Restricting draws to 32
// bits, per the protocol's design, guarantees aggregate opening values
// across up to 2^32 participants never overflow a uint64 (see I3).
func drawContribution() (pedersen.Commitment, pedersen.Opening, error) {
	raw, err := randomness.Read(4)
	if err != nil {
		return pedersen.Commitment{}, pedersen.Opening{}, fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	v32 := uint64(binary.BigEndian.Uint32(raw))
	c, o, err := pedersen.New(v32)
	if err != nil {
		return pedersen.Commitment{}, pedersen.Opening{}, fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return c, o, nil
}

// Commit runs the dealer side of a session: draw a contribution, cache it,
// fan it out to every peer, and fold the responses into a single aggregate
// commitment.
func (s *Service) Commit(ctx context.Context) (CommitmentForRandoms, error) {
	cd, openingD, err := drawContribution()
	if err != nil {
		return CommitmentForRandoms{}, err
	}

	rawID, err := randomness.Read(16)
	if err != nil {
		return CommitmentForRandoms{}, fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	sessionID, err := uuid.NewRandomFromReader(bytes.NewReader(rawID))
	if err != nil {
		return CommitmentForRandoms{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	s.cache.Insert(sessionID, cache.Entry{Commitment: cd, Opening: openingD})

	local := peers.CommitmentForRandom{
		NodeID:       s.cfg.NodeID,
		CommitmentID: sessionID,
		Commitment:   peers.Bytes(cd.ToBytes()),
	}

	responses, err := s.client.GatherCommitments(ctx, local)
	if err != nil {
		// THRESHOLD_NOT_REACHED at the peer-client layer surfaces to the
		// client as a commit-level INTERNAL failure, per §7.
		return CommitmentForRandoms{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	aggregate := cd
	ids := make([]int, 0, len(responses)+1)
	for _, r := range responses {
		ci, err := pedersen.FromBytes(r.Commitment)
		if err != nil {
			return CommitmentForRandoms{}, fmt.Errorf("%w: peer %d returned malformed commitment: %v", ErrInternal, r.NodeID, err)
		}
		// r.Commitment is C_d + C_i (dealer overcommitment); undo the C_d
		// term once per peer response to recover the clean running sum.
		aggregate = aggregate.Add(ci).Sub(cd)
		ids = append(ids, r.NodeID)
	}
	ids = append(ids, s.cfg.NodeID)

	return CommitmentForRandoms{
		CommitmentID: sessionID,
		Commitment:   peers.Bytes(aggregate.ToBytes()),
		NodeIDs:      ids,
		DealerID:     s.cfg.NodeID,
	}, nil
}

// CoCommit runs the peer side of a session: fold the dealer's commitment
// into a fresh contribution of our own, cache the aggregate under the
// dealer's session id, and hand the aggregate back.
func (s *Service) CoCommit(req CommitmentForRandom) (CommitmentForRandom, error) {
	cd, err := pedersen.FromBytes(req.Commitment)
	if err != nil {
		return CommitmentForRandom{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	ci, openingI, err := drawContribution()
	if err != nil {
		return CommitmentForRandom{}, err
	}

	aggregate := ci.Add(cd)
	// The cached opening is ours alone (openingI), not an opening of the
	// aggregate we store and return -- the dealer's opening, which we never
	// see, is needed to fully open it.
	s.cache.Insert(req.CommitmentID, cache.Entry{Commitment: aggregate, Opening: openingI})

	return CommitmentForRandom{
		NodeID:       s.cfg.NodeID,
		CommitmentID: req.CommitmentID,
		Commitment:   peers.Bytes(aggregate.ToBytes()),
	}, nil
}

// Reveal returns the cached (commitment, opening) for a session and evicts
// it, making reveal one-shot.
func (s *Service) Reveal(sessionID uuid.UUID) (CommittedRandom, error) {
	entry, ok := s.cache.Get(sessionID)
	if !ok {
		return CommittedRandom{}, ErrNotFound
	}
	s.cache.Invalidate(sessionID)

	return CommittedRandom{
		Commitment: peers.Bytes(entry.Commitment.ToBytes()),
		Opening:    peers.Bytes(entry.Opening.ToBytes()),
	}, nil
}

// Verify implements the client-side verification contract of §4.7: given
// the dealer's aggregate response and every participant's individually
// revealed (commitment, opening) -- including the dealer's own reveal --
// it reports whether the aggregate is self-consistent and, if so, the
// joint random value it certifies.
func Verify(agg CommitmentForRandoms, reveals []RevealedParticipant) (joint uint64, ok bool, err error) {
	cStar, err := pedersen.FromBytes(agg.Commitment)
	if err != nil {
		return 0, false, fmt.Errorf("%w: aggregate commitment: %v", ErrBadRequest, err)
	}

	var dealerCommitment *pedersen.Commitment
	commitmentSum := pedersen.Identity()
	var openingSum pedersen.Opening
	haveOpening := false
	peerCount := 0

	for _, p := range reveals {
		c, err := pedersen.FromBytes(p.Revealed.Commitment)
		if err != nil {
			return 0, false, fmt.Errorf("%w: participant %d commitment: %v", ErrBadRequest, p.NodeID, err)
		}
		o, err := pedersen.OpeningFromBytes(p.Revealed.Opening)
		if err != nil {
			return 0, false, fmt.Errorf("%w: participant %d opening: %v", ErrBadRequest, p.NodeID, err)
		}

		if p.NodeID == agg.DealerID {
			dc := c
			dealerCommitment = &dc
		} else {
			peerCount++
		}

		commitmentSum = commitmentSum.Add(c)
		if !haveOpening {
			openingSum = o
			haveOpening = true
		} else {
			openingSum = openingSum.Add(o)
		}
	}

	if dealerCommitment == nil {
		return 0, false, fmt.Errorf("%w: missing dealer reveal", ErrBadRequest)
	}

	reconstructed := commitmentSum
	for i := 0; i < peerCount; i++ {
		reconstructed = reconstructed.Sub(*dealerCommitment)
	}

	if !reconstructed.IsEqual(cStar) {
		return 0, false, nil
	}
	if !pedersen.FromOpening(openingSum).IsEqual(cStar) {
		return 0, false, nil
	}
	return openingSum.V, true, nil
}
