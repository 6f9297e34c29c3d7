package protocol

import (
	"github.com/google/uuid"

	"github.com/deeprnd/random-pedersen/peers"
)

// Bytes is re-exported from peers so protocol's public JSON shapes share the
// same array-of-numbers wire encoding used for peer-to-peer traffic.
type Bytes = peers.Bytes

// CommitmentForRandom is both the dealer's fan-out request and a peer's
// co-commit response; protocol reuses the type peers.Client already speaks
// so a co-commit handler can pass its result straight to the cache and back
// out over HTTP without re-shaping it.
type CommitmentForRandom = peers.CommitmentForRandom

// CommitmentForRandoms is the dealer's response to a client's commit
// request: the aggregated commitment plus the set of node ids that
// contributed to it.
type CommitmentForRandoms struct {
	CommitmentID uuid.UUID `json:"commitment_id"`
	Commitment   Bytes     `json:"commitment"`
	NodeIDs      []int     `json:"node_ids"`
	DealerID     int       `json:"dealer_id"`
}

// CommittedRandom is what reveal returns: the stored commitment and the
// locally-held opening. On a peer the commitment is the aggregate C_d + C_i
// while the opening is of C_i alone.
type CommittedRandom struct {
	Commitment Bytes `json:"commitment"`
	Opening    Bytes `json:"opening"`
}

// RevealedParticipant pairs a participant's node id with what reveal
// returned for its session entry; the client-side Verify helper consumes a
// slice of these gathered by calling reveal on every participating node.
type RevealedParticipant struct {
	NodeID   int
	Revealed CommittedRandom
}
