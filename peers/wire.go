package peers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Bytes marshals as a JSON array of unsigned bytes rather than Go's default
// base64 string, preserving wire compatibility with clients that expect the
// canonical serde Vec<u8> encoding of a compressed group point or an
// opening.
type Bytes []byte

// MarshalJSON encodes b as a JSON array of numbers.
func (b Bytes) MarshalJSON() ([]byte, error) {
	nums := make([]int, len(b))
	for i, v := range b {
		nums[i] = int(v)
	}
	return json.Marshal(nums)
}

// UnmarshalJSON decodes a JSON array of numbers into b.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf("peers: decode byte array: %w", err)
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("peers: byte array element %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

// CommitmentForRandom is the wire shape exchanged between a dealer and a
// peer, both as the dealer's fan-out request and as a peer's co-commit
// response.
type CommitmentForRandom struct {
	NodeID       int       `json:"node_id"`
	CommitmentID uuid.UUID `json:"commitment_id"`
	Commitment   Bytes     `json:"commitment"`
}
