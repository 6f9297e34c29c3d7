// Package pedersen implements the commitment algebra the protocol is built
// on: additively-homomorphic Pedersen commitments over the Ristretto255
// group. A Commitment C = vG + rH hides a 64-bit value v behind a random
// blinding scalar r; Commitments and Openings both support the group
// addition/subtraction the distributed protocol needs to aggregate
// per-node contributions without ever exchanging the underlying values.
package pedersen

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudflare/circl/group"

	"github.com/deeprnd/random-pedersen/randomness"
)

// Wire sizes, fixed by the group and the scalar/value encoding.
const (
	CommitmentSize = 32 // canonical compressed Ristretto255 point
	OpeningSize    = 40 // 8 bytes little-endian v, 32 bytes canonical scalar r
)

var (
	// ErrMalformedCommitment is returned when commitment bytes do not decode
	// to a canonical compressed group point.
	ErrMalformedCommitment = errors.New("pedersen: malformed commitment bytes")
	// ErrMalformedOpening is returned when opening bytes are the wrong
	// length or the scalar portion is not canonical.
	ErrMalformedOpening = errors.New("pedersen: malformed opening bytes")
	// ErrOpeningOverflow/ErrOpeningUnderflow are the fatal, non-recoverable
	// errors raised (via panic, see Opening.Add/Sub) when v exceeds the
	// 64-bit field the protocol restricts contributions to.
	ErrOpeningOverflow  = errors.New("pedersen: opening value overflow")
	ErrOpeningUnderflow = errors.New("pedersen: opening value underflow")
)

// curve is the prime-order group every node in a deployment must agree on.
// Ristretto255 is the group the spec requires for cross-node compatibility.
var curve = group.Ristretto255

// hDST is the domain-separation tag used to derive the second,
// nothing-up-my-sleeve generator H from the group's canonical hash-to-group
// function. It must be identical, byte for byte, across every node.
const hDST = "github.com/deeprnd/random-pedersen/pedersen/H/v1"

var (
	hOnce sync.Once
	hElt  group.Element
)

// generatorH returns the process-wide second generator, deriving it lazily
// (and only once) from the group's hash-to-element function rather than
// from an arbitrary second base point.
func generatorH() group.Element {
	hOnce.Do(func() {
		hElt = curve.HashToElement([]byte("random-pedersen-generator-H"), []byte(hDST))
	})
	return hElt
}

// rDST domain-separates the reduction of fresh random bytes into a blinding
// scalar from any other use of HashToScalar in this package.
const rDST = "github.com/deeprnd/random-pedersen/pedersen/r/v1"

// Commitment is a Pedersen commitment C = vG + rH.
type Commitment struct {
	p group.Element
}

// Identity returns the group identity element, the neutral element for
// Commitment.Add/Sub. Useful as the starting accumulator when summing a
// variable number of commitments, e.g. during client-side reveal
// verification.
func Identity() Commitment {
	return Commitment{p: curve.Identity()}
}

// Opening is the pair (v, r) that reconstructs a Commitment via FromOpening.
type Opening struct {
	V uint64
	r group.Scalar
}

// New draws a fresh blinding factor from randomness.Read and returns the
// commitment to v together with its opening. This is the only constructor
// that touches the entropy source; every other path in this package is
// deterministic.
func New(v uint64) (Commitment, Opening, error) {
	raw, err := randomness.Read(32)
	if err != nil {
		return Commitment{}, Opening{}, err
	}
	r := curve.HashToScalar(raw, []byte(rDST))
	o := Opening{V: v, r: r}
	return FromOpening(o), o, nil
}

// FromOpening deterministically recomputes the commitment vG + rH.
func FromOpening(o Opening) Commitment {
	vScalar := curve.NewScalar()
	vScalar.SetUint64(o.V)

	vG := curve.NewElement().MulGen(vScalar)
	rH := curve.NewElement().Mul(generatorH(), o.r)
	sum := curve.NewElement().Add(vG, rH)
	return Commitment{p: sum}
}

// FromBytes decodes a canonical compressed-point encoding of a commitment.
func FromBytes(b []byte) (Commitment, error) {
	if len(b) != CommitmentSize {
		return Commitment{}, ErrMalformedCommitment
	}
	e := curve.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return Commitment{}, fmt.Errorf("%w: %v", ErrMalformedCommitment, err)
	}
	return Commitment{p: e}, nil
}

// ToBytes returns the canonical compressed-point encoding of c.
func (c Commitment) ToBytes() []byte {
	b, err := c.p.MarshalBinary()
	if err != nil {
		// Every valid in-memory Commitment is, by construction, a valid
		// group element; MarshalBinary cannot fail on one.
		panic(fmt.Sprintf("pedersen: marshal of valid element failed: %v", err))
	}
	return b
}

// Verify reports whether o is an opening of c.
func (c Commitment) Verify(o Opening) bool {
	return c.IsEqual(FromOpening(o))
}

// IsEqual reports constant-time point equality.
func (c Commitment) IsEqual(other Commitment) bool {
	return c.p.IsEqual(other.p)
}

// Add returns c + other.
func (c Commitment) Add(other Commitment) Commitment {
	return Commitment{p: curve.NewElement().Add(c.p, other.p)}
}

// Sub returns c - other.
func (c Commitment) Sub(other Commitment) Commitment {
	neg := curve.NewElement().Neg(other.p)
	return Commitment{p: curve.NewElement().Add(c.p, neg)}
}

// OpeningFromBytes decodes the 8-byte little-endian v followed by a
// canonical scalar encoding of r.
func OpeningFromBytes(b []byte) (Opening, error) {
	if len(b) != OpeningSize {
		return Opening{}, ErrMalformedOpening
	}
	r := curve.NewScalar()
	if err := r.UnmarshalBinary(b[8:]); err != nil {
		return Opening{}, fmt.Errorf("%w: %v", ErrMalformedOpening, err)
	}
	return Opening{
		V: binary.LittleEndian.Uint64(b[:8]),
		r: r,
	}, nil
}

// ToBytes returns the 8+32 byte wire encoding of o.
func (o Opening) ToBytes() []byte {
	out := make([]byte, OpeningSize)
	binary.LittleEndian.PutUint64(out[:8], o.V)
	rb, err := o.r.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("pedersen: marshal of valid scalar failed: %v", err))
	}
	copy(out[8:], rb)
	return out
}

// IsEqual reports whether o and other carry the same value and blinding.
func (o Opening) IsEqual(other Opening) bool {
	return o.V == other.V && o.r.IsEqual(other.r)
}

// Add returns o + other. Scalar addition is modular and total; the value
// component is not: the protocol restricts every contribution to a 32-bit
// value stored in a 64-bit field specifically so this can never overflow
// in practice, so an overflow here indicates a programmer error upstream
// and is treated as fatal rather than returned as a recoverable error.
func (o Opening) Add(other Opening) Opening {
	sum := o.V + other.V
	if sum < o.V {
		panic(fmt.Errorf("%w: %d + %d", ErrOpeningOverflow, o.V, other.V))
	}
	return Opening{
		V: sum,
		r: curve.NewScalar().Add(o.r, other.r),
	}
}

// Sub returns o - other. See Add for the overflow/underflow rationale.
func (o Opening) Sub(other Opening) Opening {
	if other.V > o.V {
		panic(fmt.Errorf("%w: %d - %d", ErrOpeningUnderflow, o.V, other.V))
	}
	return Opening{
		V: o.V - other.V,
		r: curve.NewScalar().Sub(o.r, other.r),
	}
}
