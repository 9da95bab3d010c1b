package dapol

import (
	"github.com/gtank/ristretto255"
)

// Scalar and Commitment are type aliases for the Ristretto255 scalar and
// element types used throughout the package.
type (
	Scalar     = ristretto255.Scalar
	Commitment = ristretto255.Element
)

// pedersenGens holds the two independent generators g1 (liability base)
// and g2 (blinding base) used by every Pedersen commitment in the tree:
// commitment = g1^liability * g2^blinding.
//
// g1 is the canonical Ristretto255 basepoint; g2 is derived by hashing a
// domain-separation string to a uniform point, the standard way to obtain
// a second generator with no known discrete-log relationship to the
// first (the same technique Bulletproofs implementations use to derive
// their vector generators — see bulletproofs.go).
type pedersenGens struct {
	g1 *ristretto255.Element
	g2 *ristretto255.Element
}

var defaultGens = newPedersenGens()

func newPedersenGens() pedersenGens {
	g1 := ristretto255.NewElement().Base()
	g2 := hashToElement([]byte("dapol/pedersen/g2"))
	return pedersenGens{g1: g1, g2: g2}
}

// hashToElement maps a domain-separation label to a uniformly random
// Ristretto255 element via wide (64-byte) Blake3 output, following the
// library's uniform-bytes-to-point convention.
func hashToElement(label []byte) *ristretto255.Element {
	wide := wideHash(label)
	return ristretto255.NewElement().FromUniformBytes(wide[:])
}

// wideHash produces 64 bytes of Blake3 output by hashing the label twice
// under independent domain tags, giving the uniform input that
// ristretto255's Elligator2-based map expects.
func wideHash(label []byte) [64]byte {
	var out [64]byte
	copy(out[:32], HashFields([]byte("wide-lo"), label).Bytes())
	copy(out[32:], HashFields([]byte("wide-hi"), label).Bytes())
	return out
}

// scalarFromUint64 encodes v as a canonical little-endian Ristretto255
// scalar. Any uint64 is trivially less than the group order l, so the
// encoding is always canonical.
func scalarFromUint64(v uint64) *Scalar {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	s := ristretto255.NewScalar()
	if _, err := s.SetCanonicalBytes(buf[:]); err != nil {
		// A little-endian uint64 is always < the group order; this
		// branch cannot be reached with a correct ristretto255 decoder.
		panic("dapol: uint64 scalar encoding rejected as non-canonical: " + err.Error())
	}
	return s
}

// scalarFromKey reduces a 32-byte derived key into a scalar via wide
// reduction, the standard way to turn an arbitrary hash output into a
// uniformly distributed scalar without the narrow rejection-sampling loop
// a canonical-bytes decode would require.
func scalarFromKey(k Key) *Scalar {
	wide := wideHash(k.Bytes())
	return ristretto255.NewScalar().FromUniformBytes(wide[:])
}

// newScalarFromUniformBytes reduces 64 bytes of uniform randomness into a
// scalar, the same wide-reduction technique scalarFromKey uses, exposed
// for the transcript's challenge derivation.
func newScalarFromUniformBytes(wide [64]byte) *Scalar {
	return ristretto255.NewScalar().FromUniformBytes(wide[:])
}

// commit computes g1^liability * g2^blinding.
func commit(gens pedersenGens, liability uint64, blinding *Scalar) *Commitment {
	v := scalarFromUint64(liability)
	term1 := ristretto255.NewElement().ScalarMult(v, gens.g1)
	term2 := ristretto255.NewElement().ScalarMult(blinding, gens.g2)
	return ristretto255.NewElement().Add(term1, term2)
}
