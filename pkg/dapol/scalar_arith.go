package dapol

import (
	"crypto/rand"

	"github.com/gtank/ristretto255"
)

// Small scalar-arithmetic helpers used throughout the Bulletproofs
// machinery (bulletproofs.go), kept as free functions rather than methods
// since *Scalar is a ristretto255 type this package doesn't own.

func add(a, b *Scalar) *Scalar { return ristretto255.NewScalar().Add(a, b) }
func sub(a, b *Scalar) *Scalar { return ristretto255.NewScalar().Subtract(a, b) }
func mul(a, b *Scalar) *Scalar { return ristretto255.NewScalar().Multiply(a, b) }

func scalarZero() *Scalar     { return scalarFromUint64(0) }
func scalarOne() *Scalar      { return scalarFromUint64(1) }
func scalarMinusOne() *Scalar { return ristretto255.NewScalar().Negate(scalarOne()) }

// randomScalar draws a uniformly random scalar from 64 bytes of system
// randomness, the same wide-reduction technique used for deriving
// scalars from hash output elsewhere in the package.
func randomScalar() *Scalar {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dapol: system randomness unavailable: " + err.Error())
	}
	return newScalarFromUniformBytes(buf)
}

func randomScalarVector(n int) []*Scalar {
	out := make([]*Scalar, n)
	for i := range out {
		out[i] = randomScalar()
	}
	return out
}

// scalarPow computes x^k by repeated squaring.
func scalarPow(x *Scalar, k uint64) *Scalar {
	result := scalarOne()
	base := x
	for k > 0 {
		if k&1 == 1 {
			result = mul(result, base)
		}
		base = mul(base, base)
		k >>= 1
	}
	return result
}

// powers returns [x^0, x^1, ..., x^(n-1)].
func powers(x *Scalar, n int) []*Scalar {
	out := make([]*Scalar, n)
	cur := scalarOne()
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = mul(cur, x)
	}
	return out
}

// innerProduct computes sum(a[i]*b[i]).
func innerProduct(a, b []*Scalar) *Scalar {
	acc := scalarZero()
	for i := range a {
		acc = add(acc, mul(a[i], b[i]))
	}
	return acc
}
