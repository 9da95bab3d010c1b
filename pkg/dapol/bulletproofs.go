package dapol

import (
	"fmt"

	"github.com/gtank/ristretto255"
)

// Supported bit-widths for a range proof (spec.md §4.7). The width is
// supplied by the caller; proving and verifying reject any other value.
var allowedBitWidths = map[int]bool{8: true, 16: true, 32: true, 64: true}

// maxAggregationSize bounds how many values a single aggregated proof can
// cover, matching Bulletproofs' power-of-two aggregation requirement and
// the practical limit on how many siblings an inclusion proof aggregates
// (spec.md §4.4's aggregation factor).
const maxAggregationSize = 64

// bpGens holds the per-bit vector generators shared by every range proof
// of a given size: nBits*parties independent G_i/H_i points plus the
// single U base used by the inner-product argument. Generators are
// derived deterministically from indexed domain-separation labels so
// prover and verifier never need to exchange them.
type bpGens struct {
	g []*ristretto255.Element
	h []*ristretto255.Element
	u *ristretto255.Element
}

func newBPGens(n int) *bpGens {
	g := make([]*ristretto255.Element, n)
	h := make([]*ristretto255.Element, n)
	for i := 0; i < n; i++ {
		g[i] = hashToElement([]byte(fmt.Sprintf("dapol/bp/G/%d", i)))
		h[i] = hashToElement([]byte(fmt.Sprintf("dapol/bp/H/%d", i)))
	}
	return &bpGens{g: g, h: h, u: hashToElement([]byte("dapol/bp/U"))}
}

// RangeProof is an aggregated Bulletproofs range proof over one or more
// Pedersen-committed values, proving each lies in [0, 2^nBits) without
// revealing it (spec.md §4.7).
type RangeProof struct {
	NBits int
	A     *Commitment
	S     *Commitment
	T1    *Commitment
	T2    *Commitment
	TX    *Scalar
	TauX  *Scalar
	Mu    *Scalar
	IPP   InnerProductProof
}

// InnerProductProof is the logarithmic-size folded proof that the final
// l, r vectors in a RangeProof satisfy <l, r> = t (spec.md §4.7).
type InnerProductProof struct {
	Ls []*Commitment
	Rs []*Commitment
	A  *Scalar
	B  *Scalar
}

// ProveIndividual produces a range proof for a single value, the degenerate
// (m=1) case of ProveAggregated.
func ProveIndividual(transcript *Transcript, value uint64, blinding *Scalar, nBits int) (*RangeProof, error) {
	return ProveAggregated(transcript, []uint64{value}, []*Scalar{blinding}, nBits)
}

// VerifyIndividual verifies a range proof produced by ProveIndividual.
func VerifyIndividual(transcript *Transcript, commitment *Commitment, proof *RangeProof, nBits int) error {
	return VerifyAggregated(transcript, []*Commitment{commitment}, proof, nBits)
}

// ProveAggregated produces a single proof that every value in values lies
// in [0, 2^nBits), binding them to the same transcript so the resulting
// proof grows only logarithmically with how many values it covers
// (spec.md §4.4, §4.7: the aggregation factor's whole point is
// shrinking proof size for many siblings at once).
func ProveAggregated(transcript *Transcript, values []uint64, blindings []*Scalar, nBits int) (*RangeProof, error) {
	if !allowedBitWidths[nBits] {
		return nil, fmt.Errorf("dapol: %w: unsupported bit width %d", ErrRangeProofFailed, nBits)
	}
	m := len(values)
	if m == 0 || m > maxAggregationSize || (m&(m-1)) != 0 {
		return nil, fmt.Errorf("dapol: %w: aggregation size %d must be a power of two", ErrRangeProofFailed, m)
	}
	if len(blindings) != m {
		return nil, fmt.Errorf("dapol: %w: value/blinding count mismatch", ErrRangeProofFailed)
	}

	n := nBits * m
	gens := newBPGens(n)

	transcript.AppendUint64("n", uint64(nBits))
	transcript.AppendUint64("m", uint64(m))

	aL := make([]*Scalar, n)
	aR := make([]*Scalar, n)
	for j, v := range values {
		for i := 0; i < nBits; i++ {
			bit := (v >> uint(i)) & 1
			idx := j*nBits + i
			if bit == 1 {
				aL[idx] = scalarOne()
				aR[idx] = scalarZero()
			} else {
				aL[idx] = scalarZero()
				aR[idx] = scalarMinusOne()
			}
		}
	}

	alpha := randomScalar()
	A := vectorCommit(gens.g, aL, gens.h, aR, alpha)

	sL := randomScalarVector(n)
	sR := randomScalarVector(n)
	rho := randomScalar()
	S := vectorCommit(gens.g, sL, gens.h, sR, rho)

	transcript.AppendPoint("A", A)
	transcript.AppendPoint("S", S)
	y := transcript.ChallengeScalar("y")
	z := transcript.ChallengeScalar("z")

	yInv := ristretto255.NewScalar().Invert(y)
	yPow := powers(y, n)
	twoPow := powers(scalarFromUint64(2), nBits)

	zSq := ristretto255.NewScalar().Multiply(z, z)

	// l(x) = (aL - z*1) + sL*x
	// r(x) = y^n ∘ (aR + z*1 + sR*x) + z^2 * (concat of 2^n per party, scaled by z^j)
	l0 := make([]*Scalar, n)
	l1 := sL
	r0 := make([]*Scalar, n)
	r1 := make([]*Scalar, n)
	for i := 0; i < n; i++ {
		l0[i] = sub(aL[i], z)
		r0[i] = mul(yPow[i], add(aR[i], z))
		r1[i] = mul(yPow[i], sR[i])
	}
	for j := 0; j < m; j++ {
		zPowJ := ristretto255.NewScalar().Multiply(zSq, scalarPow(z, uint64(j)))
		for i := 0; i < nBits; i++ {
			idx := j*nBits + i
			r0[idx] = add(r0[idx], mul(zPowJ, twoPow[i]))
		}
	}

	t0 := innerProduct(l0, r0)
	// t1 = <l0,r1> + <l1,r0>, t2 = <l1,r1>
	t1 := add(innerProduct(l0, r1), innerProduct(l1, r0))
	t2 := innerProduct(l1, r1)

	tau1 := randomScalar()
	tau2 := randomScalar()
	T1 := commitScalar(t1, tau1)
	T2 := commitScalar(t2, tau2)

	transcript.AppendPoint("T1", T1)
	transcript.AppendPoint("T2", T2)
	x := transcript.ChallengeScalar("x")

	xSq := ristretto255.NewScalar().Multiply(x, x)
	tx := add(t0, add(mul(t1, x), mul(t2, xSq)))

	taux := add(mul(tau1, x), mul(tau2, xSq))
	for j := 0; j < m; j++ {
		zPowJplus2 := scalarPow(z, uint64(j+2))
		taux = add(taux, mul(zPowJplus2, blindings[j]))
	}
	mu := add(alpha, mul(rho, x))

	l := make([]*Scalar, n)
	r := make([]*Scalar, n)
	for i := 0; i < n; i++ {
		l[i] = add(l0[i], mul(l1[i], x))
		r[i] = add(r0[i], mul(r1[i], x))
	}

	// H'_i = H_i^(y^-i) folds the y-scaling into the generators so the
	// inner-product argument can run against a plain <l, r> = tx claim.
	hPrime := make([]*ristretto255.Element, n)
	yInvPow := powers(yInv, n)
	for i := 0; i < n; i++ {
		hPrime[i] = ristretto255.NewElement().ScalarMult(yInvPow[i], gens.h[i])
	}

	transcript.AppendScalar("tx", tx)
	transcript.AppendScalar("taux", taux)
	transcript.AppendScalar("mu", mu)
	w := transcript.ChallengeScalar("w")
	uBase := ristretto255.NewElement().ScalarMult(w, gens.u)

	ipp := proveInnerProduct(transcript, gens.g, hPrime, uBase, l, r)

	return &RangeProof{NBits: nBits, A: A, S: S, T1: T1, T2: T2, TX: tx, TauX: taux, Mu: mu, IPP: ipp}, nil
}

// VerifyAggregated checks a RangeProof against the public commitments it
// claims to cover.
func VerifyAggregated(transcript *Transcript, commitments []*Commitment, proof *RangeProof, nBits int) error {
	if !allowedBitWidths[nBits] || proof.NBits != nBits {
		return fmt.Errorf("dapol: %w: bit width mismatch", ErrRangeProofFailed)
	}
	m := len(commitments)
	if m == 0 || (m&(m-1)) != 0 {
		return fmt.Errorf("dapol: %w: aggregation size %d must be a power of two", ErrRangeProofFailed, m)
	}
	n := nBits * m
	gens := newBPGens(n)

	transcript.AppendUint64("n", uint64(nBits))
	transcript.AppendUint64("m", uint64(m))
	transcript.AppendPoint("A", proof.A)
	transcript.AppendPoint("S", proof.S)
	y := transcript.ChallengeScalar("y")
	z := transcript.ChallengeScalar("z")

	transcript.AppendPoint("T1", proof.T1)
	transcript.AppendPoint("T2", proof.T2)
	x := transcript.ChallengeScalar("x")

	transcript.AppendScalar("tx", proof.TX)
	transcript.AppendScalar("taux", proof.TauX)
	transcript.AppendScalar("mu", proof.Mu)
	w := transcript.ChallengeScalar("w")

	// Check the aggregated value commitment: g^tx * h^taux should equal
	// V_j^(z^2*z^j) * g^delta(y,z) * T1^x * T2^x^2.
	delta := deltaYZ(y, z, nBits, m)
	lhs := commitScalar(proof.TX, proof.TauX)

	rhs := ristretto255.NewElement().ScalarMult(delta, defaultGens.g1)
	zSq := ristretto255.NewScalar().Multiply(z, z)
	for j := 0; j < m; j++ {
		zPowJ := ristretto255.NewScalar().Multiply(zSq, scalarPow(z, uint64(j)))
		term := ristretto255.NewElement().ScalarMult(zPowJ, commitments[j])
		rhs = ristretto255.NewElement().Add(rhs, term)
	}
	xSq := ristretto255.NewScalar().Multiply(x, x)
	rhs = ristretto255.NewElement().Add(rhs, ristretto255.NewElement().ScalarMult(x, proof.T1))
	rhs = ristretto255.NewElement().Add(rhs, ristretto255.NewElement().ScalarMult(xSq, proof.T2))

	if lhs.Equal(rhs) != 1 {
		return fmt.Errorf("dapol: %w: aggregated value check failed", ErrRangeProofFailed)
	}

	yInv := ristretto255.NewScalar().Invert(y)
	yInvPow := powers(yInv, n)
	hPrime := make([]*ristretto255.Element, n)
	for i := 0; i < n; i++ {
		hPrime[i] = ristretto255.NewElement().ScalarMult(yInvPow[i], gens.h[i])
	}
	uBase := ristretto255.NewElement().ScalarMult(w, gens.u)

	// P = A + x*S - z*<1,G> + <z*y^n + z^(2+j)*2^n, H'> - mu*g2 is the
	// commitment to <l,G> + <r,H'> that the inner-product argument opens.
	P := ristretto255.NewElement().Add(proof.A, ristretto255.NewElement().ScalarMult(x, proof.S))
	P = ristretto255.NewElement().Add(P, ristretto255.NewElement().ScalarMult(ristretto255.NewScalar().Negate(proof.Mu), defaultGens.g2))
	negZ := ristretto255.NewScalar().Negate(z)
	yPow := powers(y, n)
	twoPow := powers(scalarFromUint64(2), nBits)
	for i := 0; i < n; i++ {
		hExp := add(mul(z, yPow[i]), mul(mul(zSq, scalarPow(z, uint64(i/nBits))), twoPow[i%nBits]))
		P = ristretto255.NewElement().Add(P, ristretto255.NewElement().ScalarMult(negZ, gens.g[i]))
		P = ristretto255.NewElement().Add(P, ristretto255.NewElement().ScalarMult(hExp, hPrime[i]))
	}

	return verifyInnerProduct(transcript, gens.g, hPrime, uBase, proof.IPP, P, proof.TX)
}

// deltaYZ computes the public constant term delta(y,z) in the aggregated
// range proof's value check (standard Bulletproofs construction).
func deltaYZ(y, z *Scalar, nBits, m int) *Scalar {
	n := nBits * m
	zSq := ristretto255.NewScalar().Multiply(z, z)
	yPow := powers(y, n)
	sumY := scalarZero()
	for i := 0; i < n; i++ {
		sumY = add(sumY, yPow[i])
	}
	twoPow := powers(scalarFromUint64(2), nBits)
	sumTwo := scalarZero()
	for i := 0; i < nBits; i++ {
		sumTwo = add(sumTwo, twoPow[i])
	}

	term1 := mul(sub(z, mul(z, z)), sumY)

	sumZ2 := scalarZero()
	for j := 0; j < m; j++ {
		zPow := ristretto255.NewScalar().Multiply(zSq, scalarPow(z, uint64(j+1)))
		sumZ2 = add(sumZ2, mul(zPow, sumTwo))
	}

	return sub(term1, sumZ2)
}

// proveInnerProduct recursively folds (G, H, l, r) in half, emitting one
// (L,R) pair per round, until a single scalar pair remains (spec.md §4.7).
func proveInnerProduct(transcript *Transcript, g, h []*ristretto255.Element, u *ristretto255.Element, l, r []*Scalar) InnerProductProof {
	var proof InnerProductProof
	for len(l) > 1 {
		half := len(l) / 2
		lLo, lHi := l[:half], l[half:]
		rLo, rHi := r[:half], r[half:]
		gLo, gHi := g[:half], g[half:]
		hLo, hHi := h[:half], h[half:]

		cL := innerProduct(lLo, rHi)
		cR := innerProduct(lHi, rLo)

		L := vectorCommit(gHi, lLo, hLo, rHi, nil)
		L = ristretto255.NewElement().Add(L, ristretto255.NewElement().ScalarMult(cL, u))
		R := vectorCommit(gLo, lHi, hHi, rLo, nil)
		R = ristretto255.NewElement().Add(R, ristretto255.NewElement().ScalarMult(cR, u))

		transcript.AppendPoint("L", L)
		transcript.AppendPoint("R", R)
		challenge := transcript.ChallengeScalar("ipp-challenge")
		challengeInv := ristretto255.NewScalar().Invert(challenge)

		l = foldScalars(lLo, lHi, challenge, challengeInv)
		r = foldScalars(rLo, rHi, challengeInv, challenge)
		g = foldPoints(gLo, gHi, challengeInv, challenge)
		h = foldPoints(hLo, hHi, challenge, challengeInv)

		proof.Ls = append(proof.Ls, L)
		proof.Rs = append(proof.Rs, R)
	}
	proof.A = l[0]
	proof.B = r[0]
	return proof
}

// verifyInnerProduct replays the folding challenges and checks the final
// committed value against the vector commitment p plus the claimed inner
// product.
func verifyInnerProduct(transcript *Transcript, g, h []*ristretto255.Element, u *ristretto255.Element, proof InnerProductProof, p *ristretto255.Element, claimedT *Scalar) error {
	rounds := len(proof.Ls)
	if rounds != len(proof.Rs) || (1<<uint(rounds)) != len(g) {
		return fmt.Errorf("dapol: %w: inner-product proof has the wrong number of rounds", ErrRangeProofFailed)
	}

	challenges := make([]*Scalar, rounds)
	for i := 0; i < rounds; i++ {
		transcript.AppendPoint("L", proof.Ls[i])
		transcript.AppendPoint("R", proof.Rs[i])
		challenges[i] = transcript.ChallengeScalar("ipp-challenge")
	}

	for i := 0; i < rounds; i++ {
		challenge := challenges[i]
		challengeInv := ristretto255.NewScalar().Invert(challenge)
		g = foldPoints(g[:len(g)/2], g[len(g)/2:], challengeInv, challenge)
		h = foldPoints(h[:len(h)/2], h[len(h)/2:], challenge, challengeInv)
	}

	lhs := ristretto255.NewElement().ScalarMult(proof.A, g[0])
	lhs = ristretto255.NewElement().Add(lhs, ristretto255.NewElement().ScalarMult(proof.B, h[0]))
	ab := ristretto255.NewScalar().Multiply(proof.A, proof.B)
	lhs = ristretto255.NewElement().Add(lhs, ristretto255.NewElement().ScalarMult(ab, u))

	rhs := ristretto255.NewElement().Add(p, ristretto255.NewElement().ScalarMult(claimedT, u))
	for i := 0; i < rounds; i++ {
		cSq := ristretto255.NewScalar().Multiply(challenges[i], challenges[i])
		cInvSq := ristretto255.NewScalar().Invert(cSq)
		rhs = ristretto255.NewElement().Add(rhs, ristretto255.NewElement().ScalarMult(cSq, proof.Ls[i]))
		rhs = ristretto255.NewElement().Add(rhs, ristretto255.NewElement().ScalarMult(cInvSq, proof.Rs[i]))
	}

	if lhs.Equal(rhs) != 1 {
		return fmt.Errorf("dapol: %w: inner-product check failed", ErrRangeProofFailed)
	}
	return nil
}

func foldScalars(lo, hi []*Scalar, cLo, cHi *Scalar) []*Scalar {
	out := make([]*Scalar, len(lo))
	for i := range lo {
		out[i] = add(mul(cLo, lo[i]), mul(cHi, hi[i]))
	}
	return out
}

func foldPoints(lo, hi []*ristretto255.Element, cLo, cHi *Scalar) []*ristretto255.Element {
	out := make([]*ristretto255.Element, len(lo))
	for i := range lo {
		a := ristretto255.NewElement().ScalarMult(cLo, lo[i])
		b := ristretto255.NewElement().ScalarMult(cHi, hi[i])
		out[i] = ristretto255.NewElement().Add(a, b)
	}
	return out
}

// vectorCommit computes g^aVec * h^bVec * (base^blind, if blind != nil).
func vectorCommit(g []*ristretto255.Element, a []*Scalar, h []*ristretto255.Element, b []*Scalar, blind *Scalar) *ristretto255.Element {
	acc := ristretto255.NewElement().Zero()
	for i := range a {
		acc = ristretto255.NewElement().Add(acc, ristretto255.NewElement().ScalarMult(a[i], g[i]))
	}
	for i := range b {
		acc = ristretto255.NewElement().Add(acc, ristretto255.NewElement().ScalarMult(b[i], h[i]))
	}
	if blind != nil {
		acc = ristretto255.NewElement().Add(acc, ristretto255.NewElement().ScalarMult(blind, defaultGens.g2))
	}
	return acc
}

// commitScalar computes a Pedersen commitment to an arbitrary scalar
// value (as opposed to commit, which takes a uint64 liability): g1^value
// * g2^blinding. Used for the polynomial coefficient commitments T1, T2,
// which are not liabilities themselves.
func commitScalar(value, blinding *Scalar) *ristretto255.Element {
	term1 := ristretto255.NewElement().ScalarMult(value, defaultGens.g1)
	term2 := ristretto255.NewElement().ScalarMult(blinding, defaultGens.g2)
	return ristretto255.NewElement().Add(term1, term2)
}
