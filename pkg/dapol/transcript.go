package dapol

import "github.com/gtank/merlin"

// Transcript wraps a Merlin transcript with the dapol-specific append/
// challenge helpers the Bulletproofs range-proof machinery needs
// (spec.md §4.7's Fiat-Shamir transform). Merlin already gives strict
// message ordering and domain separation; this wrapper just speaks in
// terms of Scalar/Commitment instead of raw bytes.
type Transcript struct {
	inner *merlin.Transcript
}

// NewTranscript starts a fresh transcript under the given protocol label.
func NewTranscript(label string) *Transcript {
	return &Transcript{inner: merlin.NewTranscript(label)}
}

// AppendScalar commits a scalar to the transcript under label.
func (t *Transcript) AppendScalar(label string, s *Scalar) {
	t.inner.AppendMessage([]byte(label), s.Encode(nil))
}

// AppendPoint commits a group element to the transcript under label.
func (t *Transcript) AppendPoint(label string, p *Commitment) {
	t.inner.AppendMessage([]byte(label), p.Encode(nil))
}

// AppendUint64 commits a little-endian uint64 to the transcript.
func (t *Transcript) AppendUint64(label string, v uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	t.inner.AppendMessage([]byte(label), buf[:])
}

// ChallengeScalar draws a challenge scalar from the transcript's current
// state under label, via wide reduction of 64 extracted bytes.
func (t *Transcript) ChallengeScalar(label string) *Scalar {
	wide := t.inner.ExtractBytes([]byte(label), 64)
	var buf [64]byte
	copy(buf[:], wide)
	return newScalarFromUniformBytes(buf)
}

// Clone returns an independent copy of the transcript's current state,
// used to fork a proof transcript for verification without disturbing
// the prover's original.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{inner: t.inner.Clone()}
}
