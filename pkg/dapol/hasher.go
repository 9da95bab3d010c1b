package dapol

import "lukechampine.com/blake3"

// hashDelimiter separates successive fields passed to a Hasher so that
// distinct sequences of inputs cannot collide once concatenated.
var hashDelimiter = []byte{';'}

// H256 is a 256-bit digest.
type H256 [32]byte

// Bytes returns the digest as a byte slice.
func (h H256) Bytes() []byte { return h[:] }

// IsZero reports whether the digest is the all-zero value.
func (h H256) IsZero() bool { return h == H256{} }

// Hasher is a domain-separated wrapper around Blake3. Every call to
// Update is equivalent to appending its argument followed by a single
// delimiter byte, so callers never need to length-prefix fields
// themselves: "leaf" + id is distinguishable from "le" + "af" + id.
type Hasher struct {
	inner *blake3.Hasher
}

// NewHasher creates an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{inner: blake3.New(32, nil)}
}

// Update appends data followed by the field delimiter and returns the
// Hasher so calls can be chained.
func (h *Hasher) Update(data []byte) *Hasher {
	h.inner.Write(data)
	h.inner.Write(hashDelimiter)
	return h
}

// Finalize returns the 256-bit digest of everything written so far.
func (h *Hasher) Finalize() H256 {
	var out H256
	sum := h.inner.Sum(nil)
	copy(out[:], sum)
	return out
}

// HashFields is a convenience wrapper that hashes a sequence of byte
// slices in order, each delimited, in a single call.
func HashFields(fields ...[]byte) H256 {
	h := NewHasher()
	for _, f := range fields {
		h.Update(f)
	}
	return h.Finalize()
}
