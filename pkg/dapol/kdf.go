package dapol

import (
	"errors"

	"lukechampine.com/blake3"
)

// SecretLen is the fixed size of master secrets, salts, and derived keys.
const SecretLen = 32

// ErrSecretTooLong is returned when a secret-like value exceeds SecretLen.
var ErrSecretTooLong = errors.New("dapol: secret exceeds 32 bytes")

// Secret is an opaque 32-byte value used as a master secret, salt, or
// derived key. Shorter inputs are right-padded with zeroes.
type Secret [SecretLen]byte

// NewSecret builds a Secret from a byte slice, zero-padding on the right.
// It fails if the input is longer than SecretLen.
func NewSecret(b []byte) (Secret, error) {
	var s Secret
	if len(b) > SecretLen {
		return s, ErrSecretTooLong
	}
	copy(s[:], b)
	return s, nil
}

// Bytes returns the secret as a slice view.
func (s Secret) Bytes() []byte { return s[:] }

// Key is a 32-byte value derived by the KDF.
type Key [32]byte

// Bytes returns the key as a slice view.
func (k Key) Bytes() []byte { return k[:] }

// GenerateKey derives a 32-byte key from ikm (input keying material),
// optionally keyed by salt and bound to an optional info/context string.
// It is a keyed Blake3 hash: GenerateKey(salt, ikm, info) =
// Blake3_keyed(salt, ikm || info). When salt is nil the ikm itself acts as
// the keying material for a plain (unkeyed) Blake3 hash, which is the
// construction used to derive the per-node secret w from the master
// secret (there is no independent salt at that step — see
// contentFactory.witness).
func GenerateKey(salt *Secret, ikm []byte, info []byte) Key {
	var h *blake3.Hasher
	if salt != nil {
		h = blake3.New(32, salt.Bytes())
	} else {
		h = blake3.New(32, nil)
	}
	h.Write(ikm)
	if info != nil {
		h.Write(info)
	}
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}
