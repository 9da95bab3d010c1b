package dapol

import "testing"

// Known-answer test: blake3("dapol" + ";" + "PoR" + ";") — see
// original_source/src/hasher.rs for the reference vector this mirrors.
func TestHasher_KnownAnswer(t *testing.T) {
	h := NewHasher()
	h.Update([]byte("dapol"))
	h.Update([]byte("PoR"))
	got := h.Finalize()

	want := H256{
		0xb0, 0x42, 0x4a, 0xe2, 0x3f, 0xcc, 0xe6, 0x72,
		0xaa, 0xff, 0x99, 0xe9, 0xf4, 0x33, 0x28, 0x6e,
		0x27, 0x11, 0x99, 0x39, 0xa2, 0x80, 0x74, 0x35,
		0x39, 0x78, 0x3b, 0xa7, 0xaa, 0xde, 0x82, 0x94,
	}
	if got != want {
		t.Fatalf("hash mismatch: got %x want %x", got, want)
	}
}

func TestHasher_DelimiterPreventsCollision(t *testing.T) {
	a := HashFields([]byte("le"), []byte("af"))
	b := HashFields([]byte("leaf"))
	if a == b {
		t.Fatalf("expected distinct hashes for split vs joined fields")
	}
}

func TestHasher_Deterministic(t *testing.T) {
	a := HashFields([]byte("x"), []byte("y"), []byte("z"))
	b := HashFields([]byte("x"), []byte("y"), []byte("z"))
	if a != b {
		t.Fatalf("expected identical hash for identical inputs")
	}
}
