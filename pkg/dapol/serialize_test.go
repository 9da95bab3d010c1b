package dapol

import (
	"math/rand"
	"testing"

	"github.com/gtank/ristretto255"
)

func buildSerializeTestTree(t *testing.T) *Tree {
	t.Helper()
	secret, err := NewSecret([]byte("master"))
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	saltB, _ := NewSecret([]byte("salt-b"))
	saltS, _ := NewSecret([]byte("salt-s"))

	height := mustHeight(t, 5)
	entities := []Entity{
		{ID: []byte("alice"), Liability: 100},
		{ID: []byte("bob"), Liability: 250},
		{ID: []byte("carol"), Liability: 50},
	}

	tree, err := NewTree(NDMSMT, secret, saltB, saltS, 1_000_000, 32, height, 2, 1, entities, deterministicSource{rand.New(rand.NewSource(7))})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func TestTree_BinaryRoundTrip(t *testing.T) {
	tree := buildSerializeTestTree(t)

	data, err := tree.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	restored, err := UnmarshalTreeBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalTreeBinary: %v", err)
	}

	if restored.RootHash() != tree.RootHash() {
		t.Fatal("restored tree root hash does not match original")
	}
	if restored.RootLiability() != tree.RootLiability() {
		t.Fatalf("restored liability = %d, want %d", restored.RootLiability(), tree.RootLiability())
	}
	if restored.RootCommitment().Equal(tree.RootCommitment()) != 1 {
		t.Fatal("restored root commitment does not match original")
	}

	proof, err := restored.GenerateInclusionProof([]byte("bob"))
	if err != nil {
		t.Fatalf("GenerateInclusionProof on restored tree: %v", err)
	}
	if err := proof.Verify(restored.Height, restored.RootHash()); err != nil {
		t.Fatalf("proof.Verify on restored tree: %v", err)
	}
}

func TestUnmarshalTreeBinary_RejectsMissingPrefix(t *testing.T) {
	if _, err := UnmarshalTreeBinary([]byte("not a dapol tree file")); err != ErrUnrecognizedTreeFile {
		t.Fatalf("expected ErrUnrecognizedTreeFile, got %v", err)
	}
}

func TestInclusionProof_BinaryRoundTrip(t *testing.T) {
	tree := buildSerializeTestTree(t)
	proof, err := tree.GenerateInclusionProofWith([]byte("alice"), Divisor(2))
	if err != nil {
		t.Fatalf("GenerateInclusionProofWith: %v", err)
	}

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	restored, err := UnmarshalInclusionProofBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalInclusionProofBinary: %v", err)
	}

	if err := restored.Verify(tree.Height, tree.RootHash()); err != nil {
		t.Fatalf("restored proof.Verify: %v", err)
	}
}

func TestInclusionProof_JSONRoundTrip(t *testing.T) {
	tree := buildSerializeTestTree(t)
	proof, err := tree.GenerateInclusionProof([]byte("carol"))
	if err != nil {
		t.Fatalf("GenerateInclusionProof: %v", err)
	}

	data, err := proof.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	restored, err := UnmarshalInclusionProofJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalInclusionProofJSON: %v", err)
	}

	if err := restored.Verify(tree.Height, tree.RootHash()); err != nil {
		t.Fatalf("restored proof.Verify: %v", err)
	}
}

func TestTree_RootData(t *testing.T) {
	tree := buildSerializeTestTree(t)
	pub, sec := tree.RootData()

	if len(pub.Hash) != 32 {
		t.Fatalf("public root hash length = %d, want 32", len(pub.Hash))
	}
	if sec.Liability != tree.RootLiability() {
		t.Fatalf("secret root liability = %d, want %d", sec.Liability, tree.RootLiability())
	}

	blinding := ristretto255.NewScalar()
	if _, err := blinding.SetCanonicalBytes(sec.BlindingFactor); err != nil {
		t.Fatalf("decoding blinding factor: %v", err)
	}
	if !VerifyRootCommitment(tree.RootCommitment(), sec.Liability, blinding) {
		t.Fatal("root data pair does not open the published commitment")
	}
}
