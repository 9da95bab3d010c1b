package dapol

import "testing"

func buildTestFullTree(t *testing.T, height Height, entities map[uint64]uint64, storeDepth int) (*BinaryTree[FullNodeContent], contentFactory) {
	t.Helper()
	secret, err := NewSecret([]byte("test-master-secret"))
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	factory := contentFactory{masterSecret: secret, saltB: secret, saltS: secret}

	leaves := make([]Node[FullNodeContent], 0, len(entities))
	for x, liability := range entities {
		coord := Coord{Y: 0, X: x}
		entityID := []byte{byte(x)}
		leaves = append(leaves, Node[FullNodeContent]{Coord: coord, Content: factory.NewLeaf(coord, entityID, liability)})
	}

	tree, err := BuildSingleThreaded(height, leaves, factory.AsFullPadFunc(), mergeFull, storeDepth)
	if err != nil {
		t.Fatalf("BuildSingleThreaded: %v", err)
	}
	return tree, factory
}

func TestInclusionProof_RoundTrip_FullAggregation(t *testing.T) {
	height := mustHeight(t, 4) // max 8 leaves, k up to 4
	tree, _ := buildTestFullTree(t, height, map[uint64]uint64{0: 10, 3: 20, 5: 30}, 2)

	proof, err := GenerateInclusionProof(tree, 3, DefaultAggregationFactor, 8)
	if err != nil {
		t.Fatalf("GenerateInclusionProof: %v", err)
	}
	if proof.Aggregated == nil {
		t.Fatal("expected an aggregated proof under 100% aggregation")
	}
	if len(proof.Individual) != 0 {
		t.Fatalf("expected no individual proofs under 100%% aggregation, got %d", len(proof.Individual))
	}

	if err := proof.Verify(height, tree.Root.Content.Hash); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestInclusionProof_RoundTrip_PartialAggregation(t *testing.T) {
	height := mustHeight(t, 8)
	tree, _ := buildTestFullTree(t, height, map[uint64]uint64{1: 100, 50: 200, 127: 300}, 3)

	proof, err := GenerateInclusionProof(tree, 50, Divisor(2), 16)
	if err != nil {
		t.Fatalf("GenerateInclusionProof: %v", err)
	}
	if proof.Aggregated == nil || len(proof.Individual) == 0 {
		t.Fatalf("expected both an aggregated and individual portion, got aggregated=%v individual=%d", proof.Aggregated != nil, len(proof.Individual))
	}

	if err := proof.Verify(height, tree.Root.Content.Hash); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

// TestInclusionProof_DivisorSplitMatchesScenarioE pins the literal split
// counts from spec.md §8 Scenario E: height=8 with Divisor(2) must yield
// 4 aggregated + 3 individual proofs (7 total path nodes, root excluded).
func TestInclusionProof_DivisorSplitMatchesScenarioE(t *testing.T) {
	height := mustHeight(t, 8)
	tree, _ := buildTestFullTree(t, height, map[uint64]uint64{1: 100, 50: 200, 127: 300}, 3)

	proof, err := GenerateInclusionProof(tree, 50, Divisor(2), 16)
	if err != nil {
		t.Fatalf("GenerateInclusionProof: %v", err)
	}

	if proof.Aggregated == nil {
		t.Fatal("expected an aggregated proof")
	}
	const wantAggregated, wantIndividual = 4, 3
	if len(proof.Individual) != wantIndividual {
		t.Fatalf("expected %d individual proofs, got %d", wantIndividual, len(proof.Individual))
	}
	if got := proof.AggregationFactor.ApplyToHeight(height); got != wantAggregated {
		t.Fatalf("expected k=%d aggregated path nodes, got %d", wantAggregated, got)
	}

	if err := proof.Verify(height, tree.Root.Content.Hash); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestInclusionProof_RejectsWrongRoot(t *testing.T) {
	height := mustHeight(t, 4)
	tree, _ := buildTestFullTree(t, height, map[uint64]uint64{2: 5, 6: 7}, 2)

	proof, err := GenerateInclusionProof(tree, 2, DefaultAggregationFactor, 8)
	if err != nil {
		t.Fatalf("GenerateInclusionProof: %v", err)
	}

	var wrongRoot H256
	wrongRoot[0] = 0xFF
	if err := proof.Verify(height, wrongRoot); err != ErrRootMismatch {
		t.Fatalf("expected ErrRootMismatch, got %v", err)
	}
}

func TestInclusionProof_MissingRangeProofRejected(t *testing.T) {
	height := mustHeight(t, 4)
	tree, _ := buildTestFullTree(t, height, map[uint64]uint64{0: 1, 1: 2}, 2)

	proof, err := GenerateInclusionProof(tree, 0, DefaultAggregationFactor, 8)
	if err != nil {
		t.Fatalf("GenerateInclusionProof: %v", err)
	}
	proof.Aggregated = nil
	proof.Individual = nil

	if err := proof.Verify(height, tree.Root.Content.Hash); err != ErrMissingRangeProof {
		t.Fatalf("expected ErrMissingRangeProof, got %v", err)
	}
}
