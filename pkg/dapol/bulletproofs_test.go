package dapol

import "testing"

func TestRangeProof_IndividualRoundTrip(t *testing.T) {
	blinding := randomScalar()
	value := uint64(200)

	commitment := commitScalar(scalarFromUint64(value), blinding)

	proveTranscript := NewTranscript("dapol/range-proof-test")
	proof, err := ProveIndividual(proveTranscript, value, blinding, 8)
	if err != nil {
		t.Fatalf("ProveIndividual: %v", err)
	}

	verifyTranscript := NewTranscript("dapol/range-proof-test")
	if err := VerifyIndividual(verifyTranscript, commitment, proof, 8); err != nil {
		t.Fatalf("VerifyIndividual: %v", err)
	}
}

func TestRangeProof_AggregatedRoundTrip(t *testing.T) {
	values := []uint64{3, 17, 255, 0}
	blindings := make([]*Scalar, len(values))
	commitments := make([]*Commitment, len(values))
	for i, v := range values {
		blindings[i] = randomScalar()
		commitments[i] = commitScalar(scalarFromUint64(v), blindings[i])
	}

	proveTranscript := NewTranscript("dapol/agg-range-proof-test")
	proof, err := ProveAggregated(proveTranscript, values, blindings, 8)
	if err != nil {
		t.Fatalf("ProveAggregated: %v", err)
	}

	verifyTranscript := NewTranscript("dapol/agg-range-proof-test")
	if err := VerifyAggregated(verifyTranscript, commitments, proof, 8); err != nil {
		t.Fatalf("VerifyAggregated: %v", err)
	}
}

func TestRangeProof_RejectsNonPowerOfTwoAggregation(t *testing.T) {
	values := []uint64{1, 2, 3}
	blindings := []*Scalar{randomScalar(), randomScalar(), randomScalar()}

	if _, err := ProveAggregated(NewTranscript("t"), values, blindings, 8); err == nil {
		t.Fatal("expected an error for a non-power-of-two aggregation size")
	}
}

func TestRangeProof_RejectsUnsupportedBitWidth(t *testing.T) {
	if _, err := ProveIndividual(NewTranscript("t"), 5, randomScalar(), 24); err == nil {
		t.Fatal("expected an error for an unsupported bit width")
	}
}
