package dapol

import "testing"

func TestAggregationFactor_ApplyToHeight(t *testing.T) {
	height := mustHeight(t, 8)

	if k := DefaultAggregationFactor.ApplyToHeight(height); k != 8 {
		t.Errorf("default (100%%) aggregation: got k=%d, want 8", k)
	}
	if k := Percent(50).ApplyToHeight(height); k != 4 {
		t.Errorf("Percent(50) of height 8: got k=%d, want 4", k)
	}
	if k := Divisor(2).ApplyToHeight(height); k != 4 {
		t.Errorf("Divisor(2) of height 8: got k=%d, want 4", k)
	}
	if k := Divisor(0).ApplyToHeight(height); k != 8 {
		t.Errorf("Divisor(0) should fall back to Divisor(1): got k=%d, want 8", k)
	}
}

func TestPadToPowerOfTwo(t *testing.T) {
	values := []uint64{10, 20, 30}
	blindings := []*Scalar{randomScalar(), randomScalar(), randomScalar()}

	paddedValues, paddedBlindings := padToPowerOfTwo(values, blindings)
	if len(paddedValues) != 4 || len(paddedBlindings) != 4 {
		t.Fatalf("expected padding to 4, got %d values / %d blindings", len(paddedValues), len(paddedBlindings))
	}
	if paddedValues[3] != 0 {
		t.Errorf("expected sentinel value 0, got %d", paddedValues[3])
	}
	sentinelCommit := commitScalar(scalarZero(), paddedBlindings[3])
	fixedPadCommit := commitScalar(scalarZero(), scalarOne())
	if sentinelCommit.Equal(fixedPadCommit) != 1 {
		t.Error("sentinel pair should commit to the fixed g1^0 * g2^1 padding commitment")
	}
}

func TestPadToPowerOfTwo_AlreadyPowerOfTwo(t *testing.T) {
	values := []uint64{1, 2, 3, 4}
	blindings := []*Scalar{randomScalar(), randomScalar(), randomScalar(), randomScalar()}

	paddedValues, paddedBlindings := padToPowerOfTwo(values, blindings)
	if len(paddedValues) != 4 || len(paddedBlindings) != 4 {
		t.Fatalf("expected no padding, got %d values", len(paddedValues))
	}
}
