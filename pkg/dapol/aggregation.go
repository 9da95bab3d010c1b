package dapol

// AggregationFactor controls how many of an inclusion proof's path nodes
// (counted bottom-up from the leaf) go into a single aggregated range
// proof versus individual per-node range proofs (spec.md §4.7). Bigger
// aggregated batches produce a smaller overall proof at the cost of
// needing a power-of-two number of commitments, hence the split.
type AggregationFactor struct {
	kind aggregationKind
	n    uint8
}

type aggregationKind uint8

const (
	aggregationPercent aggregationKind = iota
	aggregationDivisor
)

// DefaultAggregationFactor aggregates the entire path into one proof
// (spec.md §4.7's "default is 100% aggregation").
var DefaultAggregationFactor = Percent(100)

// Percent returns an AggregationFactor with k = floor(height * p / 100).
func Percent(p uint8) AggregationFactor {
	return AggregationFactor{kind: aggregationPercent, n: p}
}

// Divisor returns an AggregationFactor with k = floor(height / d).
func Divisor(d uint8) AggregationFactor {
	if d == 0 {
		d = 1
	}
	return AggregationFactor{kind: aggregationDivisor, n: d}
}

// ApplyToHeight computes k, the number of bottom-up path nodes (leaf
// plus ancestors, root excluded) that go into the aggregated proof; the
// rest of that path goes to individual proofs (spec.md §4.7, step 2 of
// inclusion-proof generation, and spec.md §8 Scenario E: height=8 with
// Divisor(2) yields k=4 against a 7-node path, i.e. 4 aggregated + 3
// individual). The result is not capped: Percent(100) yields height,
// one more than the path length, and callers clamp k to the path.
func (f AggregationFactor) ApplyToHeight(height Height) int {
	h := int(height)
	switch f.kind {
	case aggregationDivisor:
		return h / int(f.n)
	default:
		return (h * int(f.n)) / 100
	}
}

// padToPowerOfTwo pads values/blindings up to the next power of two (or
// 1, if the input is empty) with (0,1) sentinel pairs, each of which
// commits to the fixed padding commitment g1^0 * g2^1 (spec.md §4.4).
// Returns the padded slices; inputs already at a power-of-two length are
// returned unchanged.
func padToPowerOfTwo(values []uint64, blindings []*Scalar) ([]uint64, []*Scalar) {
	target := nextPowerOfTwo(len(values))
	if target == len(values) {
		return values, blindings
	}

	paddedValues := make([]uint64, target)
	paddedBlindings := make([]*Scalar, target)
	copy(paddedValues, values)
	copy(paddedBlindings, blindings)
	for i := len(values); i < target; i++ {
		paddedValues[i] = 0
		paddedBlindings[i] = scalarOne()
	}
	return paddedValues, paddedBlindings
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
