package dapol

import "fmt"

// DefaultUpperBoundBitLength is n in Bulletproofs' [0, 2^n) range,
// governing the maximum liability a tree can prove without overflow
// (spec.md §4.7).
const DefaultUpperBoundBitLength = 32

// InclusionProof demonstrates that an entity's leaf is part of a tree
// with a given root, and that every liability from the leaf to the root
// is non-negative, without revealing any other entity's data
// (spec.md §4.8).
type InclusionProof struct {
	LeafX      uint64
	Leaf       FullNodeContent
	Siblings   []Node[HiddenNodeContent]
	Aggregated *RangeProof
	Individual []*RangeProof

	AggregationFactor AggregationFactor
	NBits              int
}

// GenerateInclusionProof builds an InclusionProof for the leaf at x
// within tree, splitting the bottom-up path into an aggregated range
// proof over the first k nodes and individual proofs over the rest,
// where k = aggregationFactor.ApplyToHeight(height) (spec.md §4.8,
// Generation).
func GenerateInclusionProof(tree *BinaryTree[FullNodeContent], x uint64, aggregationFactor AggregationFactor, nBits int) (*InclusionProof, error) {
	ps, err := BuildPathSiblings(tree, x)
	if err != nil {
		return nil, err
	}
	ancestors, err := ps.Reconstruct(tree.Height, mergeFull)
	if err != nil {
		return nil, err
	}

	// fullPath is the split-eligible portion of the path: the leaf plus
	// every ancestor up to but not including the root. The root's
	// liability is the tree total and is never range-proved on its own
	// (spec.md §8 Scenario E: height=8 splits into 4+3 = 7 nodes, not 8).
	fullPath := make([]Node[FullNodeContent], 0, len(ancestors))
	fullPath = append(fullPath, ps.Leaf)
	fullPath = append(fullPath, ancestors[:len(ancestors)-1]...)

	k := aggregationFactor.ApplyToHeight(tree.Height)
	if k > len(fullPath) {
		k = len(fullPath)
	}

	var aggregated *RangeProof
	if k > 0 {
		values := make([]uint64, k)
		blindings := make([]*Scalar, k)
		for i := 0; i < k; i++ {
			values[i] = fullPath[i].Content.Liability
			blindings[i] = fullPath[i].Content.Blinding
		}
		paddedValues, paddedBlindings := padToPowerOfTwo(values, blindings)
		transcript := NewTranscript("dapol/range-proof/aggregated")
		aggregated, err = ProveAggregated(transcript, paddedValues, paddedBlindings, nBits)
		if err != nil {
			return nil, err
		}
	}

	individual := make([]*RangeProof, 0, len(fullPath)-k)
	for i := k; i < len(fullPath); i++ {
		transcript := NewTranscript(fmt.Sprintf("dapol/range-proof/individual/%d", i))
		rp, err := ProveIndividual(transcript, fullPath[i].Content.Liability, fullPath[i].Content.Blinding, nBits)
		if err != nil {
			return nil, err
		}
		individual = append(individual, rp)
	}

	hiddenSiblings := make([]Node[HiddenNodeContent], len(ps.Siblings))
	for i, s := range ps.Siblings {
		hiddenSiblings[i] = Node[HiddenNodeContent]{Coord: s.Coord, Content: s.Content.Hide()}
	}

	return &InclusionProof{
		LeafX:             x,
		Leaf:              ps.Leaf.Content,
		Siblings:          hiddenSiblings,
		Aggregated:        aggregated,
		Individual:        individual,
		AggregationFactor: aggregationFactor,
		NBits:             nBits,
	}, nil
}

// Verify checks that the proof's leaf actually belongs to a tree with
// the given root hash, and that every liability along the path to the
// root is within [0, 2^n) (spec.md §4.8, Verification).
func (p *InclusionProof) Verify(height Height, rootHash H256) error {
	if p.Aggregated == nil && len(p.Individual) == 0 {
		return ErrMissingRangeProof
	}

	leafNode := Node[HiddenNodeContent]{
		Coord:   Coord{Y: 0, X: p.LeafX},
		Content: p.Leaf.Hide(),
	}
	ps := &PathSiblings[HiddenNodeContent]{Leaf: leafNode, Siblings: p.Siblings}

	ancestors, err := ps.Reconstruct(height, mergeHidden)
	if err != nil {
		return err
	}

	root := ancestors[len(ancestors)-1]
	if !root.Content.Equal(HiddenNodeContent{Hash: rootHash}) {
		return ErrRootMismatch
	}

	// See the matching comment in GenerateInclusionProof: the root is
	// excluded from the split-eligible path.
	fullPath := make([]Node[HiddenNodeContent], 0, len(ancestors))
	fullPath = append(fullPath, leafNode)
	fullPath = append(fullPath, ancestors[:len(ancestors)-1]...)

	k := p.AggregationFactor.ApplyToHeight(height)
	if k > len(fullPath) {
		k = len(fullPath)
	}

	if p.Aggregated != nil {
		commitments := make([]*Commitment, k)
		for i := 0; i < k; i++ {
			commitments[i] = fullPath[i].Content.Commit
		}
		paddedCommitments := padCommitmentsToPowerOfTwo(commitments)
		transcript := NewTranscript("dapol/range-proof/aggregated")
		if err := VerifyAggregated(transcript, paddedCommitments, p.Aggregated, p.NBits); err != nil {
			return err
		}
	}

	if len(p.Individual) != len(fullPath)-k {
		return ErrMissingRangeProof
	}
	for i, rp := range p.Individual {
		idx := k + i
		transcript := NewTranscript(fmt.Sprintf("dapol/range-proof/individual/%d", idx))
		if err := VerifyIndividual(transcript, fullPath[idx].Content.Commit, rp, p.NBits); err != nil {
			return err
		}
	}

	return nil
}

// padCommitmentsToPowerOfTwo mirrors padToPowerOfTwo for the verifier,
// which only has commitments (not blindings) to pad with: the sentinel
// commitment g1^0*g2^1 is fixed and public, so it can be appended
// directly without needing the padding blinding factor.
func padCommitmentsToPowerOfTwo(commitments []*Commitment) []*Commitment {
	target := nextPowerOfTwo(len(commitments))
	if target == len(commitments) {
		return commitments
	}
	out := make([]*Commitment, target)
	copy(out, commitments)
	sentinel := commitScalar(scalarZero(), scalarOne())
	for i := len(commitments); i < target; i++ {
		out[i] = sentinel
	}
	return out
}
