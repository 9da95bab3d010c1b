package dapol

import (
	"io"

	"github.com/silversixpence-crypto/dapol/pkg/log"
)

var treeFacadeLog = log.Default().Module("tree")

// AccumulatorType names the leaf-to-entity mapping strategy a Tree uses.
// NDM-SMT (the only one implemented here, per spec.md §4.4) assigns
// leaves via a non-deterministic shuffle so that an entity's position in
// the tree leaks no information about its liability rank.
type AccumulatorType string

// NDMSMT is the accumulator type implemented by this package.
const NDMSMT AccumulatorType = "ndm-smt"

// Tree bundles everything needed to build proofs and re-derive the root
// opening for an NDM-SMT proof-of-liabilities accumulator (spec.md §4.9).
type Tree struct {
	AccumulatorType AccumulatorType
	Height          Height
	StoreDepth      int
	MaxLiability    uint64
	NBits           int

	factory contentFactory
	mapping *EntityMapping
	store   *BinaryTree[FullNodeContent]
}

// NewTree builds a fresh NDM-SMT tree over entities. source, if non-nil,
// seeds the entity-to-leaf shuffle deterministically (tests only — real
// callers pass nil for crypto/rand.Reader per spec.md §9).
func NewTree(accumulatorType AccumulatorType, masterSecret, saltB, saltS Secret, maxLiability uint64, nBits int, height Height, storeDepth, maxThreads int, entities []Entity, source io.Reader) (*Tree, error) {
	if accumulatorType != NDMSMT {
		return nil, ErrUnsupportedAccumulatorType
	}

	mapping, err := NewEntityMapping(height, entities, source)
	if err != nil {
		return nil, err
	}

	factory := contentFactory{masterSecret: masterSecret, saltB: saltB, saltS: saltS}

	leaves := make([]Node[FullNodeContent], 0, len(entities))
	for _, e := range entities {
		if e.Liability > maxLiability {
			return nil, ErrLiabilityExceedsMax
		}
		x, _ := mapping.XOf(e.ID)
		coord := Coord{Y: 0, X: x}
		leaves = append(leaves, Node[FullNodeContent]{Coord: coord, Content: factory.NewLeaf(coord, e.ID, e.Liability)})
	}

	var tree *BinaryTree[FullNodeContent]
	if maxThreads <= 1 {
		tree, err = BuildSingleThreaded(height, leaves, factory.AsFullPadFunc(), mergeFull, storeDepth)
	} else {
		tree, err = BuildParallel(height, leaves, factory.AsFullPadFunc(), mergeFull, storeDepth, maxThreads)
	}
	if err != nil {
		return nil, err
	}

	treeFacadeLog.Info("built tree",
		"height", height, "entities", len(entities), "store_depth", storeDepth, "root_hash", tree.Root.Content.Hash)

	return &Tree{
		AccumulatorType: accumulatorType,
		Height:          height,
		StoreDepth:      storeDepth,
		MaxLiability:    maxLiability,
		NBits:           nBits,
		factory:         factory,
		mapping:         mapping,
		store:           tree,
	}, nil
}

// GenerateInclusionProof builds a proof for entityID using the tree's
// default (100%) aggregation factor.
func (t *Tree) GenerateInclusionProof(entityID []byte) (*InclusionProof, error) {
	return t.GenerateInclusionProofWith(entityID, DefaultAggregationFactor)
}

// GenerateInclusionProofWith builds a proof for entityID using a caller-
// supplied aggregation factor (spec.md §4.9).
func (t *Tree) GenerateInclusionProofWith(entityID []byte, aggregationFactor AggregationFactor) (*InclusionProof, error) {
	x, ok := t.mapping.XOf(entityID)
	if !ok {
		return nil, ErrEntityNotFound
	}
	return GenerateInclusionProof(t.store, x, aggregationFactor, t.NBits)
}

// RootHash returns the tree's root content-binding hash.
func (t *Tree) RootHash() H256 { return t.store.Root.Content.Hash }

// RootCommitment returns the root's Pedersen commitment, the public
// half of the root opening (spec.md §4.9, §6 "Root-node files").
func (t *Tree) RootCommitment() *Commitment { return t.store.Root.Content.Commit }

// RootLiability returns the sum of every leaf's liability, the secret
// half of the root opening.
func (t *Tree) RootLiability() uint64 { return t.store.Root.Content.Liability }

// RootBlindingFactor returns the root's blinding factor, the other half
// of the secret root opening.
func (t *Tree) RootBlindingFactor() *Scalar { return t.store.Root.Content.Blinding }

// VerifyRootCommitment recomputes g1^liability * g2^blinding and checks
// it against a publicly-published commitment, confirming that the two
// root-data files opened together really do reconstitute the published
// commitment (spec.md §4.9, §6 "Root-node files").
func VerifyRootCommitment(publicCommitment *Commitment, liability uint64, blinding *Scalar) bool {
	recomputed := commit(defaultGens, liability, blinding)
	return recomputed.Equal(publicCommitment) == 1
}
