package dapol

import (
	"github.com/gtank/ristretto255"
)

// domain separation tags for leaf vs padding node hashes (spec.md §3).
var (
	domainLeaf = []byte("leaf")
	domainPad  = []byte("pad")
)

// FullNodeContent is the content carried by nodes during tree
// construction and by the path being proven: the secret liability and
// blinding factor, the Pedersen commitment to them, and the
// content-binding hash. It must never be attached to a sibling disclosed
// in a proof (see HiddenNodeContent).
type FullNodeContent struct {
	Liability uint64
	Blinding  *Scalar
	Commit    *Commitment
	Hash      H256
}

// HiddenNodeContent is the commitment+hash view of a node with all secret
// material stripped. Inclusion-proof siblings always carry this type so
// that a proof leaks nothing about entities other than the one being
// proven.
type HiddenNodeContent struct {
	Commit *Commitment
	Hash   H256
}

// Hide drops the secret liability/blinding, returning the public view of
// a FullNodeContent. This is a one-way operation by construction: there
// is no exported function that reattaches secrets to a HiddenNodeContent.
func (c FullNodeContent) Hide() HiddenNodeContent {
	return HiddenNodeContent{Commit: c.Commit, Hash: c.Hash}
}

// Equal implements the node-content equality used when reconstructing a
// path and comparing it to a claimed root. Per spec.md §9's root-hidden
// open question, equality considers only the hash: the commitment at the
// root is recovered by reconstruction and checked separately by
// Tree.VerifyRootCommitment, not by this comparison.
func (c HiddenNodeContent) Equal(other HiddenNodeContent) bool {
	return c.Hash == other.Hash
}

// mergeFull implements the FullNodeContent merge law (spec.md §3):
// liabilities and blinding factors sum, commitments sum homomorphically,
// and the hash binds both children's commitments and hashes.
func mergeFull(left, right FullNodeContent) FullNodeContent {
	liability := left.Liability + right.Liability
	blinding := ristretto255.NewScalar().Add(left.Blinding, right.Blinding)
	commitment := ristretto255.NewElement().Add(left.Commit, right.Commit)
	hash := HashFields(left.Commit.Encode(nil), right.Commit.Encode(nil), left.Hash.Bytes(), right.Hash.Bytes())
	return FullNodeContent{
		Liability: liability,
		Blinding:  blinding,
		Commit:    commitment,
		Hash:      hash,
	}
}

// mergeHidden implements the same merge law over hidden content: the
// commitment sums homomorphically (no secrets required to do that) and
// the hash is recomputed identically to mergeFull.
func mergeHidden(left, right HiddenNodeContent) HiddenNodeContent {
	commitment := ristretto255.NewElement().Add(left.Commit, right.Commit)
	hash := HashFields(left.Commit.Encode(nil), right.Commit.Encode(nil), left.Hash.Bytes(), right.Hash.Bytes())
	return HiddenNodeContent{Commit: commitment, Hash: hash}
}

// contentFactory derives node content from the tree's secret material. It
// is the Go equivalent of the original design's "padding node generator"
// closure (spec.md §9): a small struct carrying (master_secret, salt_b,
// salt_s) read-only and safe to share across goroutines, rather than a
// closure capturing package-global secrets.
type contentFactory struct {
	masterSecret Secret
	saltB        Secret
	saltS        Secret
}

// witness derives the per-coordinate secret w and from it returns the
// blinding factor and salt shared by both leaf and padding construction
// (spec.md §3).
func (f contentFactory) witness(coordBytes []byte) (blinding *Scalar, salt Key) {
	w := GenerateKey(nil, f.masterSecret.Bytes(), coordBytes)
	bf := GenerateKey(&f.saltB, w.Bytes(), nil)
	s := GenerateKey(&f.saltS, w.Bytes(), nil)
	return scalarFromKey(bf), s
}

// NewLeaf constructs the FullNodeContent for a real entity leaf at coord,
// bound to entityID.
func (f contentFactory) NewLeaf(coord Coord, entityID []byte, liability uint64) FullNodeContent {
	blinding, salt := f.witness(coord.Bytes())
	commitment := commit(defaultGens, liability, blinding)
	hash := HashFields(domainLeaf, entityID, salt.Bytes())
	return FullNodeContent{Liability: liability, Blinding: blinding, Commit: commitment, Hash: hash}
}

// NewPadding constructs the FullNodeContent for a padding node (any
// y>0 node, or an empty leaf position) at coord. Padding nodes always
// carry liability 0, and the "pad" domain tag prevents a second-preimage
// collision between a padding node and a real leaf.
func (f contentFactory) NewPadding(coord Coord) FullNodeContent {
	blinding, salt := f.witness(coord.Bytes())
	commitment := commit(defaultGens, 0, blinding)
	hash := HashFields(domainPad, coord.Bytes(), salt.Bytes())
	return FullNodeContent{Liability: 0, Blinding: blinding, Commit: commitment, Hash: hash}
}

// PadFunc matches the generic padding-node-generator contract used by the
// tree builder (spec.md §4.5, §9).
type PadFunc[C any] func(coord Coord) C

// AsFullPadFunc adapts the factory into a PadFunc[FullNodeContent], the
// form the builders consume.
func (f contentFactory) AsFullPadFunc() PadFunc[FullNodeContent] {
	return func(coord Coord) FullNodeContent { return f.NewPadding(coord) }
}
