package dapol

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gtank/ristretto255"
)

// treeFilePrefix is written at the start of every serialized tree so a
// reader can recognize the format before attempting to decode it
// (spec.md §6, "Serialized tree").
const treeFilePrefix = "proof_of_liabilities_merkle_sum_tree_"

// rlpNode is the wire form of a single stored FullNodeContent node: the
// Ristretto255 Scalar/Element types aren't themselves RLP-encodable, so
// every node is flattened to its canonical byte encoding before framing.
type rlpNode struct {
	Y         uint8
	X         uint64
	Liability uint64
	Blinding  []byte
	Commit    []byte
	Hash      []byte
}

type rlpTree struct {
	AccumulatorType string
	Height          uint8
	StoreDepth      uint64
	MaxLiability    uint64
	NBits           uint64
	MasterSecret    []byte
	SaltB           []byte
	SaltS           []byte
	Nodes           []rlpNode

	EntityIDs         [][]byte
	EntityXs          []uint64
	EntityLiabilities []uint64
}

// MarshalBinary encodes the tree as a `.dapoltree` file: the fixed
// prefix followed by an RLP-encoded rlpTree (spec.md §6).
func (t *Tree) MarshalBinary() ([]byte, error) {
	r := rlpTree{
		AccumulatorType: string(t.AccumulatorType),
		Height:          uint8(t.Height),
		StoreDepth:      uint64(t.StoreDepth),
		MaxLiability:    t.MaxLiability,
		NBits:           uint64(t.NBits),
		MasterSecret:    t.factory.masterSecret.Bytes(),
		SaltB:           t.factory.saltB.Bytes(),
		SaltS:           t.factory.saltS.Bytes(),
	}

	for coord, n := range t.store.store {
		r.Nodes = append(r.Nodes, rlpNode{
			Y:         coord.Y,
			X:         coord.X,
			Liability: n.Content.Liability,
			Blinding:  n.Content.Blinding.Encode(nil),
			Commit:    n.Content.Commit.Encode(nil),
			Hash:      n.Content.Hash.Bytes(),
		})
	}

	sort.Slice(r.Nodes, func(i, j int) bool {
		if r.Nodes[i].Y != r.Nodes[j].Y {
			return r.Nodes[i].Y < r.Nodes[j].Y
		}
		return r.Nodes[i].X < r.Nodes[j].X
	})

	for _, e := range t.mapping.Entities() {
		x, _ := t.mapping.XOf(e.ID)
		r.EntityIDs = append(r.EntityIDs, e.ID)
		r.EntityXs = append(r.EntityXs, x)
		r.EntityLiabilities = append(r.EntityLiabilities, e.Liability)
	}

	body, err := rlp.EncodeToBytes(r)
	if err != nil {
		return nil, fmt.Errorf("dapol: encoding tree: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(treeFilePrefix)
	buf.Write(body)
	return buf.Bytes(), nil
}

// UnmarshalTreeBinary decodes a `.dapoltree` file produced by
// (*Tree).MarshalBinary.
func UnmarshalTreeBinary(data []byte) (*Tree, error) {
	prefix := []byte(treeFilePrefix)
	if len(data) < len(prefix) || !bytes.Equal(data[:len(prefix)], prefix) {
		return nil, ErrUnrecognizedTreeFile
	}

	var r rlpTree
	if err := rlp.DecodeBytes(data[len(prefix):], &r); err != nil {
		return nil, fmt.Errorf("dapol: decoding tree: %w", err)
	}

	masterSecret, err := NewSecret(r.MasterSecret)
	if err != nil {
		return nil, err
	}
	saltB, err := NewSecret(r.SaltB)
	if err != nil {
		return nil, err
	}
	saltS, err := NewSecret(r.SaltS)
	if err != nil {
		return nil, err
	}
	factory := contentFactory{masterSecret: masterSecret, saltB: saltB, saltS: saltS}

	height, err := NewHeight(r.Height)
	if err != nil {
		return nil, err
	}

	store := make(map[Coord]Node[FullNodeContent], len(r.Nodes))
	for _, rn := range r.Nodes {
		content, err := decodeFullNodeContent(rn)
		if err != nil {
			return nil, err
		}
		coord := Coord{Y: rn.Y, X: rn.X}
		store[coord] = Node[FullNodeContent]{Coord: coord, Content: content}
	}

	root, ok := store[Coord{Y: uint8(height) - 1, X: 0}]
	if !ok {
		return nil, ErrCorruptTreeFile
	}

	leafXs := make(map[uint64]struct{}, len(r.EntityXs))
	entities := make([]Entity, len(r.EntityIDs))
	idToX := make(map[string]uint64, len(r.EntityIDs))
	for i := range r.EntityIDs {
		entities[i] = Entity{ID: r.EntityIDs[i], Liability: r.EntityLiabilities[i]}
		idToX[string(r.EntityIDs[i])] = r.EntityXs[i]
		leafXs[r.EntityXs[i]] = struct{}{}
	}

	bt := &BinaryTree[FullNodeContent]{
		Height:     height,
		StoreDepth: int(r.StoreDepth),
		Root:       root,
		store:      store,
		merge:      mergeFull,
		pad:        factory.AsFullPadFunc(),
		leafXs:     leafXs,
	}

	return &Tree{
		AccumulatorType: AccumulatorType(r.AccumulatorType),
		Height:          height,
		StoreDepth:      int(r.StoreDepth),
		MaxLiability:    r.MaxLiability,
		NBits:           int(r.NBits),
		factory:         factory,
		mapping:         &EntityMapping{idToX: idToX, order: entities},
		store:           bt,
	}, nil
}

func decodeFullNodeContent(rn rlpNode) (FullNodeContent, error) {
	blinding := ristretto255.NewScalar()
	if _, err := blinding.SetCanonicalBytes(rn.Blinding); err != nil {
		return FullNodeContent{}, fmt.Errorf("dapol: decoding blinding factor: %w", err)
	}
	commitment := ristretto255.NewElement()
	if _, err := commitment.Decode(rn.Commit); err != nil {
		return FullNodeContent{}, fmt.Errorf("dapol: decoding commitment: %w", err)
	}
	var hash H256
	copy(hash[:], rn.Hash)
	return FullNodeContent{Liability: rn.Liability, Blinding: blinding, Commit: commitment, Hash: hash}, nil
}

// rlpRangeProof is the wire form of a RangeProof.
type rlpRangeProof struct {
	NBits uint64
	A, S, T1, T2 []byte
	TX, TauX, Mu []byte
	IPPLs, IPPRs [][]byte
	IPPA, IPPB   []byte
}

func encodeRangeProof(rp *RangeProof) rlpRangeProof {
	ls := make([][]byte, len(rp.IPP.Ls))
	rs := make([][]byte, len(rp.IPP.Rs))
	for i, l := range rp.IPP.Ls {
		ls[i] = l.Encode(nil)
	}
	for i, r := range rp.IPP.Rs {
		rs[i] = r.Encode(nil)
	}
	return rlpRangeProof{
		NBits: uint64(rp.NBits),
		A:     rp.A.Encode(nil),
		S:     rp.S.Encode(nil),
		T1:    rp.T1.Encode(nil),
		T2:    rp.T2.Encode(nil),
		TX:    rp.TX.Encode(nil),
		TauX:  rp.TauX.Encode(nil),
		Mu:    rp.Mu.Encode(nil),
		IPPLs: ls,
		IPPRs: rs,
		IPPA:  rp.IPP.A.Encode(nil),
		IPPB:  rp.IPP.B.Encode(nil),
	}
}

func decodeRangeProof(r rlpRangeProof) (*RangeProof, error) {
	decodePoint := func(b []byte) (*Commitment, error) {
		e := ristretto255.NewElement()
		if _, err := e.Decode(b); err != nil {
			return nil, err
		}
		return e, nil
	}
	decodeScalar := func(b []byte) (*Scalar, error) {
		s := ristretto255.NewScalar()
		if _, err := s.SetCanonicalBytes(b); err != nil {
			return nil, err
		}
		return s, nil
	}

	a, err := decodePoint(r.A)
	if err != nil {
		return nil, err
	}
	s, err := decodePoint(r.S)
	if err != nil {
		return nil, err
	}
	t1, err := decodePoint(r.T1)
	if err != nil {
		return nil, err
	}
	t2, err := decodePoint(r.T2)
	if err != nil {
		return nil, err
	}
	tx, err := decodeScalar(r.TX)
	if err != nil {
		return nil, err
	}
	taux, err := decodeScalar(r.TauX)
	if err != nil {
		return nil, err
	}
	mu, err := decodeScalar(r.Mu)
	if err != nil {
		return nil, err
	}
	ippA, err := decodeScalar(r.IPPA)
	if err != nil {
		return nil, err
	}
	ippB, err := decodeScalar(r.IPPB)
	if err != nil {
		return nil, err
	}

	ls := make([]*Commitment, len(r.IPPLs))
	for i, b := range r.IPPLs {
		p, err := decodePoint(b)
		if err != nil {
			return nil, err
		}
		ls[i] = p
	}
	rs := make([]*Commitment, len(r.IPPRs))
	for i, b := range r.IPPRs {
		p, err := decodePoint(b)
		if err != nil {
			return nil, err
		}
		rs[i] = p
	}

	return &RangeProof{
		NBits: int(r.NBits),
		A:     a,
		S:     s,
		T1:    t1,
		T2:    t2,
		TX:    tx,
		TauX:  taux,
		Mu:    mu,
		IPP:   InnerProductProof{Ls: ls, Rs: rs, A: ippA, B: ippB},
	}, nil
}

type rlpHiddenNode struct {
	Y      uint8
	X      uint64
	Commit []byte
	Hash   []byte
}

type rlpInclusionProof struct {
	LeafX            uint64
	LeafLiability    uint64
	LeafBlinding     []byte
	LeafCommit       []byte
	LeafHash         []byte
	Siblings         []rlpHiddenNode
	HasAggregated    bool
	Aggregated       rlpRangeProof
	Individual       []rlpRangeProof
	AggregationKind  uint8
	AggregationN     uint8
	NBits            uint64
}

func (p *InclusionProof) toRLP() rlpInclusionProof {
	siblings := make([]rlpHiddenNode, len(p.Siblings))
	for i, s := range p.Siblings {
		siblings[i] = rlpHiddenNode{Y: s.Coord.Y, X: s.Coord.X, Commit: s.Content.Commit.Encode(nil), Hash: s.Content.Hash.Bytes()}
	}
	individual := make([]rlpRangeProof, len(p.Individual))
	for i, rp := range p.Individual {
		individual[i] = encodeRangeProof(rp)
	}
	out := rlpInclusionProof{
		LeafX:           p.LeafX,
		LeafLiability:   p.Leaf.Liability,
		LeafBlinding:    p.Leaf.Blinding.Encode(nil),
		LeafCommit:      p.Leaf.Commit.Encode(nil),
		LeafHash:        p.Leaf.Hash.Bytes(),
		Siblings:        siblings,
		Individual:      individual,
		AggregationKind: uint8(p.AggregationFactor.kind),
		AggregationN:    p.AggregationFactor.n,
		NBits:           uint64(p.NBits),
	}
	if p.Aggregated != nil {
		out.HasAggregated = true
		out.Aggregated = encodeRangeProof(p.Aggregated)
	}
	return out
}

func inclusionProofFromRLP(r rlpInclusionProof) (*InclusionProof, error) {
	blinding := ristretto255.NewScalar()
	if _, err := blinding.SetCanonicalBytes(r.LeafBlinding); err != nil {
		return nil, fmt.Errorf("dapol: decoding leaf blinding: %w", err)
	}
	commitment := ristretto255.NewElement()
	if _, err := commitment.Decode(r.LeafCommit); err != nil {
		return nil, fmt.Errorf("dapol: decoding leaf commitment: %w", err)
	}
	var leafHash H256
	copy(leafHash[:], r.LeafHash)

	siblings := make([]Node[HiddenNodeContent], len(r.Siblings))
	for i, s := range r.Siblings {
		e := ristretto255.NewElement()
		if _, err := e.Decode(s.Commit); err != nil {
			return nil, fmt.Errorf("dapol: decoding sibling commitment: %w", err)
		}
		var h H256
		copy(h[:], s.Hash)
		siblings[i] = Node[HiddenNodeContent]{Coord: Coord{Y: s.Y, X: s.X}, Content: HiddenNodeContent{Commit: e, Hash: h}}
	}

	var aggregated *RangeProof
	if r.HasAggregated {
		var err error
		aggregated, err = decodeRangeProof(r.Aggregated)
		if err != nil {
			return nil, err
		}
	}
	individual := make([]*RangeProof, len(r.Individual))
	for i, rp := range r.Individual {
		decoded, err := decodeRangeProof(rp)
		if err != nil {
			return nil, err
		}
		individual[i] = decoded
	}

	return &InclusionProof{
		LeafX:             r.LeafX,
		Leaf:              FullNodeContent{Liability: r.LeafLiability, Blinding: blinding, Commit: commitment, Hash: leafHash},
		Siblings:          siblings,
		Aggregated:        aggregated,
		Individual:        individual,
		AggregationFactor: AggregationFactor{kind: aggregationKind(r.AggregationKind), n: r.AggregationN},
		NBits:             int(r.NBits),
	}, nil
}

// MarshalBinary encodes the proof as a `.dapolproof` file's RLP body
// (spec.md §6).
func (p *InclusionProof) MarshalBinary() ([]byte, error) {
	body, err := rlp.EncodeToBytes(p.toRLP())
	if err != nil {
		return nil, fmt.Errorf("dapol: encoding inclusion proof: %w", err)
	}
	return body, nil
}

// UnmarshalInclusionProofBinary decodes a `.dapolproof` file.
func UnmarshalInclusionProofBinary(data []byte) (*InclusionProof, error) {
	var r rlpInclusionProof
	if err := rlp.DecodeBytes(data, &r); err != nil {
		return nil, fmt.Errorf("dapol: decoding inclusion proof: %w", err)
	}
	return inclusionProofFromRLP(r)
}

// jsonInclusionProof is the `.json` alternative to the binary proof
// format, using hex-encoded byte fields for JSON-friendliness.
type jsonInclusionProof struct {
	LeafX             uint64            `json:"leaf_x"`
	LeafLiability     uint64            `json:"leaf_liability"`
	LeafBlinding      hexBytes          `json:"leaf_blinding"`
	LeafCommit        hexBytes          `json:"leaf_commit"`
	LeafHash          hexBytes          `json:"leaf_hash"`
	Siblings          []jsonHiddenNode  `json:"siblings"`
	Aggregated        *jsonRangeProof   `json:"aggregated,omitempty"`
	Individual        []jsonRangeProof  `json:"individual,omitempty"`
	AggregationKind   uint8             `json:"aggregation_kind"`
	AggregationN      uint8             `json:"aggregation_n"`
	NBits             int               `json:"n_bits"`
}

type jsonHiddenNode struct {
	Y      uint8    `json:"y"`
	X      uint64   `json:"x"`
	Commit hexBytes `json:"commit"`
	Hash   hexBytes `json:"hash"`
}

type jsonRangeProof struct {
	NBits uint64   `json:"n_bits"`
	A     hexBytes `json:"a"`
	S     hexBytes `json:"s"`
	T1    hexBytes `json:"t1"`
	T2    hexBytes `json:"t2"`
	TX    hexBytes `json:"tx"`
	TauX  hexBytes `json:"taux"`
	Mu    hexBytes `json:"mu"`
	IPPLs []hexBytes `json:"ipp_ls"`
	IPPRs []hexBytes `json:"ipp_rs"`
	IPPA  hexBytes `json:"ipp_a"`
	IPPB  hexBytes `json:"ipp_b"`
}

// hexBytes marshals as a 0x-prefixed hex string in JSON, matching the
// teacher's own convention for binary fields in its JSON-RPC types.
type hexBytes []byte

func (b hexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString([]byte(b)))
}

func (b *hexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return fmt.Errorf("dapol: invalid hex field: %w", err)
	}
	*b = decoded
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func toJSONRangeProof(rp *RangeProof) jsonRangeProof {
	r := encodeRangeProof(rp)
	ls := make([]hexBytes, len(r.IPPLs))
	rs := make([]hexBytes, len(r.IPPRs))
	for i, l := range r.IPPLs {
		ls[i] = l
	}
	for i, rr := range r.IPPRs {
		rs[i] = rr
	}
	return jsonRangeProof{
		NBits: r.NBits, A: r.A, S: r.S, T1: r.T1, T2: r.T2,
		TX: r.TX, TauX: r.TauX, Mu: r.Mu,
		IPPLs: ls, IPPRs: rs, IPPA: r.IPPA, IPPB: r.IPPB,
	}
}

func fromJSONRangeProof(j jsonRangeProof) (*RangeProof, error) {
	ls := make([][]byte, len(j.IPPLs))
	rs := make([][]byte, len(j.IPPRs))
	for i, l := range j.IPPLs {
		ls[i] = l
	}
	for i, r := range j.IPPRs {
		rs[i] = r
	}
	return decodeRangeProof(rlpRangeProof{
		NBits: j.NBits, A: j.A, S: j.S, T1: j.T1, T2: j.T2,
		TX: j.TX, TauX: j.TauX, Mu: j.Mu,
		IPPLs: ls, IPPRs: rs, IPPA: j.IPPA, IPPB: j.IPPB,
	})
}

// MarshalJSON encodes the proof in the `.json` alternative format.
func (p *InclusionProof) MarshalJSON() ([]byte, error) {
	siblings := make([]jsonHiddenNode, len(p.Siblings))
	for i, s := range p.Siblings {
		siblings[i] = jsonHiddenNode{Y: s.Coord.Y, X: s.Coord.X, Commit: s.Content.Commit.Encode(nil), Hash: s.Content.Hash.Bytes()}
	}
	individual := make([]jsonRangeProof, len(p.Individual))
	for i, rp := range p.Individual {
		individual[i] = toJSONRangeProof(rp)
	}
	out := jsonInclusionProof{
		LeafX:           p.LeafX,
		LeafLiability:   p.Leaf.Liability,
		LeafBlinding:    p.Leaf.Blinding.Encode(nil),
		LeafCommit:      p.Leaf.Commit.Encode(nil),
		LeafHash:        p.Leaf.Hash.Bytes(),
		Siblings:        siblings,
		Individual:      individual,
		AggregationKind: uint8(p.AggregationFactor.kind),
		AggregationN:    p.AggregationFactor.n,
		NBits:           p.NBits,
	}
	if p.Aggregated != nil {
		agg := toJSONRangeProof(p.Aggregated)
		out.Aggregated = &agg
	}
	return json.Marshal(out)
}

// UnmarshalInclusionProofJSON decodes a `.json` inclusion proof file.
func UnmarshalInclusionProofJSON(data []byte) (*InclusionProof, error) {
	var j jsonInclusionProof
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("dapol: decoding JSON inclusion proof: %w", err)
	}

	blinding := ristretto255.NewScalar()
	if _, err := blinding.SetCanonicalBytes(j.LeafBlinding); err != nil {
		return nil, fmt.Errorf("dapol: decoding leaf blinding: %w", err)
	}
	commitment := ristretto255.NewElement()
	if _, err := commitment.Decode(j.LeafCommit); err != nil {
		return nil, fmt.Errorf("dapol: decoding leaf commitment: %w", err)
	}
	var leafHash H256
	copy(leafHash[:], j.LeafHash)

	siblings := make([]Node[HiddenNodeContent], len(j.Siblings))
	for i, s := range j.Siblings {
		e := ristretto255.NewElement()
		if _, err := e.Decode(s.Commit); err != nil {
			return nil, fmt.Errorf("dapol: decoding sibling commitment: %w", err)
		}
		var h H256
		copy(h[:], s.Hash)
		siblings[i] = Node[HiddenNodeContent]{Coord: Coord{Y: s.Y, X: s.X}, Content: HiddenNodeContent{Commit: e, Hash: h}}
	}

	var aggregated *RangeProof
	if j.Aggregated != nil {
		var err error
		aggregated, err = fromJSONRangeProof(*j.Aggregated)
		if err != nil {
			return nil, err
		}
	}
	individual := make([]*RangeProof, len(j.Individual))
	for i, jr := range j.Individual {
		rp, err := fromJSONRangeProof(jr)
		if err != nil {
			return nil, err
		}
		individual[i] = rp
	}

	return &InclusionProof{
		LeafX:             j.LeafX,
		Leaf:              FullNodeContent{Liability: j.LeafLiability, Blinding: blinding, Commit: commitment, Hash: leafHash},
		Siblings:          siblings,
		Aggregated:        aggregated,
		Individual:        individual,
		AggregationFactor: AggregationFactor{kind: aggregationKind(j.AggregationKind), n: j.AggregationN},
		NBits:             j.NBits,
	}, nil
}

// PublicRootData is the content of a `public_root_data_<timestamp>.json`
// file: the half of the root opening that's safe to publish (spec.md §6).
type PublicRootData struct {
	Hash       hexBytes `json:"hash"`
	Commitment hexBytes `json:"commitment"`
}

// SecretRootData is the content of a `secret_root_data_<timestamp>.json`
// file: the half of the root opening the tree owner keeps private.
type SecretRootData struct {
	Liability      uint64   `json:"liability"`
	BlindingFactor hexBytes `json:"blinding_factor"`
}

// RootData returns the public/secret file pair that together open the
// tree's root Pedersen commitment (spec.md §6, §4.9).
func (t *Tree) RootData() (PublicRootData, SecretRootData) {
	pub := PublicRootData{
		Hash:       t.RootHash().Bytes(),
		Commitment: t.RootCommitment().Encode(nil),
	}
	sec := SecretRootData{
		Liability:      t.RootLiability(),
		BlindingFactor: t.RootBlindingFactor().Encode(nil),
	}
	return pub, sec
}
