// Package dapol implements the DAPOL+ (Distributed Auditable Proof of
// Liabilities) protocol: a custodian commits to a multiset of
// (entity_id, liability) records in a single short public digest, then
// selectively proves to each entity that its record is included and that
// the liability lies within a bounded range, without revealing other
// entities' data or the total liability.
//
// The accumulator is a sparse Merkle sum tree with a non-deterministic
// entity-to-leaf mapping (NDM-SMT): leaves carry Pedersen commitments to
// liabilities, internal nodes carry homomorphically summed commitments
// plus a content-binding hash, and entities are assigned to leaf
// x-coordinates by a lazy Fisher-Yates shuffle so the full index space
// never needs to be materialized.
package dapol
