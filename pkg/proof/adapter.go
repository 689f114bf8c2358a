// Package proof implements the full-node side of the inclusion-proof
// contract: given a display-order txid, resolve the block that contains
// it and extract a Merkle branch a remote SPV client can verify.
package proof

import (
	"btcspv/pkg/bhash"
	"btcspv/pkg/block"
	"btcspv/pkg/merkle"
)

// Result is the wire tuple the full-node proxy returns. A not-found
// lookup is encoded as the zero value, not an error — TxCount == 0 IS
// the sentinel.
type Result struct {
	TxCount    int
	LeafIndex  int
	Branch     []bhash.Hash
	MerkleRoot bhash.Hash
}

// Request resolves a display-order txid against idx and builds its
// proof tuple. txidDisplay must be the reversed hex a block explorer or
// wallet would show the user; it is converted to internal order before
// any lookup.
func Request(idx *block.Index, txidDisplay string) (Result, error) {
	txid, err := bhash.ParseDisplay(txidDisplay)
	if err != nil {
		return Result{}, err
	}

	loc, ok := idx.TxLocation[txid]
	if !ok {
		return Result{}, nil
	}

	b, ok := idx.BlockByHash[loc.BlockHash]
	if !ok {
		return Result{}, nil
	}

	branch := merkle.Branch(b.MerkleLevels, loc.LeafIndex)
	return Result{
		TxCount:    b.TxCount(),
		LeafIndex:  loc.LeafIndex,
		Branch:     branch,
		MerkleRoot: b.Header.MerkleRoot,
	}, nil
}
