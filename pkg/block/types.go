// Package block decodes Bitcoin's raw on-disk block serialization:
// magic, block size, 80-byte header, variable-length transactions with
// their variable-length scripts, concatenated across blk?????.dat
// files.
package block

import "btcspv/pkg/bhash"

// Header is the fixed 80-byte block header record. All multi-byte
// fields are little-endian on the wire; the fields here hold their
// decoded values.
type Header struct {
	Version    uint32
	PrevHash   bhash.Hash // internal order
	MerkleRoot bhash.Hash // internal order
	Time       uint32
	Bits       uint32
	Nonce      uint32
	Height     int  // assigned by the chain indexer; 0 for genesis
	MainChain  bool // set by the chain indexer
}

// Hash returns the header's internal-order hash: double-SHA-256 of its
// raw 80-byte serialization.
func (h Header) Hash() bhash.Hash {
	return bhash.HeaderHash(h.Raw())
}

// Raw re-serializes the header to its exact 80-byte wire form.
func (h Header) Raw() []byte {
	buf := make([]byte, 80)
	putU32LE(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	putU32LE(buf[68:72], h.Time)
	putU32LE(buf[72:76], h.Bits)
	putU32LE(buf[76:80], h.Nonce)
	return buf
}

func putU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// Input is one transaction input: the outpoint being spent, its
// unlocking script, and sequence number. Witness holds the input's
// BIP-141 witness stack; nil for legacy transactions.
type Input struct {
	PrevTxHash bhash.Hash // internal order
	PrevIndex  uint32
	Script     []byte
	Sequence   uint32
	Witness    [][]byte
}

// Output is one transaction output: an amount and a locking script.
type Output struct {
	AmountSatoshi int64
	Script        []byte
}

// Transaction is one parsed transaction, legacy or witness-bearing.
// Raw holds the exact concatenated bytes as they appeared in the block
// stream; RawNoWitness holds the stripped serialization (marker, flag,
// and witness stacks removed) for witness-bearing transactions and is
// nil otherwise. txid is hashed over the stripped bytes, wtxid over the
// full bytes — both assembled from the exact slices read off the
// stream, never a re-serialization.
type Transaction struct {
	Version      uint32
	Inputs       []Input
	Outputs      []Output
	LockTime     uint32
	HasWitness   bool
	Raw          []byte
	RawNoWitness []byte
}

// TxID returns the transaction's internal-order hash: double-SHA-256 of
// the stripped serialization.
func (t Transaction) TxID() bhash.Hash {
	if t.HasWitness {
		return bhash.TxID(t.RawNoWitness)
	}
	return bhash.TxID(t.Raw)
}

// WTxID returns the internal-order hash of the full serialization,
// witness included. Equal to TxID for legacy transactions.
func (t Transaction) WTxID() bhash.Hash {
	return bhash.TxID(t.Raw)
}

// Block is one fully parsed block: its header plus every transaction,
// with a cached Merkle tree for fast branch extraction.
type Block struct {
	Header       Header
	Transactions []Transaction
	MerkleLevels [][]bhash.Hash // cached tree, leaves at index 0
}

// Hash returns the block's internal-order hash (its header's hash).
func (b Block) Hash() bhash.Hash {
	return b.Header.Hash()
}

// TxCount returns the number of transactions recorded in the block.
func (b Block) TxCount() int {
	return len(b.Transactions)
}
