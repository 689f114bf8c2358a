// Package bhash centralizes the two hash encodings the rest of the
// module must never confuse: internal order (wire/hashing order, used
// for every map key) and display order (the reversed form shown to
// users). Internal hashes are represented with chainhash.Hash — the
// same 32-byte array btcsuite's own parsers use — so the reversal
// between the two encodings is the library's, not hand-rolled.
package bhash

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash is a 32-byte internal-order hash: the byte sequence as it
// appears on the wire and the order used for all hashing inputs and
// map keys.
type Hash = chainhash.Hash

// Zero is the genesis predecessor sentinel: the all-zero hash that
// never appears as the hash of a real header.
var Zero Hash

// DSHA256 applies SHA-256 twice and returns the digest as an
// internal-order Hash.
func DSHA256(data []byte) Hash {
	return chainhash.DoubleHashH(data)
}

// HeaderHash returns the internal-order hash of an 80-byte block
// header: double-SHA-256 of the exact raw header bytes.
func HeaderHash(header80 []byte) Hash {
	return DSHA256(header80)
}

// TxID returns the internal-order hash of a transaction's raw legacy
// serialization, exactly as it appeared in the block stream (never a
// re-serialization, to survive encoding ambiguities).
func TxID(rawTx []byte) Hash {
	return DSHA256(rawTx)
}

// ParseDisplay parses a 64-hex-character display-order string (e.g. a
// txid as shown by a block explorer) into its internal-order Hash.
func ParseDisplay(displayHex string) (Hash, error) {
	h, err := chainhash.NewHashFromStr(displayHex)
	if err != nil {
		return Hash{}, err
	}
	return *h, nil
}

// Display renders an internal-order hash in display order (reversed
// hex), the form shown to users.
func Display(h Hash) string {
	return h.String()
}

// FromInternalBytes builds a Hash from bytes already in internal
// (wire) order, as read directly off the block/header stream.
func FromInternalBytes(b []byte) (Hash, error) {
	var h Hash
	err := h.SetBytes(b)
	return h, err
}

// HexInternal renders a Hash as plain (unreversed) internal-order hex —
// the encoding the proof/SPV wire contract uses for every hash field,
// deliberately not the reversed Display form a block explorer shows.
func HexInternal(h Hash) string {
	return hex.EncodeToString(h[:])
}

// ParseInternalHex parses plain internal-order hex (as produced by
// HexInternal) back into a Hash, without the reversal ParseDisplay
// applies.
func ParseInternalHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	return FromInternalBytes(b)
}
