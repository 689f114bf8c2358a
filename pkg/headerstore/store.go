// Package headerstore parses a concatenation of raw 80-byte block
// headers — the stream produced by the block decoder — and maintains
// the four header-graph indexes the chain indexer walks: prev→children,
// curr→prev, curr→header, and merkle_root→curr.
package headerstore

import (
	"fmt"

	"btcspv/pkg/bhash"
	"btcspv/pkg/block"
	"btcspv/pkg/byteio"
)

const headerSize = 80

// Store holds the four header-graph indexes, all keyed by
// internal-order hash. No structural validation beyond fixed record
// size is performed here; chain connectivity is the chain indexer's
// job.
type Store struct {
	PrevToChildren map[bhash.Hash][]*block.Header
	CurrToPrev     map[bhash.Hash]bhash.Hash
	CurrToHeader   map[bhash.Hash]*block.Header
	MerkleToCurr   map[bhash.Hash]bhash.Hash
}

// New returns an empty Store ready to be populated by Load.
func New() *Store {
	return &Store{
		PrevToChildren: make(map[bhash.Hash][]*block.Header),
		CurrToPrev:     make(map[bhash.Hash]bhash.Hash),
		CurrToHeader:   make(map[bhash.Hash]*block.Header),
		MerkleToCurr:   make(map[bhash.Hash]bhash.Hash),
	}
}

// Load parses every 80-byte header in data and records it in the four
// indexes, in the order the headers appear in the stream. That order
// is the parse order of the original raw block files, which may not be
// topological — the chain indexer does not depend on it.
func (s *Store) Load(data []byte) error {
	if len(data)%headerSize != 0 {
		return fmt.Errorf("headerstore: stream length %d is not a multiple of %d", len(data), headerSize)
	}

	for offset := 0; offset+headerSize <= len(data); offset += headerSize {
		h, err := decodeHeader(data[offset : offset+headerSize])
		if err != nil {
			return fmt.Errorf("headerstore: header at offset %d: %w", offset, err)
		}
		s.add(h)
	}
	return nil
}

func (s *Store) add(h *block.Header) {
	curr := h.Hash()
	s.PrevToChildren[h.PrevHash] = append(s.PrevToChildren[h.PrevHash], h)
	s.CurrToPrev[curr] = h.PrevHash
	s.CurrToHeader[curr] = h
	s.MerkleToCurr[h.MerkleRoot] = curr
}

func decodeHeader(raw []byte) (*block.Header, error) {
	r := byteio.NewReader(raw)

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	prevRaw, err := r.ReadHashInternal(32)
	if err != nil {
		return nil, err
	}
	merkleRaw, err := r.ReadHashInternal(32)
	if err != nil {
		return nil, err
	}
	t, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	bits, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	nonce, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}

	prevHash, err := bhash.FromInternalBytes(prevRaw)
	if err != nil {
		return nil, err
	}
	merkleRoot, err := bhash.FromInternalBytes(merkleRaw)
	if err != nil {
		return nil, err
	}

	return &block.Header{
		Version:    version,
		PrevHash:   prevHash,
		MerkleRoot: merkleRoot,
		Time:       t,
		Bits:       bits,
		Nonce:      nonce,
	}, nil
}
