package headerstore

import (
	"testing"

	"btcspv/pkg/bhash"
	"btcspv/pkg/block"
)

func rawHeader(version uint32, prev, merkleRoot bhash.Hash, nonce uint32) []byte {
	h := block.Header{Version: version, PrevHash: prev, MerkleRoot: merkleRoot, Nonce: nonce}
	return h.Raw()
}

func TestLoadTwoLinkedHeaders(t *testing.T) {
	genesis := rawHeader(1, bhash.Zero, bhash.DSHA256([]byte("genesis-root")), 1)
	genesisHash := (&block.Header{Version: 1, PrevHash: bhash.Zero, MerkleRoot: bhash.DSHA256([]byte("genesis-root")), Nonce: 1}).Hash()

	child := rawHeader(1, genesisHash, bhash.DSHA256([]byte("child-root")), 2)

	var data []byte
	data = append(data, genesis...)
	data = append(data, child...)

	s := New()
	if err := s.Load(data); err != nil {
		t.Fatal(err)
	}

	if len(s.PrevToChildren[bhash.Zero]) != 1 {
		t.Fatalf("expected genesis to be the sole child of the sentinel")
	}
	if len(s.PrevToChildren[genesisHash]) != 1 {
		t.Fatalf("expected one child of genesis")
	}
	if _, ok := s.CurrToHeader[genesisHash]; !ok {
		t.Fatalf("genesis header missing from curr_hash_to_header")
	}
	if s.CurrToPrev[genesisHash] != bhash.Zero {
		t.Fatalf("I1 violated: genesis prev should be the zero sentinel")
	}
}

func TestLoadRejectsNonMultipleOf80(t *testing.T) {
	s := New()
	if err := s.Load(make([]byte, 85)); err == nil {
		t.Fatalf("expected an error for a misaligned header stream")
	}
}
