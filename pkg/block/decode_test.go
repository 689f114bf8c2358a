package block

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"btcspv/pkg/bhash"
	"btcspv/pkg/merkle"
)

// buildRawTx serializes a minimal legacy transaction with one input and
// one output, matching the wire layout decodeTransaction expects.
func buildRawTx(seq uint32, scriptSig []byte) []byte {
	var buf bytes.Buffer
	writeU32LE(&buf, 1) // version
	buf.WriteByte(1)     // input count
	buf.Write(make([]byte, 32))
	writeU32LE(&buf, 0xffffffff) // prev index
	writeVarInt(&buf, uint64(len(scriptSig)))
	buf.Write(scriptSig)
	writeU32LE(&buf, seq)
	buf.WriteByte(1) // output count
	writeU64LE(&buf, 5000000000)
	writeVarInt(&buf, 0) // empty script
	writeU32LE(&buf, 0)  // locktime
	return buf.Bytes()
}

func writeU32LE(buf *bytes.Buffer, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	buf.Write(b)
}

func writeU64LE(buf *bytes.Buffer, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	buf.Write(b)
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	buf.WriteByte(byte(v)) // only used with small values in this test
}

// buildBlock assembles a full blk-file-style block: magic, size, header,
// tx count, transactions — with the header's merkle_root computed from
// the given transactions so it passes C2.
func buildBlock(txsRaw [][]byte) []byte {
	txids := make([]bhash.Hash, len(txsRaw))
	for i, raw := range txsRaw {
		txids[i] = bhash.TxID(raw)
	}
	root := merkle.Root(merkle.Build(txids))

	var body bytes.Buffer
	writeU32LE(&body, 1) // version
	body.Write(make([]byte, 32))
	body.Write(root[:])
	writeU32LE(&body, 1700000000) // time
	writeU32LE(&body, 0x1d00ffff) // bits
	writeU32LE(&body, 0)          // nonce
	writeVarInt(&body, uint64(len(txsRaw)))
	for _, raw := range txsRaw {
		body.Write(raw)
	}

	var out bytes.Buffer
	writeU32LE(&out, Magic)
	writeU32LE(&out, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestDecodeStreamSingleCoinbaseBlock(t *testing.T) {
	coinbase := buildRawTx(0xffffffff, []byte{0x01, 0x02})
	data := buildBlock([][]byte{coinbase})

	idx := NewIndex()
	var headerOut bytes.Buffer
	blocks, err := DecodeStream(data, idx, &headerOut)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].TxCount() != 1 {
		t.Fatalf("expected 1 tx, got %d", blocks[0].TxCount())
	}
	if headerOut.Len() != 80 {
		t.Fatalf("expected 80 header bytes written, got %d", headerOut.Len())
	}

	root := merkle.Root(blocks[0].MerkleLevels)
	if root != blocks[0].Transactions[0].TxID() {
		t.Fatalf("single-tx block root should equal its txid")
	}
}

func TestDecodeStreamThreeTxBlockOddPadding(t *testing.T) {
	txs := [][]byte{
		buildRawTx(0xffffffff, []byte{0x00}),
		buildRawTx(0, []byte{0x01}),
		buildRawTx(0, []byte{0x02}),
	}
	data := buildBlock(txs)

	idx := NewIndex()
	var headerOut bytes.Buffer
	blocks, err := DecodeStream(data, idx, &headerOut)
	if err != nil {
		t.Fatal(err)
	}
	b := blocks[0]
	if len(b.MerkleLevels[0]) != 4 {
		t.Fatalf("expected padded leaf level of 4, got %d", len(b.MerkleLevels[0]))
	}
	for i, tx := range b.Transactions {
		loc, ok := idx.TxLocation[tx.TxID()]
		if !ok {
			t.Fatalf("tx %d not indexed", i)
		}
		if loc.LeafIndex != i {
			t.Fatalf("tx %d leaf index = %d, want %d", i, loc.LeafIndex, i)
		}
	}
}

// TestDecodeMainnetGenesisBlock reassembles the real Bitcoin mainnet
// genesis block byte for byte and checks the decoder recovers its
// canonical block hash and merkle root.
func TestDecodeMainnetGenesisBlock(t *testing.T) {
	genesisPubkey, err := hex.DecodeString(
		"04678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb6" +
			"49f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5f")
	if err != nil {
		t.Fatal(err)
	}

	scriptSig := append(
		[]byte{0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04, 0x45},
		[]byte("The Times 03/Jan/2009 Chancellor on brink of second bailout for banks")...,
	)
	scriptPubkey := append(append([]byte{0x41}, genesisPubkey...), 0xac)

	var tx bytes.Buffer
	writeU32LE(&tx, 1) // version
	tx.WriteByte(1)    // input count
	tx.Write(make([]byte, 32))
	writeU32LE(&tx, 0xffffffff)
	writeVarInt(&tx, uint64(len(scriptSig)))
	tx.Write(scriptSig)
	writeU32LE(&tx, 0xffffffff)
	tx.WriteByte(1) // output count
	writeU64LE(&tx, 5000000000)
	writeVarInt(&tx, uint64(len(scriptPubkey)))
	tx.Write(scriptPubkey)
	writeU32LE(&tx, 0) // locktime
	txRaw := tx.Bytes()

	root := bhash.TxID(txRaw)

	var body bytes.Buffer
	writeU32LE(&body, 1)
	body.Write(make([]byte, 32))
	body.Write(root[:])
	writeU32LE(&body, 1231006505) // 03/Jan/2009
	writeU32LE(&body, 0x1d00ffff)
	writeU32LE(&body, 2083236893)
	writeVarInt(&body, 1)
	body.Write(txRaw)

	var data bytes.Buffer
	writeU32LE(&data, Magic)
	writeU32LE(&data, uint32(body.Len()))
	data.Write(body.Bytes())

	idx := NewIndex()
	var headerOut bytes.Buffer
	blocks, err := DecodeStream(data.Bytes(), idx, &headerOut)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}

	b := blocks[0]
	if got := bhash.Display(b.Hash()); got != "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f" {
		t.Fatalf("genesis block hash mismatch: %s", got)
	}
	if got := bhash.Display(b.Header.MerkleRoot); got != "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b" {
		t.Fatalf("genesis merkle root mismatch: %s", got)
	}
	if b.Header.MerkleRoot != b.Transactions[0].TxID() {
		t.Fatalf("single-tx merkle root should equal the coinbase txid")
	}
}

func TestDecodeStreamSegwitTransaction(t *testing.T) {
	// Assemble a witness-bearing transaction by hand: version, marker,
	// flag, one input, one output, a two-item witness stack, locktime.
	var full bytes.Buffer
	writeU32LE(&full, 2)              // version
	full.WriteByte(0x00)              // marker
	full.WriteByte(0x01)              // flag
	full.WriteByte(1)                 // input count
	full.Write(make([]byte, 32))      // prev hash
	writeU32LE(&full, 0)              // prev index
	writeVarInt(&full, 0)             // empty scriptSig
	writeU32LE(&full, 0xfffffffd)     // sequence
	full.WriteByte(1)                 // output count
	writeU64LE(&full, 100000)         // amount
	writeVarInt(&full, 0)             // empty scriptPubkey
	full.WriteByte(2)                 // witness item count
	writeVarInt(&full, 2)
	full.Write([]byte{0xde, 0xad})
	writeVarInt(&full, 1)
	full.Write([]byte{0xbe})
	writeU32LE(&full, 0) // locktime

	// The stripped form drops marker, flag, and witness stacks.
	var stripped bytes.Buffer
	writeU32LE(&stripped, 2)
	stripped.WriteByte(1)
	stripped.Write(make([]byte, 32))
	writeU32LE(&stripped, 0)
	writeVarInt(&stripped, 0)
	writeU32LE(&stripped, 0xfffffffd)
	stripped.WriteByte(1)
	writeU64LE(&stripped, 100000)
	writeVarInt(&stripped, 0)
	writeU32LE(&stripped, 0)

	wantTxid := bhash.TxID(stripped.Bytes())

	// Frame a block around it, with the header's merkle root computed
	// over the stripped txid — a single-tx block's root IS that txid.
	var body bytes.Buffer
	writeU32LE(&body, 1)
	body.Write(make([]byte, 32))
	body.Write(wantTxid[:])
	writeU32LE(&body, 1700000000)
	writeU32LE(&body, 0x1d00ffff)
	writeU32LE(&body, 0)
	writeVarInt(&body, 1)
	body.Write(full.Bytes())

	var data bytes.Buffer
	writeU32LE(&data, Magic)
	writeU32LE(&data, uint32(body.Len()))
	data.Write(body.Bytes())

	idx := NewIndex()
	var headerOut bytes.Buffer
	blocks, err := DecodeStream(data.Bytes(), idx, &headerOut)
	if err != nil {
		t.Fatal(err)
	}

	tx := blocks[0].Transactions[0]
	if !tx.HasWitness {
		t.Fatalf("expected witness-bearing transaction")
	}
	if tx.TxID() != wantTxid {
		t.Fatalf("txid must be hashed over the stripped serialization")
	}
	if tx.WTxID() == wantTxid {
		t.Fatalf("wtxid must differ from txid for a witness-bearing transaction")
	}
	if len(tx.Inputs[0].Witness) != 2 || !bytes.Equal(tx.Inputs[0].Witness[0], []byte{0xde, 0xad}) {
		t.Fatalf("witness stack not preserved: %v", tx.Inputs[0].Witness)
	}
	if _, ok := idx.TxLocation[wantTxid]; !ok {
		t.Fatalf("stripped txid must be the index key")
	}
}

func TestDecodeStreamBadMagicIsFatal(t *testing.T) {
	data := buildBlock([][]byte{buildRawTx(0xffffffff, nil)})
	data[0] ^= 0xff // corrupt magic

	idx := NewIndex()
	var headerOut bytes.Buffer
	if _, err := DecodeStream(data, idx, &headerOut); err == nil {
		t.Fatalf("expected a fatal parse error for bad magic")
	}
}

func TestDecodeStreamTruncationIsFatal(t *testing.T) {
	coinbase := buildRawTx(0xffffffff, []byte{0x01, 0x02, 0x03})
	data := buildBlock([][]byte{coinbase})

	for cut := 1; cut < len(data); cut++ {
		truncated := data[:len(data)-cut]
		if len(truncated) < 4+4+80 {
			continue // below minimum frame: treated as clean EOF, not covered here
		}
		idx := NewIndex()
		var headerOut bytes.Buffer
		blocks, err := DecodeStream(truncated, idx, &headerOut)
		if err == nil && len(blocks) > 0 {
			t.Fatalf("truncating %d bytes from the end should not yield a committed block", cut)
		}
	}
}

func TestDecodeStreamMerkleRootMismatchIsFatal(t *testing.T) {
	data := buildBlock([][]byte{buildRawTx(0xffffffff, nil)})
	// Flip a byte inside the merkle_root field (offset 4+4+4+32 = 44).
	data[44] ^= 0xff

	idx := NewIndex()
	var headerOut bytes.Buffer
	if _, err := DecodeStream(data, idx, &headerOut); err == nil {
		t.Fatalf("expected a merkle root mismatch error")
	}
}
