package block

import (
	"bytes"
	"fmt"

	"btcspv/pkg/bhash"
	"btcspv/pkg/byteio"
	"btcspv/pkg/merkle"
)

// Magic is Bitcoin mainnet's block-file magic: the bytes f9 be b4 d9 on
// disk, 0xD9B4BEF9 read little-endian.
const Magic uint32 = 0xD9B4BEF9

// interBlockPadding is the gap between consecutive blocks in a
// blk?????.dat file. Bitcoin Core writes blocks back to back, so the
// next magic follows immediately; exact byte accounting keeps the
// cursor aligned without any resynchronization.
const interBlockPadding = 0

// ParseError reports a fatal, unrecoverable parse failure: the file is
// corrupt or the stream is misaligned. The parser never accepts a
// partial block, so every such failure aborts the whole decode.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("block: fatal parse error at offset %d: %s", e.Offset, e.Reason)
}

// Leaf index, block hash pair recorded for every transaction seen.
type TxLocation struct {
	BlockHash bhash.Hash
	LeafIndex int
}

// Index is the in-memory block index populated by DecodeStream:
// block_hash_to_block and tx_hash_to_block_hash of the data model,
// keyed throughout by internal-order hash.
type Index struct {
	BlockByHash map[bhash.Hash]*Block
	TxLocation  map[bhash.Hash]TxLocation
}

// NewIndex returns an empty Index ready to be populated by DecodeStream.
func NewIndex() *Index {
	return &Index{
		BlockByHash: make(map[bhash.Hash]*Block),
		TxLocation:  make(map[bhash.Hash]TxLocation),
	}
}

// add records a freshly decoded block's side effects into the index:
// block_hash_to_block, and tx_hash_to_block_hash for every transaction
// at its leaf index. Re-adding the same block hash is a no-op for
// blocks already seen (I5: no duplicate keys pointing to different
// blocks from the same parse).
func (idx *Index) add(b *Block) {
	h := b.Hash()
	if _, exists := idx.BlockByHash[h]; exists {
		return
	}
	idx.BlockByHash[h] = b
	for i, tx := range b.Transactions {
		txid := tx.TxID()
		if _, exists := idx.TxLocation[txid]; !exists {
			idx.TxLocation[txid] = TxLocation{BlockHash: h, LeafIndex: i}
		}
	}
}

// DecodeStream parses every block in a concatenated blk?????.dat byte
// stream, populating idx as a side effect and appending each block's
// raw 80-byte header to headerOut (the stream intended for SPV
// clients). It stops cleanly once fewer than 4+4+80 bytes remain.
func DecodeStream(data []byte, idx *Index, headerOut *bytes.Buffer) ([]*Block, error) {
	var blocks []*Block
	offset := 0

	for {
		if len(data)-offset < 4+4+80 {
			return blocks, nil
		}

		b, next, err := decodeOneBlock(data, offset)
		if err != nil {
			return blocks, err
		}

		headerOut.Write(b.Header.Raw())
		idx.add(b)
		blocks = append(blocks, b)

		offset = next + interBlockPadding
	}
}

// decodeOneBlock parses a single block starting at offset, returning
// the parsed block and the offset of the byte immediately after it.
func decodeOneBlock(data []byte, offset int) (*Block, int, error) {
	r := byteio.NewReader(data[offset:])

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, 0, &ParseError{Offset: offset, Reason: "truncated reading magic"}
	}
	if magic != Magic {
		return nil, 0, &ParseError{Offset: offset, Reason: fmt.Sprintf("bad magic 0x%08x", magic)}
	}

	blockSize, err := r.ReadU32LE()
	if err != nil {
		return nil, 0, &ParseError{Offset: offset, Reason: "truncated reading block size"}
	}
	headerStart := r.Pos()

	header, err := decodeHeader(r)
	if err != nil {
		return nil, 0, &ParseError{Offset: offset + r.Pos(), Reason: fmt.Sprintf("header: %v", err)}
	}

	txCount, _, err := r.ReadVarInt()
	if err != nil {
		return nil, 0, &ParseError{Offset: offset + r.Pos(), Reason: fmt.Sprintf("tx count: %v", err)}
	}

	txs := make([]Transaction, 0, txCount)
	txids := make([]bhash.Hash, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx, err := decodeTransaction(r)
		if err != nil {
			return nil, 0, &ParseError{Offset: offset + r.Pos(), Reason: fmt.Sprintf("tx %d: %v", i, err)}
		}
		txs = append(txs, tx)
		txids = append(txids, tx.TxID())
	}

	// C1: bytes consumed since the start of the header must equal
	// block_size exactly.
	consumed := r.Pos() - headerStart
	if consumed != int(blockSize) {
		return nil, 0, &ParseError{
			Offset: offset + headerStart,
			Reason: fmt.Sprintf("block size mismatch: header declared %d, consumed %d", blockSize, consumed),
		}
	}

	levels := merkle.Build(txids)
	root := merkle.Root(levels)

	// C2: the Merkle root computed from the txids must equal the
	// header's merkle_root field.
	if root != header.MerkleRoot {
		return nil, 0, &ParseError{
			Offset: offset + headerStart,
			Reason: fmt.Sprintf("merkle root mismatch: header %s, computed %s", bhash.Display(header.MerkleRoot), bhash.Display(root)),
		}
	}

	b := &Block{
		Header:       header,
		Transactions: txs,
		MerkleLevels: levels,
	}
	return b, offset + r.Pos(), nil
}

func decodeHeader(r *byteio.Reader) (Header, error) {
	var h Header

	version, err := r.ReadU32LE()
	if err != nil {
		return h, err
	}
	prevRaw, err := r.ReadHashInternal(32)
	if err != nil {
		return h, err
	}
	merkleRaw, err := r.ReadHashInternal(32)
	if err != nil {
		return h, err
	}
	t, err := r.ReadU32LE()
	if err != nil {
		return h, err
	}
	bits, err := r.ReadU32LE()
	if err != nil {
		return h, err
	}
	nonce, err := r.ReadU32LE()
	if err != nil {
		return h, err
	}

	prevHash, err := bhash.FromInternalBytes(prevRaw)
	if err != nil {
		return h, err
	}
	merkleRoot, err := bhash.FromInternalBytes(merkleRaw)
	if err != nil {
		return h, err
	}

	h.Version = version
	h.PrevHash = prevHash
	h.MerkleRoot = merkleRoot
	h.Time = t
	h.Bits = bits
	h.Nonce = nonce
	return h, nil
}

// decodeTransaction parses one transaction: version, optional BIP-141
// marker and flag, inputs, outputs, witness stacks, locktime —
// recording the exact raw bytes consumed, not a re-serialization, so
// the computed txid matches what's on the wire even across encoding
// ambiguities.
func decodeTransaction(r *byteio.Reader) (Transaction, error) {
	start := r.Pos()

	version, err := r.ReadU32LE()
	if err != nil {
		return Transaction{}, err
	}

	// A valid transaction never has zero inputs, so a 0x00 where the
	// input count belongs is the segwit marker; the 0x01 flag byte
	// follows, and witness stacks trail the outputs.
	hasWitness := false
	markerPos := r.Pos()
	marker, err := r.ReadU8()
	if err != nil {
		return Transaction{}, err
	}
	if marker == 0x00 {
		flag, err := r.ReadU8()
		if err != nil {
			return Transaction{}, err
		}
		if flag != 0x01 {
			return Transaction{}, fmt.Errorf("%w: segwit flag 0x%02x", byteio.ErrMalformed, flag)
		}
		hasWitness = true
	} else {
		r.Seek(markerPos)
	}

	bodyStart := r.Pos()

	inputCount, _, err := r.ReadVarInt()
	if err != nil {
		return Transaction{}, err
	}

	inputs := make([]Input, 0, inputCount)
	for i := uint64(0); i < inputCount; i++ {
		in, err := decodeInput(r)
		if err != nil {
			return Transaction{}, fmt.Errorf("input %d: %w", i, err)
		}
		inputs = append(inputs, in)
	}

	outputCount, _, err := r.ReadVarInt()
	if err != nil {
		return Transaction{}, err
	}

	outputs := make([]Output, 0, outputCount)
	for i := uint64(0); i < outputCount; i++ {
		out, err := decodeOutput(r)
		if err != nil {
			return Transaction{}, fmt.Errorf("output %d: %w", i, err)
		}
		outputs = append(outputs, out)
	}

	bodyEnd := r.Pos()

	if hasWitness {
		for i := range inputs {
			w, err := decodeWitnessStack(r)
			if err != nil {
				return Transaction{}, fmt.Errorf("witness %d: %w", i, err)
			}
			inputs[i].Witness = w
		}
	}

	locktimeStart := r.Pos()
	locktime, err := r.ReadU32LE()
	if err != nil {
		return Transaction{}, err
	}

	raw := r.Slice(start)

	// The stripped serialization drops the marker, flag, and witness
	// stacks: version || inputs+outputs || locktime, each the exact
	// slice read off the stream. txid is hashed over this form, wtxid
	// over the full raw bytes.
	var rawNoWitness []byte
	if hasWitness {
		rawNoWitness = make([]byte, 0, 4+(bodyEnd-bodyStart)+4)
		rawNoWitness = append(rawNoWitness, raw[:4]...)
		rawNoWitness = append(rawNoWitness, raw[bodyStart-start:bodyEnd-start]...)
		rawNoWitness = append(rawNoWitness, raw[locktimeStart-start:]...)
	}

	return Transaction{
		Version:      version,
		Inputs:       inputs,
		Outputs:      outputs,
		LockTime:     locktime,
		HasWitness:   hasWitness,
		Raw:          raw,
		RawNoWitness: rawNoWitness,
	}, nil
}

func decodeWitnessStack(r *byteio.Reader) ([][]byte, error) {
	itemCount, _, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	stack := make([][]byte, 0, itemCount)
	for i := uint64(0); i < itemCount; i++ {
		itemLen, _, err := r.ReadVarInt()
		if err != nil {
			return nil, err
		}
		item, err := r.ReadBytes(int(itemLen))
		if err != nil {
			return nil, err
		}
		stack = append(stack, item)
	}
	return stack, nil
}

func decodeInput(r *byteio.Reader) (Input, error) {
	prevRaw, err := r.ReadHashInternal(32)
	if err != nil {
		return Input{}, err
	}
	prevHash, err := bhash.FromInternalBytes(prevRaw)
	if err != nil {
		return Input{}, err
	}
	prevIndex, err := r.ReadU32LE()
	if err != nil {
		return Input{}, err
	}
	scriptLen, _, err := r.ReadVarInt()
	if err != nil {
		return Input{}, err
	}
	script, err := r.ReadBytes(int(scriptLen))
	if err != nil {
		return Input{}, err
	}
	sequence, err := r.ReadU32LE()
	if err != nil {
		return Input{}, err
	}
	return Input{
		PrevTxHash: prevHash,
		PrevIndex:  prevIndex,
		Script:     script,
		Sequence:   sequence,
	}, nil
}

func decodeOutput(r *byteio.Reader) (Output, error) {
	amount, err := r.ReadU64LE()
	if err != nil {
		return Output{}, err
	}
	scriptLen, _, err := r.ReadVarInt()
	if err != nil {
		return Output{}, err
	}
	script, err := r.ReadBytes(int(scriptLen))
	if err != nil {
		return Output{}, err
	}
	return Output{
		AmountSatoshi: int64(amount),
		Script:        script,
	}, nil
}
