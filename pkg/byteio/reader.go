// Package byteio provides positional decoding over an immutable byte
// buffer, the primitive the block and header parsers build on.
package byteio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when fewer bytes remain than a read requires.
var ErrTruncated = errors.New("byteio: truncated input")

// ErrMalformed is returned when the bytes read are structurally invalid
// for the field being decoded.
var ErrMalformed = errors.New("byteio: malformed input")

// Reader decodes little-endian integers, fixed-width hashes, and Bitcoin
// compact-size integers from a byte slice via a moving cursor. It wraps
// the backing slice without copying it; the byte-returning reads
// (ReadBytes, ReadHashInternal, ReadHashDisplay, Slice) return copies.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for positional reads starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset into the wrapped buffer.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Seek repositions the cursor to an absolute offset.
func (r *Reader) Seek(pos int) {
	r.pos = pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d at offset %d", ErrTruncated, n, r.Len(), r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32LE reads a little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64LE reads a little-endian uint64.
func (r *Reader) ReadU64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Slice returns a copy of the bytes consumed between start and the
// current cursor position — the exact raw bytes read, not a
// re-serialization. Used to capture a transaction's raw encoding for
// txid hashing.
func (r *Reader) Slice(start int) []byte {
	out := make([]byte, r.pos-start)
	copy(out, r.buf[start:r.pos])
	return out
}

// ReadBytes copies the next n bytes verbatim (wire/internal order).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadHashInternal copies the next n bytes as an internal-order hash —
// the byte order used for hashing inputs and map keys.
func (r *Reader) ReadHashInternal(n int) ([]byte, error) {
	return r.ReadBytes(n)
}

// ReadHashDisplay copies the next n bytes and reverses them, producing
// the display-order form shown to users.
func (r *Reader) ReadHashDisplay(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i, v := range b {
		out[n-1-i] = v
	}
	return out, nil
}

// ReadVarInt reads a Bitcoin compact-size integer: the first byte selects
// a 1/3/5/9-byte encoding. It returns the decoded value and the number of
// bytes consumed (including the discriminator byte).
func (r *Reader) ReadVarInt() (value uint64, width int, err error) {
	disc, err := r.ReadU8()
	if err != nil {
		return 0, 0, err
	}
	switch {
	case disc < 0xfd:
		return uint64(disc), 1, nil
	case disc == 0xfd:
		v, err := r.ReadU16LE()
		if err != nil {
			return 0, 0, err
		}
		return uint64(v), 3, nil
	case disc == 0xfe:
		v, err := r.ReadU32LE()
		if err != nil {
			return 0, 0, err
		}
		return uint64(v), 5, nil
	default: // disc == 0xff
		v, err := r.ReadU64LE()
		if err != nil {
			return 0, 0, err
		}
		return v, 9, nil
	}
}
