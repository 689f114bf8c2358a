package byteio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFixedWidth(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	r := NewReader(buf)

	u8, err := r.ReadU8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("ReadU8 = %v, %v", u8, err)
	}
	u16, err := r.ReadU16LE()
	if err != nil || u16 != 0x0302 {
		t.Fatalf("ReadU16LE = %x, %v", u16, err)
	}
	u32, err := r.ReadU32LE()
	if err != nil || u32 != 0x07060504 {
		t.Fatalf("ReadU32LE = %x, %v", u32, err)
	}
}

func TestReadU64LE(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	r := NewReader(buf)
	v, err := r.ReadU64LE()
	if err != nil || v != 0x0100000000000000 {
		t.Fatalf("ReadU64LE = %x, %v", v, err)
	}
}

func TestReadHashInternalAndDisplay(t *testing.T) {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(i)
	}

	r := NewReader(buf)
	internal, err := r.ReadHashInternal(32)
	if err != nil {
		t.Fatal(err)
	}
	if internal[0] != 0x00 || internal[31] != 0x1f {
		t.Fatalf("internal order mismatch: %x", internal)
	}

	r2 := NewReader(buf)
	display, err := r2.ReadHashDisplay(32)
	if err != nil {
		t.Fatal(err)
	}
	if display[0] != 0x1f || display[31] != 0x00 {
		t.Fatalf("display order mismatch: %x", display)
	}
}

func TestReadVarIntWidths(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		val  uint64
		w    int
	}{
		{"1-byte", []byte{0xfc}, 0xfc, 1},
		{"3-byte", []byte{0xfd, 0x34, 0x12}, 0x1234, 3},
		{"5-byte", []byte{0xfe, 0x78, 0x56, 0x34, 0x12}, 0x12345678, 5},
		{"9-byte", []byte{0xff, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, 1, 9},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(c.buf)
			v, w, err := r.ReadVarInt()
			require.NoError(t, err)
			require.Equal(t, c.val, v)
			require.Equal(t, c.w, w)
		})
	}
}

func TestReadVarIntTruncated(t *testing.T) {
	r := NewReader([]byte{0xfd, 0x01})
	if _, _, err := r.ReadVarInt(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadBytesTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadBytes(3); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
