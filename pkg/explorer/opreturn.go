package explorer

import (
	"bytes"
	"encoding/hex"
	"unicode/utf8"

	"github.com/btcsuite/btcd/txscript"
)

// OpReturn is the decoded payload of an OP_RETURN output.
type OpReturn struct {
	DataHex  string
	DataUTF8 string
	HasUTF8  bool
	Protocol string
}

// ParseOpReturn concatenates every data push following OP_RETURN and
// guesses a protocol tag from known magic prefixes.
func ParseOpReturn(script []byte) OpReturn {
	if len(script) == 0 || script[0] != txscript.OP_RETURN {
		return OpReturn{Protocol: "unknown"}
	}

	var data []byte
	pushes, err := txscript.PushedData(script)
	if err == nil {
		for _, p := range pushes {
			data = append(data, p...)
		}
	}

	out := OpReturn{DataHex: hex.EncodeToString(data)}

	if len(data) > 0 && utf8.Valid(data) {
		out.DataUTF8 = string(data)
		out.HasUTF8 = true
	}

	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x6f, 0x6d, 0x6e, 0x69}):
		out.Protocol = "omni"
	case len(data) >= 5 && bytes.Equal(data[:5], []byte{0x01, 0x09, 0xf9, 0x11, 0x02}):
		out.Protocol = "opentimestamps"
	default:
		out.Protocol = "unknown"
	}
	return out
}
