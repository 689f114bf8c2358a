// Package explorer enriches a decoded block with human-readable
// information a block explorer would show a user: script classification,
// addresses, disassembled ASM, OP_RETURN payloads, timelocks, RBF
// signaling, and advisory warnings. None of it touches the inclusion
// proof contract — it is read entirely from data the block decoder
// already has, never from prevout values or scripts.
package explorer

import (
	"github.com/btcsuite/btcd/txscript"
)

// ClassifyOutputScript returns the canonical script type name for a
// scriptPubKey, recognizing the standard pubkey templates plus OP_RETURN.
func ClassifyOutputScript(scriptPubkey []byte) string {
	switch txscript.GetScriptClass(scriptPubkey) {
	case txscript.PubKeyTy:
		return "p2pk"
	case txscript.PubKeyHashTy:
		return "p2pkh"
	case txscript.ScriptHashTy:
		return "p2sh"
	case txscript.WitnessV0PubKeyHashTy:
		return "p2wpkh"
	case txscript.WitnessV0ScriptHashTy:
		return "p2wsh"
	case txscript.WitnessV1TaprootTy:
		return "p2tr"
	case txscript.MultiSigTy:
		return "multisig"
	case txscript.NullDataTy:
		return "op_return"
	default:
		return "unknown"
	}
}

// DisassembleScript renders script bytes as a one-line ASM string:
// opcode names with pushed data as hex, and the small-integer opcodes
// (OP_0 through OP_16, OP_1NEGATE) as their numeric values. An
// undecodable script disassembles up to the failure point, followed by
// "[error]".
func DisassembleScript(script []byte) string {
	if len(script) == 0 {
		return ""
	}
	asm, _ := txscript.DisasmString(script)
	return asm
}
