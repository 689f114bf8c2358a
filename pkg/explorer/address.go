package explorer

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// DefaultNet is the network used when a caller has no specific
// chaincfg.Params of its own to thread through — address derivation
// always needs one, and mainnet is this proxy's only deployed target.
func DefaultNet() *chaincfg.Params {
	return &chaincfg.MainNetParams
}

// AddressFromScript derives the display address for a scriptPubKey,
// returning ("", false) for script types with no address encoding
// (OP_RETURN, unknown, or a malformed push for a recognized template).
func AddressFromScript(scriptPubkey []byte, net *chaincfg.Params) (string, bool) {
	scriptType := ClassifyOutputScript(scriptPubkey)

	var addr btcutil.Address
	var err error

	switch scriptType {
	case "p2pkh":
		if len(scriptPubkey) != 25 {
			return "", false
		}
		addr, err = btcutil.NewAddressPubKeyHash(scriptPubkey[3:23], net)

	case "p2sh":
		if len(scriptPubkey) != 23 {
			return "", false
		}
		addr, err = btcutil.NewAddressScriptHashFromHash(scriptPubkey[2:22], net)

	case "p2wpkh":
		if len(scriptPubkey) != 22 {
			return "", false
		}
		addr, err = btcutil.NewAddressWitnessPubKeyHash(scriptPubkey[2:22], net)

	case "p2wsh":
		if len(scriptPubkey) != 34 {
			return "", false
		}
		addr, err = btcutil.NewAddressWitnessScriptHash(scriptPubkey[2:34], net)

	case "p2tr":
		if len(scriptPubkey) != 34 {
			return "", false
		}
		addr, err = btcutil.NewAddressTaproot(scriptPubkey[2:34], net)

	default:
		return "", false
	}

	if err != nil {
		return "", false
	}
	return addr.EncodeAddress(), true
}
