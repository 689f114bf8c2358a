package explorer

// Warning is an advisory flag surfaced alongside a transaction's
// enrichment — never part of the inclusion proof contract.
type Warning struct {
	Code string
}

// OutputSummary is the minimal per-output shape warning generation
// needs: its classified script type and satoshi amount.
type OutputSummary struct {
	ScriptType string
	AmountSats int64
}

const dustThresholdSats = 546

// GenerateWarnings flags outputs and signaling the block decoder's data
// alone can diagnose. Fee-based warnings are out of scope: fee requires
// prevout amounts, which the decoder never has (no undo/rev file, no
// UTXO set).
func GenerateWarnings(rbfSignaling bool, outputs []OutputSummary) []Warning {
	var warnings []Warning

	for _, out := range outputs {
		if out.ScriptType != "op_return" && out.AmountSats < dustThresholdSats {
			warnings = append(warnings, Warning{Code: "DUST_OUTPUT"})
			break
		}
	}

	for _, out := range outputs {
		if out.ScriptType == "unknown" {
			warnings = append(warnings, Warning{Code: "UNKNOWN_OUTPUT_SCRIPT"})
			break
		}
	}

	if rbfSignaling {
		warnings = append(warnings, Warning{Code: "RBF_SIGNALING"})
	}

	return warnings
}
