package explorer

import (
	"github.com/btcsuite/btcd/chaincfg"

	"btcspv/pkg/bhash"
	"btcspv/pkg/block"
)

// OutputView is the enriched, display-ready form of a transaction output.
type OutputView struct {
	Index      int
	AmountSats int64
	ScriptType string
	Address    string
	HasAddress bool
	ASM        string
	OpReturn   *OpReturn
}

// InputView is the enriched, display-ready form of a transaction input.
type InputView struct {
	Index       int
	PrevTxID    string
	PrevIndex   uint32
	Sequence    uint32
	Timelock    RelativeTimelock
	LocktimeHex string
}

// TransactionView is a full transaction's enrichment: its outputs,
// inputs, RBF signaling, locktime classification, and warnings.
type TransactionView struct {
	TxID         string
	LockTime     uint32
	LocktimeType string
	RBFSignaling bool
	Inputs       []InputView
	Outputs      []OutputView
	Warnings     []Warning
}

// Summarize builds a TransactionView for tx using net to encode any
// addresses it can derive.
func Summarize(tx *block.Transaction, net *chaincfg.Params) TransactionView {
	sequences := make([]uint32, len(tx.Inputs))
	inputs := make([]InputView, len(tx.Inputs))
	for i, in := range tx.Inputs {
		sequences[i] = in.Sequence
		inputs[i] = InputView{
			Index:     i,
			PrevTxID:  bhash.Display(in.PrevTxHash),
			PrevIndex: in.PrevIndex,
			Sequence:  in.Sequence,
			Timelock:  ParseRelativeTimelock(in.Sequence),
		}
	}

	outputs := make([]OutputView, len(tx.Outputs))
	summaries := make([]OutputSummary, len(tx.Outputs))
	for i, out := range tx.Outputs {
		scriptType := ClassifyOutputScript(out.Script)
		view := OutputView{
			Index:      i,
			AmountSats: out.AmountSatoshi,
			ScriptType: scriptType,
			ASM:        DisassembleScript(out.Script),
		}
		if addr, ok := AddressFromScript(out.Script, net); ok {
			view.Address = addr
			view.HasAddress = true
		}
		if scriptType == "op_return" {
			or := ParseOpReturn(out.Script)
			view.OpReturn = &or
		}
		outputs[i] = view
		summaries[i] = OutputSummary{ScriptType: scriptType, AmountSats: out.AmountSatoshi}
	}

	rbf := IsRBFSignaling(sequences)

	return TransactionView{
		TxID:         bhash.Display(tx.TxID()),
		LockTime:     tx.LockTime,
		LocktimeType: LocktimeType(tx.LockTime),
		RBFSignaling: rbf,
		Inputs:       inputs,
		Outputs:      outputs,
		Warnings:     GenerateWarnings(rbf, summaries),
	}
}

// ScriptHistogram counts output script types across a block, the
// explorer's per-block summary statistic.
func ScriptHistogram(b *block.Block) map[string]int {
	hist := make(map[string]int)
	for _, tx := range b.Transactions {
		for _, out := range tx.Outputs {
			hist[ClassifyOutputScript(out.Script)]++
		}
	}
	return hist
}
