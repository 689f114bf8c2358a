// Package spvverify implements the SPV side of the inclusion-proof
// contract: given a proof.Result quoted by a (possibly untrusted)
// full-node proxy, decide whether the referenced transaction is really
// included in the main chain and how deep its confirmation is.
package spvverify

import (
	"btcspv/pkg/bhash"
	"btcspv/pkg/chainindex"
	"btcspv/pkg/merkle"
	"btcspv/pkg/proof"
)

// Verdict strings. Callers may pattern-match on these; the wording is
// part of the verifier's contract.
const (
	VerdictNotFound       = "Full node proxy could not find transaction"
	VerdictUnsynchronized = "SPV client should synchronize"
	VerdictNotMainChain   = "Transaction is not in main chain"
	VerdictUnverifiable   = "Transaction cannot be verified"
	VerdictReversible     = "still reversible"
	VerdictSmallAmount    = "small-amount likely secure"
	VerdictLargeAmount    = "large-amount likely secure"
	VerdictIrreversible   = "close to irreversible"
)

// Result is the verifier's final answer: a human-readable verdict and
// the confirmation depth that produced it. Depth is -1 whenever the
// proof was rejected before a depth could be computed.
type Result struct {
	Verdict string
	Depth   int
}

// Verify runs the five-step inclusion check from the proof/SPV
// contract against a display-order txid and a quoted proof.Result,
// using idx (built by chainindex.Build) as the source of truth for
// main-chain membership and header heights.
func Verify(txidDisplay string, p proof.Result, idx *chainindex.Index) (Result, error) {
	if p.TxCount == 0 {
		return Result{Verdict: VerdictNotFound, Depth: -1}, nil
	}

	curr, ok := idx.CurrForMerkleRoot(p.MerkleRoot)
	if !ok {
		return Result{Verdict: VerdictUnsynchronized, Depth: -1}, nil
	}

	header, ok := idx.Header(curr)
	if !ok || !header.MainChain {
		return Result{Verdict: VerdictNotMainChain, Depth: -1}, nil
	}

	txid, err := bhash.ParseDisplay(txidDisplay)
	if err != nil {
		return Result{}, err
	}

	if !merkle.Verify(txid, p.LeafIndex, p.TxCount, p.Branch, p.MerkleRoot) {
		return Result{Verdict: VerdictUnverifiable, Depth: -1}, nil
	}

	depth := idx.Height - header.Height
	return Result{Verdict: categorize(depth), Depth: depth}, nil
}

func categorize(depth int) string {
	switch {
	case depth == 0:
		return VerdictReversible
	case depth >= 1 && depth <= 5:
		return VerdictSmallAmount
	case depth >= 6 && depth <= 59:
		return VerdictLargeAmount
	default:
		return VerdictIrreversible
	}
}
