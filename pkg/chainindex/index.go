// Package chainindex builds the block graph from a headerstore.Store,
// runs a breadth-first traversal from the genesis predecessor to assign
// heights, selects the longest chain, and marks main-chain membership.
package chainindex

import (
	"sort"

	"btcspv/pkg/bhash"
	"btcspv/pkg/block"
	"btcspv/pkg/headerstore"
)

// Index is the single immutable value a setup routine publishes and
// every query handler reads from concurrently — no global mutable
// state, no further mutation once Build returns.
type Index struct {
	Store       *headerstore.Store
	Tip         bhash.Hash
	Height      int // blockchain_height: the winning tip's height
}

// Build runs BFS from the all-zero sentinel over store's prev→children
// graph, assigns every reachable header's height, selects the longest
// chain's tip, and flags main-chain membership along the path back to
// genesis.
//
// Tie-breaking between equal-distance tips follows BFS iteration order.
// Go map iteration is not insertion-stable, so Build sorts each node's
// children by hash before enqueueing them, making tip selection
// reproducible across runs.
func Build(store *headerstore.Store) *Index {
	type queued struct {
		hash bhash.Hash
	}

	distances := map[bhash.Hash]int{bhash.Zero: 0}
	queue := []queued{{hash: bhash.Zero}}

	maxDistance := -1
	var maxHash bhash.Hash

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		children := store.PrevToChildren[curr.hash]
		sortChildrenByHash(children)

		for _, child := range children {
			c := child.Hash()
			if _, seen := distances[c]; seen {
				continue
			}
			distances[c] = distances[curr.hash] + 1
			child.Height = distances[c] - 1
			queue = append(queue, queued{hash: c})

			if distances[c] > maxDistance {
				maxDistance = distances[c]
				maxHash = c
			}
		}
	}

	idx := &Index{Store: store, Tip: maxHash, Height: maxDistance - 1}
	idx.flagMainChain()
	return idx
}

func sortChildrenByHash(children []*block.Header) {
	sort.Slice(children, func(i, j int) bool {
		hi, hj := children[i].Hash(), children[j].Hash()
		return lessHash(hi, hj)
	})
}

func lessHash(a, b bhash.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// flagMainChain walks from the winning tip back to the sentinel,
// flagging main_chain = true on every header along the path, then
// flags the genesis header itself (the sole child of the sentinel).
func (idx *Index) flagMainChain() {
	if idx.Height < 0 {
		return // no reachable blocks at all
	}

	curr := idx.Tip
	prev, ok := idx.Store.CurrToPrev[curr]
	if !ok {
		return
	}

	for prev != bhash.Zero {
		for _, h := range idx.Store.PrevToChildren[prev] {
			if h.Hash() == curr {
				h.MainChain = true
				break
			}
		}
		curr = prev
		prev = idx.Store.CurrToPrev[prev]
	}

	genesisChildren := idx.Store.PrevToChildren[bhash.Zero]
	if len(genesisChildren) > 0 {
		genesisChildren[0].MainChain = true
	}
}

// Header looks up a header by its internal-order curr hash.
func (idx *Index) Header(curr bhash.Hash) (*block.Header, bool) {
	h, ok := idx.Store.CurrToHeader[curr]
	return h, ok
}

// CurrForMerkleRoot resolves a header's internal-order curr hash from
// its merkle_root, the lookup SPV verification starts from.
func (idx *Index) CurrForMerkleRoot(root bhash.Hash) (bhash.Hash, bool) {
	curr, ok := idx.Store.MerkleToCurr[root]
	return curr, ok
}
