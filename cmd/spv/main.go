// Command spv is the SPV verifier: it loads a header-only byte stream,
// rebuilds the main chain, fetches an inclusion proof from a full-node
// proxy over HTTP, and prints the confirmation verdict.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"btcspv/pkg/bhash"
	"btcspv/pkg/chainindex"
	"btcspv/pkg/headerstore"
	"btcspv/pkg/proof"
	"btcspv/pkg/spvverify"
	"btcspv/pkg/types"
)

// Options is the CLI surface: a header file built by the full-node
// proxy's scan, the proxy's base URL, and the txid to verify.
type Options struct {
	HeaderFile string `short:"f" long:"headerfile" description:"Path to the header-only byte stream" required:"true"`
	ProxyURL   string `short:"u" long:"proxyurl" description:"Base URL of the full-node proxy" default:"http://127.0.0.1:8080"`
	Txid       string `short:"t" long:"txid" description:"Display-order txid to verify" required:"true"`
	Verbose    bool   `short:"v" long:"verbose" description:"Verbose logging"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	logger := buildLogger(opts.Verbose)
	defer logger.Sync()

	data, err := os.ReadFile(opts.HeaderFile)
	if err != nil {
		logger.Error("reading header file failed", zap.Error(err))
		os.Exit(1)
	}

	store := headerstore.New()
	if err := store.Load(data); err != nil {
		logger.Error("loading headers failed", zap.Error(err))
		os.Exit(1)
	}

	chainIdx := chainindex.Build(store)
	logger.Info("rebuilt chain", zap.Int("blockchain_height", chainIdx.Height))

	p, err := fetchProof(opts.ProxyURL, opts.Txid)
	if err != nil {
		logger.Error("fetching proof failed", zap.Error(err))
		os.Exit(1)
	}

	res, err := spvverify.Verify(opts.Txid, p, chainIdx)
	if err != nil {
		logger.Error("verification failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("verdict: %s\ndepth: %d\n", res.Verdict, res.Depth)
}

// fetchProof calls the full-node proxy's proof endpoint — the whole
// query string is the display-order txid, no key — and converts its
// wire response back into a proof.Result.
func fetchProof(baseURL, txidDisplay string) (proof.Result, error) {
	resp, err := http.Get(baseURL + "/txid?" + txidDisplay)
	if err != nil {
		return proof.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return proof.Result{}, err
	}

	var wire types.ProofResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return proof.Result{}, err
	}
	return decodeWireProof(wire)
}

// decodeWireProof parses a ProofResponse's hex-encoded hashes back into
// the internal-order bhash.Hash values proof.Result carries.
func decodeWireProof(wire types.ProofResponse) (proof.Result, error) {
	if wire.TxCount == 0 {
		return proof.Result{}, nil
	}

	root, err := bhash.ParseInternalHex(wire.TxRootHash)
	if err != nil {
		return proof.Result{}, err
	}

	branch := make([]bhash.Hash, len(wire.TxBranchHashes))
	for i, h := range wire.TxBranchHashes {
		bh, err := bhash.ParseInternalHex(h)
		if err != nil {
			return proof.Result{}, err
		}
		branch[i] = bh
	}

	return proof.Result{
		TxCount:    wire.TxCount,
		LeafIndex:  wire.TxLeafIndex,
		Branch:     branch,
		MerkleRoot: root,
	}, nil
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
