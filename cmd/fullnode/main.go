// Command fullnode is the full-node proxy: it scans a directory of raw
// block files, builds the block and header indexes, selects the main
// chain, and serves inclusion proofs and block lookups over HTTP.
package main

import (
	"bytes"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"btcspv/pkg/block"
	"btcspv/pkg/chainindex"
	"btcspv/pkg/fileset"
	"btcspv/pkg/headerstore"
	"btcspv/pkg/httpapi"
	"btcspv/pkg/metrics"
)

// Options mirrors the flokicoind-style CLI surface: short/long flags,
// a required input directory, and sane defaults for everything else.
type Options struct {
	BlocksDir  string  `short:"b" long:"blocksdir" description:"Directory containing blk?????.dat files" required:"true"`
	HeaderFile string  `short:"o" long:"headerfile" description:"Path the header-only stream is written to for SPV clients" default:"headers.dat"`
	Listen     string  `short:"l" long:"listen" description:"HTTP listen address" default:":8080"`
	LogFile   string  `long:"logfile" description:"Path to a rotated log file; empty logs to stderr only"`
	RateLimit float64 `long:"ratelimit" description:"Requests per second allowed per process" default:"50"`
	RateBurst int     `long:"rateburst" description:"Burst size for the rate limiter" default:"100"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	logger := buildLogger(opts.LogFile)
	defer logger.Sync()

	blockIdx := block.NewIndex()
	var headerOut bytes.Buffer

	n, err := fileset.Scan(opts.BlocksDir, blockIdx, &headerOut)
	if err != nil {
		logger.Error("scanning block files failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("scanned block files", zap.Int("files", n), zap.Int("blocks", len(blockIdx.BlockByHash)))

	if err := os.WriteFile(opts.HeaderFile, headerOut.Bytes(), 0o644); err != nil {
		logger.Error("writing header-only file failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("wrote header-only stream", zap.String("path", opts.HeaderFile), zap.Int("bytes", headerOut.Len()))

	store := headerstore.New()
	if err := store.Load(headerOut.Bytes()); err != nil {
		logger.Error("loading header stream failed", zap.Error(err))
		os.Exit(1)
	}

	chainIdx := chainindex.Build(store)
	logger.Info("built chain index",
		zap.Int("blockchain_height", chainIdx.Height),
		zap.String("tip", chainIdx.Tip.String()),
	)

	metrics.BlocksIndexed.Set(float64(len(blockIdx.BlockByHash)))
	metrics.TransactionsIndexed.Set(float64(len(blockIdx.TxLocation)))
	metrics.BlockchainHeight.Set(float64(chainIdx.Height))

	server := httpapi.NewServer(blockIdx, chainIdx, logger, opts.RateLimit, opts.RateBurst)
	logger.Info("listening", zap.String("addr", opts.Listen))
	if err := server.Run(opts.Listen); err != nil {
		logger.Error("http server exited", zap.Error(err))
		os.Exit(1)
	}
}

// buildLogger constructs a production zap.Logger on stderr, or one that
// writes JSON to a rotated log file (and not to stderr) when one is
// configured.
func buildLogger(logFile string) *zap.Logger {
	if logFile == "" {
		logger, err := zap.NewProduction()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		return logger
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log rotator: %v\n", err)
		os.Exit(1)
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(r), zapcore.InfoLevel)
	return zap.New(core)
}
