// Package httpapi is the full-node proxy's HTTP adapter: a gin router
// exposing the inclusion-proof contract, a block explorer view, health,
// and Prometheus metrics, with CORS and rate limiting in front.
package httpapi

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"btcspv/pkg/bhash"
	"btcspv/pkg/block"
	"btcspv/pkg/chainindex"
	"btcspv/pkg/explorer"
	"btcspv/pkg/metrics"
	"btcspv/pkg/proof"
	"btcspv/pkg/types"
)

// Server owns the published, read-only index the handlers close over.
// Nothing here mutates BlockIndex or ChainIndex after NewServer returns
// — they are built once during setup and handed to NewServer by the
// caller before Run is invoked.
type Server struct {
	BlockIndex *block.Index
	ChainIndex *chainindex.Index
	Logger     *zap.Logger

	limiter *rate.Limiter
	engine  *gin.Engine
}

// NewServer builds the gin engine and registers every route. ratePerSec
// and burst configure the public endpoint's token-bucket limiter.
func NewServer(blockIdx *block.Index, chainIdx *chainindex.Index, logger *zap.Logger, ratePerSec float64, burst int) *Server {
	s := &Server{
		BlockIndex: blockIdx,
		ChainIndex: chainIdx,
		Logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.loggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(s.rateLimitMiddleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/txid", s.handleProof)
	r.GET("/block/:hash", s.handleBlock)

	s.engine = r
	return s
}

// Run starts the HTTP listener, blocking until it exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.Logger != nil {
			s.Logger.Info("request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("latency", time.Since(start)),
			)
		}
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorInfo{
				Code:    "RATE_LIMITED",
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleProof implements the inclusion-proof contract over HTTP:
// GET /txid?<64-hex-display-order-txid> — the entire query string is
// the hex value, no key. 200 with the proof tuple (tx_count == 0
// encodes "not found", it is never an HTTP error status); 400 unless
// the query is exactly 64 hex characters.
func (s *Server) handleProof(c *gin.Context) {
	txidDisplay := c.Request.URL.RawQuery
	if !isTxidHex(txidDisplay) {
		metrics.ProofRequests.WithLabelValues("bad_txid").Inc()
		c.JSON(http.StatusBadRequest, types.ErrorInfo{Code: "BAD_TXID", Message: "txid must be exactly 64 hex characters"})
		return
	}

	res, err := proof.Request(s.BlockIndex, txidDisplay)
	if err != nil {
		metrics.ProofRequests.WithLabelValues("bad_txid").Inc()
		c.JSON(http.StatusBadRequest, types.ErrorInfo{Code: "BAD_TXID", Message: err.Error()})
		return
	}

	outcome := "found"
	if res.TxCount == 0 {
		outcome = "not_found"
	}
	metrics.ProofRequests.WithLabelValues(outcome).Inc()

	branch := make([]string, len(res.Branch))
	for i, h := range res.Branch {
		branch[i] = bhash.HexInternal(h)
	}

	root := ""
	if res.TxCount > 0 {
		root = bhash.HexInternal(res.MerkleRoot)
	}

	c.JSON(http.StatusOK, types.ProofResponse{
		TxCount:        res.TxCount,
		TxLeafIndex:    res.LeafIndex,
		TxBranchHashes: branch,
		TxRootHash:     root,
	})
}

// isTxidHex reports whether s is exactly 64 hex characters — shorter
// hex would otherwise be zero-padded by the hash parser instead of
// rejected.
func isTxidHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// handleBlock serves the explorer enrichment for a single block by its
// display-order block hash.
func (s *Server) handleBlock(c *gin.Context) {
	hashDisplay := c.Param("hash")
	h, err := bhash.ParseDisplay(hashDisplay)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorInfo{Code: "BAD_HASH", Message: err.Error()})
		return
	}

	b, ok := s.BlockIndex.BlockByHash[h]
	if !ok {
		c.JSON(http.StatusNotFound, types.ErrorInfo{Code: "NOT_FOUND", Message: "block not known"})
		return
	}

	header, _ := s.ChainIndex.Header(h)

	net := explorer.DefaultNet()
	txs := make([]types.TransactionView, len(b.Transactions))
	for i := range b.Transactions {
		view := explorer.Summarize(&b.Transactions[i], net)
		txs[i] = toWireTransaction(view)
	}

	resp := types.BlockResponse{
		Header: types.BlockHeaderView{
			Version:       b.Header.Version,
			PrevBlockHash: bhash.Display(b.Header.PrevHash),
			MerkleRoot:    bhash.Display(b.Header.MerkleRoot),
			Timestamp:     b.Header.Time,
			Bits:          b.Header.Bits,
			Nonce:         b.Header.Nonce,
			BlockHash:     bhash.Display(h),
		},
		TxCount:           b.TxCount(),
		Transactions:      txs,
		ScriptTypeSummary: explorer.ScriptHistogram(b),
	}
	if header != nil {
		resp.Header.Height = header.Height
		resp.Header.MainChain = header.MainChain
	}

	c.JSON(http.StatusOK, resp)
}

func toWireTransaction(v explorer.TransactionView) types.TransactionView {
	vin := make([]types.InputView, len(v.Inputs))
	for i, in := range v.Inputs {
		vin[i] = types.InputView{
			Index:        in.Index,
			PrevTxid:     in.PrevTxID,
			PrevIndex:    in.PrevIndex,
			Sequence:     in.Sequence,
			RbfSignaling: in.Sequence < 0xfffffffe,
		}
	}

	vout := make([]types.OutputView, len(v.Outputs))
	for i, out := range v.Outputs {
		ov := types.OutputView{
			Index:      out.Index,
			ValueSats:  out.AmountSats,
			ScriptType: out.ScriptType,
			ScriptAsm:  out.ASM,
		}
		if out.HasAddress {
			addr := out.Address
			ov.Address = &addr
		}
		if out.OpReturn != nil {
			ov.OpReturnDataHex = out.OpReturn.DataHex
			ov.OpReturnProtocol = out.OpReturn.Protocol
			if out.OpReturn.HasUTF8 {
				u := out.OpReturn.DataUTF8
				ov.OpReturnDataUtf8 = &u
			}
		}
		vout[i] = ov
	}

	warnings := make([]string, len(v.Warnings))
	for i, w := range v.Warnings {
		warnings[i] = w.Code
	}

	return types.TransactionView{
		Txid:         v.TxID,
		Locktime:     v.LockTime,
		LocktimeType: v.LocktimeType,
		RbfSignaling: v.RBFSignaling,
		Vin:          vin,
		Vout:         vout,
		Warnings:     warnings,
	}
}
