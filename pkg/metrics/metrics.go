// Package metrics exposes the full-node proxy's Prometheus counters and
// gauges, registered once at init time and served over /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BlocksIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "btcspv",
		Name:      "blocks_indexed",
		Help:      "Number of blocks currently held in the block index.",
	})

	TransactionsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "btcspv",
		Name:      "transactions_indexed",
		Help:      "Number of transactions currently held in the txid index.",
	})

	BlockchainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "btcspv",
		Name:      "blockchain_height",
		Help:      "Height of the selected main-chain tip.",
	})

	ProofRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcspv",
		Name:      "proof_requests_total",
		Help:      "Inclusion-proof requests by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		BlocksIndexed,
		TransactionsIndexed,
		BlockchainHeight,
		ProofRequests,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
