package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fund engine metrics collector

const namespace = "pawfund"

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all fund engine metrics
type Collector struct {
	// Operation metrics
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	ErrorsTotal      *prometheus.CounterVec

	// Flow metrics
	DepositedTotal *prometheus.CounterVec
	RedeemedTotal  *prometheus.CounterVec
	FeesTotal      *prometheus.CounterVec
	MintedTotal    *prometheus.CounterVec

	// Rebalance metrics
	RebalancesTotal *prometheus.CounterVec
	RoutedTotal     *prometheus.CounterVec

	// Fund state
	AvailableCapital *prometheus.GaugeVec
	ClaimSupply      *prometheus.GaugeVec
	FundsExpired     prometheus.Counter

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec

	// System metrics
	BlockHeight prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector(prometheus.DefaultRegisterer)
	})
	return collector
}

// newCollector creates a collector registered with reg
func newCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{}

	c.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "total",
			Help:      "Fund operations by type and result",
		},
		[]string{"operation", "result"},
	)

	c.OperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "latency_ms",
			Help:      "Fund operation latency including commit",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		},
		[]string{"operation"},
	)

	c.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "errors_total",
			Help:      "Failed operations by error codespace and code",
		},
		[]string{"operation", "codespace", "code"},
	)

	c.DepositedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flows",
			Name:      "deposited_total",
			Help:      "Gross base units deposited",
		},
		[]string{"fund_id"},
	)

	c.RedeemedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flows",
			Name:      "redeemed_total",
			Help:      "Base units paid out on redemption",
		},
		[]string{"fund_id"},
	)

	c.FeesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flows",
			Name:      "fees_total",
			Help:      "Deposit fees disbursed by recipient",
		},
		[]string{"fund_id", "recipient"},
	)

	c.MintedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flows",
			Name:      "claims_minted_total",
			Help:      "Claim tokens minted on deposit",
		},
		[]string{"fund_id"},
	)

	c.RebalancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebalance",
			Name:      "total",
			Help:      "Rebalance legs by direction and venue outcome",
		},
		[]string{"fund_id", "direction", "outcome"},
	)

	c.RoutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebalance",
			Name:      "routed_total",
			Help:      "Base units routed back to vaults after settlement",
		},
		[]string{"fund_id"},
	)

	c.AvailableCapital = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "available_capital",
			Help:      "Deployable base units per fund",
		},
		[]string{"fund_id"},
	)

	c.ClaimSupply = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "claim_supply",
			Help:      "Outstanding claim tokens per fund",
		},
		[]string{"fund_id"},
	)

	c.FundsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "expired_total",
			Help:      "Funds flagged expired by the lifecycle sweep",
		},
	)

	c.WSConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Events broadcast over WebSocket by type",
		},
		[]string{"event"},
	)

	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "block_height",
			Help:      "Last committed state height",
		},
	)

	c.registerAll(reg)

	return c
}

// registerAll registers all metrics with reg
func (c *Collector) registerAll(reg prometheus.Registerer) {
	reg.MustRegister(
		c.OperationsTotal,
		c.OperationLatency,
		c.ErrorsTotal,

		c.DepositedTotal,
		c.RedeemedTotal,
		c.FeesTotal,
		c.MintedTotal,

		c.RebalancesTotal,
		c.RoutedTotal,

		c.AvailableCapital,
		c.ClaimSupply,
		c.FundsExpired,

		c.WSConnectionsActive,
		c.WSMessagesTotal,

		c.APIRequestsTotal,
		c.APIRequestLatency,

		c.BlockHeight,
	)
}

// ============ Recording Helpers ============

// RecordOperation records an operation outcome. Registered errors are
// labelled by codespace and code.
func (c *Collector) RecordOperation(operation string, err error, latencyMs float64) {
	c.OperationLatency.WithLabelValues(operation).Observe(latencyMs)
	if err == nil {
		c.OperationsTotal.WithLabelValues(operation, "ok").Inc()
		return
	}
	c.OperationsTotal.WithLabelValues(operation, "error").Inc()
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	c.ErrorsTotal.WithLabelValues(operation, codespace, strconv.FormatUint(uint64(code), 10)).Inc()
}

// RecordDeposit records a settled deposit
func (c *Collector) RecordDeposit(fundID string, gross, managerFee, ownerFee, minted uint64) {
	c.DepositedTotal.WithLabelValues(fundID).Add(float64(gross))
	c.FeesTotal.WithLabelValues(fundID, "manager").Add(float64(managerFee))
	c.FeesTotal.WithLabelValues(fundID, "owner").Add(float64(ownerFee))
	c.MintedTotal.WithLabelValues(fundID).Add(float64(minted))
}

// RecordRedeem records a redemption payout
func (c *Collector) RecordRedeem(fundID string, payout uint64) {
	c.RedeemedTotal.WithLabelValues(fundID).Add(float64(payout))
}

// RecordRebalance records a rebalance leg. outcome is "settled", "venue_failed"
// or "rejected".
func (c *Collector) RecordRebalance(fundID, direction, outcome string, routed uint64) {
	c.RebalancesTotal.WithLabelValues(fundID, direction, outcome).Inc()
	if routed > 0 {
		c.RoutedTotal.WithLabelValues(fundID).Add(float64(routed))
	}
}

// RecordFundState updates the per-fund gauges
func (c *Collector) RecordFundState(fundID string, availableCapital, claimSupply uint64) {
	c.AvailableCapital.WithLabelValues(fundID).Set(float64(availableCapital))
	c.ClaimSupply.WithLabelValues(fundID).Set(float64(claimSupply))
}

// RecordExpired records funds flagged by a sweep
func (c *Collector) RecordExpired(count int) {
	c.FundsExpired.Add(float64(count))
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.Add(float64(delta))
}

// RecordWSMessage records a broadcast event
func (c *Collector) RecordWSMessage(event string) {
	c.WSMessagesTotal.WithLabelValues(event).Inc()
}

// UpdateBlockHeight records the last committed height
func (c *Collector) UpdateBlockHeight(height int64) {
	c.BlockHeight.Set(float64(height))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
