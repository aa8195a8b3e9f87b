// Package metrics exposes purchase, wallet and worker counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nfticket-backend/internal/service/purchase"
)

// Recorder owns every collector. It satisfies wallet.Observer and
// purchase.Observer.
type Recorder struct {
	registry *prometheus.Registry

	settlementsStarted  *prometheus.CounterVec
	settlementsFinished *prometheus.CounterVec
	settlementDuration  *prometheus.HistogramVec
	staleCompletions    *prometheus.CounterVec
	inFlight            *prometheus.GaugeVec
	walletOps           *prometheus.CounterVec
	ticketEvents        *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		settlementsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfticket_settlements_started_total",
			Help: "Settlements started per rail",
		}, []string{"rail"}),
		settlementsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfticket_settlements_finished_total",
			Help: "Settlements finished per rail and outcome",
		}, []string{"rail", "outcome"}),
		settlementDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfticket_settlement_duration_seconds",
			Help:    "Time from confirm to settlement outcome",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
		}, []string{"rail"}),
		staleCompletions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfticket_stale_completions_total",
			Help: "Settlement results dropped because the attempt was abandoned",
		}, []string{"rail"}),
		inFlight: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nfticket_settlements_in_flight",
			Help: "Settlements currently running per rail",
		}, []string{"rail"}),
		walletOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfticket_wallet_operations_total",
			Help: "Wallet connect and network switch requests",
		}, []string{"operation", "status"}),
		ticketEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfticket_ticket_events_total",
			Help: "Ticket lifecycle events consumed from the stream",
		}, []string{"type", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfticket_http_requests_total",
			Help: "HTTP requests per route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfticket_http_request_duration_seconds",
			Help:    "HTTP request latency per route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry is what the /metrics handler serves.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) SettlementStarted(rail purchase.Rail) {
	r.settlementsStarted.WithLabelValues(string(rail)).Inc()
	r.inFlight.WithLabelValues(string(rail)).Inc()
}

func (r *Recorder) SettlementFinished(rail purchase.Rail, outcome string, took time.Duration) {
	r.settlementsFinished.WithLabelValues(string(rail), outcome).Inc()
	r.settlementDuration.WithLabelValues(string(rail)).Observe(took.Seconds())
	r.inFlight.WithLabelValues(string(rail)).Dec()
}

func (r *Recorder) StaleCompletionDiscarded(rail purchase.Rail) {
	r.staleCompletions.WithLabelValues(string(rail)).Inc()
	r.inFlight.WithLabelValues(string(rail)).Dec()
}

func (r *Recorder) WalletConnect(ok bool) {
	r.walletOps.WithLabelValues("connect", status(ok)).Inc()
}

func (r *Recorder) WalletNetworkSwitch(ok bool) {
	r.walletOps.WithLabelValues("switch_network", status(ok)).Inc()
}

// TicketEvent counts one consumed lifecycle event.
func (r *Recorder) TicketEvent(eventType string, ok bool) {
	r.ticketEvents.WithLabelValues(eventType, status(ok)).Inc()
}

// HTTPRequest records one served request. route is the matched pattern, not
// the raw path.
func (r *Recorder) HTTPRequest(method, route string, code int, took time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
