package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		cyclesTotal,
		cycleDurationSeconds,
		postsForwardedTotal,
		fetchErrorsTotal,
		rateLimitCooldownsTotal,
		monitoredAccounts,
	)
}

var (
	cyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_cycles_total",
			Help: "Total number of completed poll cycles.",
		},
	)

	cycleDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_cycle_duration_seconds",
			Help:    "Time spent in one pass over all accounts, excluding the inter-cycle sleep.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 300, 1200},
		},
	)

	postsForwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_posts_forwarded_total",
			Help: "Posts delivered to at least one destination, per monitored account.",
		},
		[]string{"account"},
	)

	fetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_fetch_errors_total",
			Help: "Timeline fetch failures by kind.",
		},
		[]string{"kind"}, // 'rate_limited', 'other'
	)

	rateLimitCooldownsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_cooldowns_total",
			Help: "Number of global cool-downs entered after a rate-limit response.",
		},
	)

	monitoredAccounts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_monitored_accounts",
			Help: "Configured accounts by resolution state.",
		},
		[]string{"state"}, // 'resolved', 'skipped'
	)
)

func ObserveCycle(d time.Duration) {
	cyclesTotal.Inc()
	cycleDurationSeconds.Observe(d.Seconds())
}

func IncPostForwarded(account string) {
	postsForwardedTotal.WithLabelValues(norm(account)).Inc()
}

func IncFetchError(kind string) {
	fetchErrorsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncRateLimitCooldown() {
	rateLimitCooldownsTotal.Inc()
}

func SetMonitoredAccounts(resolved, skipped int) {
	monitoredAccounts.WithLabelValues("resolved").Set(float64(resolved))
	monitoredAccounts.WithLabelValues("skipped").Set(float64(skipped))
}
