package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(deliveriesTotal, sendThrottledTotal)
}

var (
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Telegram send attempts per destination outcome.",
		},
		[]string{"status"}, // 'ok', 'failed'
	)

	sendThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_send_throttled_total",
			Help: "Times a Telegram send waited for the per-chat window to reopen.",
		},
	)
)

func IncDelivery(status string) {
	deliveriesTotal.WithLabelValues(norm(status)).Inc()
}

func IncSendThrottled() {
	sendThrottledTotal.Inc()
}
