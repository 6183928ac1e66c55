package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo, startTime)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)

	startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_monitoring_window_start_seconds",
			Help: "Unix time from which posts are considered; captured once at startup.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

func SetWindowStart(unix int64) {
	startTime.Set(float64(unix))
}
