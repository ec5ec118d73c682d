package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// collector は Prometheus に公開するメトリクス
type collector struct {
	commands   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	mismatches *prometheus.CounterVec
}

func newCollector(reg prometheus.Registerer) *collector {
	factory := promauto.With(reg)
	return &collector{
		commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redis_check_commands_total",
				Help: "Total number of store commands issued",
			},
			[]string{"command", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redis_check_command_duration_seconds",
				Help:    "Round-trip duration of store commands in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
			},
			[]string{"command"},
		),
		mismatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redis_check_mismatches_total",
				Help: "Total number of replies that did not match what the run wrote",
			},
			[]string{"command"},
		),
	}
}

func (c *collector) observe(command, result string, latency time.Duration) {
	c.commands.WithLabelValues(command, result).Inc()
	c.duration.WithLabelValues(command).Observe(latency.Seconds())
}

func (c *collector) mismatch(command string, n int) {
	c.mismatches.WithLabelValues(command).Add(float64(n))
}
