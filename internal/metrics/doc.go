// Package metrics provides per-command metrics collection and reporting.
//
// Metrics collects statistics about command latency, success/failure rates,
// verification mismatches, and throughput (RPS), both in total and broken
// down by command name. It is thread-safe.
//
// # Basic Usage
//
//	m := metrics.New()
//
//	start := time.Now()
//	_, err := st.LPush(ctx, "lfoo", v)
//	m.Record("lpush", time.Since(start), err)
//
//	fmt.Printf("Total: %d, P99: %v\n", m.TotalRequests(), m.P99Latency())
//	fmt.Printf("lpush avg: %v\n", m.Command("lpush").AverageLatency)
//
// # Prometheus
//
// Pass a Registerer to also export counters and a latency histogram:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewWithConfig(metrics.Config{Registerer: reg})
//
// # Thread Safety
//
// Totals use atomic counters; per-command state is guarded by a RWMutex.
package metrics
