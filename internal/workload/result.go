package workload

import (
	"fmt"
	"strings"
	"time"
)

// PhaseResult はフェーズごとの実行結果
type PhaseResult struct {
	Name       string        `json:"name"`
	Command    Command       `json:"command"`
	Calls      int64         `json:"calls"`
	Failed     uint64        `json:"failed"`
	Mismatches int64         `json:"mismatches"`
	Duration   time.Duration `json:"duration"`
	AvgLatency time.Duration `json:"avg_latency"`
	P99Latency time.Duration `json:"p99_latency"`
}

// Result はシナリオ実行結果
type Result struct {
	ScenarioName string
	Target       string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration

	// フェーズ
	Phases []PhaseResult

	// メトリクス
	TotalRequests   uint64
	SuccessRequests uint64
	FailedRequests  uint64
	ErrorRate       float64
	AvgLatency      time.Duration
	P99Latency      time.Duration

	// 検証
	Verified   bool
	Mismatches uint64

	// 中断した場合のエラー
	Error string
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	target := r.Target
	if target == "" {
		target = "-"
	}
	status := "completed"
	if r.Error != "" {
		status = "aborted: " + r.Error
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
================================================================================
                         SCENARIO REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Target:         %s
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Status:         %s

TRAFFIC METRICS
---------------
  Total Requests:   %d
  Success:          %d
  Failed:           %d
  Error Rate:       %.2f%%
  Avg Latency:      %v
  P99 Latency:      %v
`,
		r.ScenarioName,
		target,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		status,
		r.TotalRequests,
		r.SuccessRequests,
		r.FailedRequests,
		r.ErrorRate*100,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
	)

	if r.Verified {
		fmt.Fprintf(&b, `
VERIFICATION
------------
  Mismatches:       %d
`, r.Mismatches)
	}

	b.WriteString(`
PHASES
------
`)
	fmt.Fprintf(&b, "  %-16s %-7s %8s %7s %10s %12s %12s\n",
		"NAME", "COMMAND", "CALLS", "FAILED", "DURATION", "AVG", "P99")
	for _, p := range r.Phases {
		fmt.Fprintf(&b, "  %-16s %-7s %8d %7d %10v %12v %12v\n",
			p.Name,
			p.Command,
			p.Calls,
			p.Failed,
			p.Duration.Round(time.Millisecond),
			p.AvgLatency.Round(time.Microsecond),
			p.P99Latency.Round(time.Microsecond),
		)
	}

	b.WriteString("\n================================================================================")
	return b.String()
}
