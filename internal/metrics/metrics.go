package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultMaxLatencySamples = 1000

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int                   // コマンドごとに保持するレイテンシのサンプル数
	Registerer        prometheus.Registerer // nil なら Prometheus に公開しない
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: defaultMaxLatencySamples,
	}
}

// commandStats はコマンド単位の集計
type commandStats struct {
	total      uint64
	failed     uint64
	mismatches uint64
	latencyNs  uint64
	maxLatency time.Duration
	latencies  []time.Duration
}

// Metrics はコマンドのメトリクスを収集する
type Metrics struct {
	totalRequests   atomic.Uint64
	successRequests atomic.Uint64
	failedRequests  atomic.Uint64
	totalLatencyNs  atomic.Uint64
	mismatches      atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	lastResetTime     time.Time
	windowRequests    uint64
	commands          map[string]*commandStats
	maxLatencySamples int

	prom *collector
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	if config.MaxLatencySamples <= 0 {
		config.MaxLatencySamples = defaultMaxLatencySamples
	}

	now := time.Now()
	m := &Metrics{
		startTime:         now,
		lastResetTime:     now,
		commands:          make(map[string]*commandStats),
		maxLatencySamples: config.MaxLatencySamples,
	}
	if config.Registerer != nil {
		m.prom = newCollector(config.Registerer)
	}
	return m
}

// Record はエラーの有無に応じて成功か失敗を記録する
func (m *Metrics) Record(command string, latency time.Duration, err error) {
	if err != nil {
		m.RecordFailure(command, latency)
		return
	}
	m.RecordSuccess(command, latency)
}

// RecordSuccess は成功したコマンドを記録する
func (m *Metrics) RecordSuccess(command string, latency time.Duration) {
	m.totalRequests.Add(1)
	m.successRequests.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	m.windowRequests++
	cs := m.stats(command)
	cs.total++
	cs.latencyNs += uint64(latency.Nanoseconds())
	if latency > cs.maxLatency {
		cs.maxLatency = latency
	}
	if len(cs.latencies) < m.maxLatencySamples {
		cs.latencies = append(cs.latencies, latency)
	}
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.observe(command, resultOK, latency)
	}
}

// RecordFailure は失敗したコマンドを記録する
func (m *Metrics) RecordFailure(command string, latency time.Duration) {
	m.totalRequests.Add(1)
	m.failedRequests.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	m.windowRequests++
	cs := m.stats(command)
	cs.total++
	cs.failed++
	cs.latencyNs += uint64(latency.Nanoseconds())
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.observe(command, resultError, latency)
	}
}

// RecordMismatch は検証で見つかった不一致を記録する
func (m *Metrics) RecordMismatch(command string, n int) {
	if n <= 0 {
		return
	}
	m.mismatches.Add(uint64(n))

	m.mu.Lock()
	m.stats(command).mismatches += uint64(n)
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.mismatch(command, n)
	}
}

// stats はコマンドの集計を返す。mu を保持して呼ぶこと
func (m *Metrics) stats(command string) *commandStats {
	cs, ok := m.commands[command]
	if !ok {
		cs = &commandStats{latencies: make([]time.Duration, 0, 64)}
		m.commands[command] = cs
	}
	return cs
}

// TotalRequests は総コマンド数を返す
func (m *Metrics) TotalRequests() uint64 {
	return m.totalRequests.Load()
}

// SuccessRequests は成功コマンド数を返す
func (m *Metrics) SuccessRequests() uint64 {
	return m.successRequests.Load()
}

// FailedRequests は失敗コマンド数を返す
func (m *Metrics) FailedRequests() uint64 {
	return m.failedRequests.Load()
}

// Mismatches は検証の不一致数を返す
func (m *Metrics) Mismatches() uint64 {
	return m.mismatches.Load()
}

// RPS は現在のRequests Per Secondを返す
func (m *Metrics) RPS() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.lastResetTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.windowRequests) / elapsed
}

// OverallRPS は開始からの平均RPSを返す
func (m *Metrics) OverallRPS() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.totalRequests.Load()) / elapsed
}

// AverageLatency は平均レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// P99Latency は全コマンドを通したP99レイテンシを返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []time.Duration
	for _, cs := range m.commands {
		all = append(all, cs.latencies...)
	}
	return percentile(all, 0.99)
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (m *Metrics) ErrorRate() float64 {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return float64(m.failedRequests.Load()) / float64(total)
}

// Reset はウィンドウメトリクスをリセットする
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windowRequests = 0
	m.lastResetTime = time.Now()
	for _, cs := range m.commands {
		cs.latencies = cs.latencies[:0]
	}
}

// CommandSnapshot はコマンド単位のスナップショット
type CommandSnapshot struct {
	Total          uint64
	Failed         uint64
	Mismatches     uint64
	AverageLatency time.Duration
	P99Latency     time.Duration
	MaxLatency     time.Duration
}

// Command はコマンド単位のスナップショットを返す
func (m *Metrics) Command(command string) CommandSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cs, ok := m.commands[command]
	if !ok {
		return CommandSnapshot{}
	}
	return cs.snapshot()
}

func (cs *commandStats) snapshot() CommandSnapshot {
	snap := CommandSnapshot{
		Total:      cs.total,
		Failed:     cs.failed,
		Mismatches: cs.mismatches,
		P99Latency: percentile(cs.latencies, 0.99),
		MaxLatency: cs.maxLatency,
	}
	if cs.total > 0 {
		snap.AverageLatency = time.Duration(cs.latencyNs / cs.total)
	}
	return snap
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalRequests   uint64
	SuccessRequests uint64
	FailedRequests  uint64
	Mismatches      uint64
	RPS             float64
	OverallRPS      float64
	AverageLatency  time.Duration
	P99Latency      time.Duration
	ErrorRate       float64
	Elapsed         time.Duration
	Commands        map[string]CommandSnapshot
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		TotalRequests:   m.TotalRequests(),
		SuccessRequests: m.SuccessRequests(),
		FailedRequests:  m.FailedRequests(),
		Mismatches:      m.Mismatches(),
		RPS:             m.RPS(),
		OverallRPS:      m.OverallRPS(),
		AverageLatency:  m.AverageLatency(),
		P99Latency:      m.P99Latency(),
		ErrorRate:       m.ErrorRate(),
		Elapsed:         time.Since(m.startTime),
	}

	m.mu.RLock()
	snap.Commands = make(map[string]CommandSnapshot, len(m.commands))
	for name, cs := range m.commands {
		snap.Commands[name] = cs.snapshot()
	}
	m.mu.RUnlock()

	return snap
}

// percentile はサンプルの p 分位点を返す
func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
