package workload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"redis-check/internal/events"
	"redis-check/internal/logger"
	"redis-check/internal/metrics"
	"redis-check/internal/store"
	"redis-check/internal/worker"
)

// フェーズごとにログへ出す不一致の上限
const maxLoggedMismatches = 5

// Status は実行中のエンジンの状態
type Status struct {
	Running    bool   `json:"running"`
	Scenario   string `json:"scenario"`
	Phase      string `json:"phase,omitempty"`
	PhaseIndex int    `json:"phase_index"`
	PhaseCount int    `json:"phase_count"`
	Calls      int64  `json:"calls"`
	TotalCalls int    `json:"total_calls"`
}

// Engine はシナリオ実行エンジン
type Engine struct {
	config  Config
	store   store.Store
	out     io.Writer
	metrics *metrics.Metrics
	bus     events.Publisher
	target  string

	mu         sync.RWMutex
	running    bool
	phase      string
	phaseIndex int
	calls      atomic.Int64
}

// New は新しいEngineを作成する
func New(config Config, st store.Store) *Engine {
	return &Engine{
		config:  config,
		store:   st,
		out:     os.Stdout,
		metrics: metrics.New(),
	}
}

// SetOutput はコマンド結果の出力先を設定する
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

// SetMetrics はメトリクスの記録先を設定する
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus events.Publisher) {
	e.bus = bus
}

// SetTarget はレポートに表示する接続先を設定する
func (e *Engine) SetTarget(target string) {
	e.target = target
}

// Config はシナリオ設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// Metrics はメトリクスを返す
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// Run はシナリオを実行する
// コマンドが失敗した時点で中断し、途中までの結果と *CommandError を返す
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	e.running = true
	e.phase = ""
	e.phaseIndex = 0
	e.calls.Store(0)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.phase = ""
		e.mu.Unlock()
	}()

	logger.Info("workload", "=== Scenario '%s' started ===", e.config.Name)
	logger.Info("workload", "Description: %s", e.config.Description)

	result := &Result{
		ScenarioName: e.config.Name,
		Target:       e.target,
		StartTime:    time.Now(),
		Verified:     e.config.Verify,
	}
	e.publish(events.NewRunStartedEvent(e.config.Name, len(e.config.Phases)))

	pr := newPrinter(e.out, e.config.Print != PrintNone)
	var tr *tracker
	if e.config.Verify {
		tr = newTracker()
	}

	var runErr error
	for i, ph := range e.config.Phases {
		phaseResult, err := e.runPhase(ctx, i, ph, pr, tr)
		result.Phases = append(result.Phases, phaseResult)
		if err != nil {
			runErr = err
			break
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	e.collectResults(result)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			var ce *CommandError
			if !errors.As(runErr, &ce) {
				runErr = fmt.Errorf("run interrupted: %w", runErr)
			}
		}
		result.Error = runErr.Error()
		logger.Error("workload", "=== Scenario '%s' aborted: %v ===", e.config.Name, runErr)
	} else {
		logger.Info("workload", "=== Scenario '%s' completed ===", e.config.Name)
	}

	e.publish(events.NewRunCompletedEvent(e.config.Name, result.Duration, runErr))
	return result, runErr
}

// phaseRun は1フェーズ分の集計
type phaseRun struct {
	phase      Phase
	metrics    *metrics.Metrics
	calls      atomic.Int64
	mismatches atomic.Int64
	logged     atomic.Int64
}

// runPhase は1フェーズを実行する
func (e *Engine) runPhase(ctx context.Context, index int, ph Phase, pr *printer, tr *tracker) (PhaseResult, error) {
	e.mu.Lock()
	e.phase = ph.Name
	e.phaseIndex = index + 1
	e.mu.Unlock()

	run := &phaseRun{phase: ph, metrics: metrics.New()}
	cmd := string(ph.Command)

	logger.Info("workload", "Phase %d/%d '%s': %s x%d", index+1, len(e.config.Phases), ph.Name, cmd, ph.Calls())
	e.publish(events.NewPhaseStartedEvent(e.config.Name, ph.Name, cmd, index+1, len(e.config.Phases)))

	start := time.Now()
	var err error

	switch ph.Command {
	case CommandLPush:
		err = e.runLPush(ctx, run, pr, tr)
	case CommandLRange:
		err = e.runLRange(ctx, run, pr, tr)
	case CommandSet:
		err = e.runSet(ctx, run, pr, tr)
	case CommandMGet:
		if ph.Concurrent() {
			err = e.runMGetConcurrent(ctx, run, tr)
		} else {
			err = e.runMGet(ctx, run, pr, tr)
		}
	case CommandDel:
		if ph.Concurrent() {
			err = e.runDelConcurrent(ctx, run, tr)
		} else {
			err = e.runDel(ctx, run, pr, tr)
		}
	default:
		err = fmt.Errorf("unknown command: %s", ph.Command)
	}

	elapsed := time.Since(start)
	res := run.result(elapsed)

	if err == nil {
		e.publish(events.NewPhaseCompletedEvent(e.config.Name, ph.Name, cmd, int(res.Calls), elapsed))
		logger.Debug("workload", "Phase '%s' done: %d calls in %v", ph.Name, res.Calls, elapsed.Round(time.Millisecond))
	}
	return res, err
}

// do は1コマンドを実行して計測する
func (e *Engine) do(ctx context.Context, run *phaseRun, iteration int, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := string(run.phase.Command)
	start := time.Now()
	err := fn(ctx)
	latency := time.Since(start)

	e.metrics.Record(cmd, latency, err)
	run.metrics.Record(cmd, latency, err)
	run.calls.Add(1)
	e.calls.Add(1)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.publish(events.NewCommandFailedEvent(e.config.Name, run.phase.Name, cmd, iteration, err))
		return &CommandError{
			Phase:     run.phase.Name,
			Command:   run.phase.Command,
			Iteration: iteration,
			Err:       err,
		}
	}
	return nil
}

// mismatch は検証結果を記録する
func (e *Engine) mismatch(run *phaseRun, n int, detail string) {
	cmd := string(run.phase.Command)
	run.mismatches.Add(int64(n))
	e.metrics.RecordMismatch(cmd, n)

	if run.logged.Add(1) <= maxLoggedMismatches {
		logger.Warn("workload", "Phase '%s' mismatch: %s", run.phase.Name, detail)
	}
	e.publish(events.NewMismatchEvent(e.config.Name, run.phase.Name, cmd, n, detail))
}

func (e *Engine) runLPush(ctx context.Context, run *phaseRun, pr *printer, tr *tracker) error {
	ph := run.phase
	pr.begin()
	for x := ph.From; x < ph.To; x++ {
		var n int64
		err := e.do(ctx, run, x-ph.From+1, func(ctx context.Context) error {
			var err error
			n, err = e.store.LPush(ctx, ph.Key, ph.ValueFor(x))
			return err
		})
		if err != nil {
			return err
		}
		pr.count(n)
		if tr != nil {
			if bad, detail := tr.lpush(ph.Key, n); bad > 0 {
				e.mismatch(run, bad, detail)
			}
		}
	}
	return pr.end()
}

func (e *Engine) runLRange(ctx context.Context, run *phaseRun, pr *printer, tr *tracker) error {
	ph := run.phase

	read := func(iteration int, start, stop int64) ([]string, error) {
		var values []string
		err := e.do(ctx, run, iteration, func(ctx context.Context) error {
			var err error
			values, err = e.store.LRange(ctx, ph.Key, start, stop)
			return err
		})
		if err != nil {
			return nil, err
		}
		if tr != nil {
			if bad, detail := tr.lrange(ph.Key, start, stop, values); bad > 0 {
				e.mismatch(run, bad, detail)
			}
		}
		return values, nil
	}

	if !ph.Growing {
		values, err := read(1, ph.Start, ph.Stop)
		if err != nil {
			return err
		}
		return pr.single(values)
	}

	pr.begin()
	for x := ph.From; x < ph.To; x++ {
		values, err := read(x-ph.From+1, 0, int64(x))
		if err != nil {
			return err
		}
		pr.list(values)
	}
	return pr.end()
}

func (e *Engine) runSet(ctx context.Context, run *phaseRun, pr *printer, tr *tracker) error {
	ph := run.phase
	pr.begin()
	for x := ph.From; x < ph.To; x++ {
		key, value := ph.KeyFor(x), ph.ValueFor(x)
		err := e.do(ctx, run, x-ph.From+1, func(ctx context.Context) error {
			return e.store.Set(ctx, key, value)
		})
		if err != nil {
			return err
		}
		pr.ack()
		if tr != nil {
			tr.set(key, value)
		}
	}
	return pr.end()
}

func (e *Engine) runMGet(ctx context.Context, run *phaseRun, pr *printer, tr *tracker) error {
	ph := run.phase
	keys := ph.Keys()
	pr.begin()
	for i := 1; i <= ph.Repeat; i++ {
		var values []store.Value
		err := e.do(ctx, run, i, func(ctx context.Context) error {
			var err error
			values, err = e.store.MGet(ctx, keys...)
			return err
		})
		if err != nil {
			return err
		}
		pr.mget(values)
		if tr != nil {
			if bad, detail := tr.mget(keys, values); bad > 0 {
				e.mismatch(run, bad, detail)
			}
		}
	}
	return pr.end()
}

func (e *Engine) runDel(ctx context.Context, run *phaseRun, pr *printer, tr *tracker) error {
	ph := run.phase
	keys := ph.Keys()
	pr.begin()
	for i := 1; i <= ph.Repeat; i++ {
		var want int64
		var exact bool
		if tr != nil {
			want, exact = tr.live(keys)
		}

		var n int64
		err := e.do(ctx, run, i, func(ctx context.Context) error {
			var err error
			n, err = e.store.Del(ctx, keys...)
			return err
		})
		if err != nil {
			return err
		}
		pr.count(n)
		if tr != nil {
			if bad, detail := tr.del(keys, n, want, exact); bad > 0 {
				e.mismatch(run, bad, detail)
			}
		}
	}
	return pr.end()
}

// runMGetConcurrent は同一の MGET を並列に発行する。結果は出力しない
func (e *Engine) runMGetConcurrent(ctx context.Context, run *phaseRun, tr *tracker) error {
	ph := run.phase
	keys := ph.Keys()
	pool := worker.NewPool(ph.Workers)

	logger.Info("workload", "Phase '%s': %d workers, output suppressed", ph.Name, pool.NumWorkers())

	return pool.Run(ctx, ph.Repeat, func(ctx context.Context, i int) error {
		var values []store.Value
		err := e.do(ctx, run, i+1, func(ctx context.Context) error {
			var err error
			values, err = e.store.MGet(ctx, keys...)
			return err
		})
		if err != nil {
			return err
		}
		if tr != nil {
			if bad, detail := tr.mget(keys, values); bad > 0 {
				e.mismatch(run, bad, detail)
			}
		}
		return nil
	})
}

// runDelConcurrent は同一の DEL を並列に発行する
// 各応答の順序は決まらないので、検証は削除数の合計で行う
func (e *Engine) runDelConcurrent(ctx context.Context, run *phaseRun, tr *tracker) error {
	ph := run.phase
	keys := ph.Keys()
	pool := worker.NewPool(ph.Workers)

	var want int64
	var exact bool
	if tr != nil {
		want, exact = tr.live(keys)
	}

	logger.Info("workload", "Phase '%s': %d workers, output suppressed", ph.Name, pool.NumWorkers())

	var removed atomic.Int64
	err := pool.Run(ctx, ph.Repeat, func(ctx context.Context, i int) error {
		return e.do(ctx, run, i+1, func(ctx context.Context) error {
			n, err := e.store.Del(ctx, keys...)
			removed.Add(n)
			return err
		})
	})
	if err != nil {
		return err
	}

	if tr != nil {
		if bad, detail := tr.del(keys, removed.Load(), want, exact); bad > 0 {
			e.mismatch(run, bad, detail)
		}
	}
	return nil
}

// Status は現在の状態を返す
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Status{
		Running:    e.running,
		Scenario:   e.config.Name,
		Phase:      e.phase,
		PhaseIndex: e.phaseIndex,
		PhaseCount: len(e.config.Phases),
		Calls:      e.calls.Load(),
		TotalCalls: e.config.Calls(),
	}
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// collectResults は結果を収集する
func (e *Engine) collectResults(result *Result) {
	snapshot := e.metrics.Snapshot()
	result.TotalRequests = snapshot.TotalRequests
	result.SuccessRequests = snapshot.SuccessRequests
	result.FailedRequests = snapshot.FailedRequests
	result.ErrorRate = snapshot.ErrorRate
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency
	result.Mismatches = snapshot.Mismatches
}

func (r *phaseRun) result(elapsed time.Duration) PhaseResult {
	cs := r.metrics.Command(string(r.phase.Command))
	return PhaseResult{
		Name:       r.phase.Name,
		Command:    r.phase.Command,
		Calls:      r.calls.Load(),
		Failed:     cs.Failed,
		Mismatches: r.mismatches.Load(),
		Duration:   elapsed,
		AvgLatency: cs.AverageLatency,
		P99Latency: cs.P99Latency,
	}
}
