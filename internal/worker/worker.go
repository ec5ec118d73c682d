package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"redis-check/internal/logger"
)

// Job はワーカーが実行するジョブを表す。i は 0 始まりの通し番号
type Job func(ctx context.Context, i int) error

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers int // ワーカー数（0でCPU数）
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers: 0, // CPU数
	}
}

// Pool は同時実行数を制限してジョブを実行する
type Pool struct {
	numWorkers int
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{numWorkers: numWorkers}
}

// Run は n 個のジョブを最大 NumWorkers 並列で実行し、全て終わるまで待つ
// 最初のエラーで残りのジョブの投入を止め、そのエラーを返す
func (p *Pool) Run(ctx context.Context, n int, job Job) error {
	if n <= 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.numWorkers)

	logger.Debug("worker", "running %d jobs on %d workers", n, p.numWorkers)

	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}
