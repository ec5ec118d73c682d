package store

import (
	"context"
	"sync"
	"time"
)

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
var _ Pinger = (*Memory)(nil)

// Memory はインメモリのストア
// 文字列とリストを別々のマップで持ち、同じキーは一方にしか存在しない
type Memory struct {
	mu      sync.RWMutex
	strings map[string]string
	lists   map[string][]string // 末尾が LRANGE の index 0
	closed  bool
	delay   time.Duration
}

// NewMemory は空のインメモリストアを作成する
func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
	}
}

// SetDelay はコマンドごとの応答遅延を設定する
func (m *Memory) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// begin は遅延とクローズ状態、コンテキストを確認する
func (m *Memory) begin(ctx context.Context) error {
	m.mu.RLock()
	d, closed := m.delay, m.closed
	m.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return ctx.Err()
}

// Ping は疎通確認を行う
func (m *Memory) Ping(ctx context.Context) error {
	return m.begin(ctx)
}

// LPush は値を順にリストの先頭へ追加する
func (m *Memory) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	if err := m.begin(ctx); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.strings[key]; ok {
		return 0, ErrWrongType
	}

	list := append(m.lists[key], values...)
	m.lists[key] = list

	return int64(len(list)), nil
}

// LRange はリストの範囲を返す
func (m *Memory) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if err := m.begin(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.strings[key]; ok {
		return nil, ErrWrongType
	}

	list := m.lists[key]
	lo, hi, ok := clampRange(int64(len(list)), start, stop)
	if !ok {
		return []string{}, nil
	}

	last := int64(len(list)) - 1
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, list[last-i])
	}
	return out, nil
}

// Set はキーに値を設定する。リストが存在すれば置き換える
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := m.begin(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.lists, key)
	m.strings[key] = value
	return nil
}

// MGet はキーの値を返す。リストのキーは存在しない扱い
func (m *Memory) MGet(ctx context.Context, keys ...string) ([]Value, error) {
	if err := m.begin(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Value, len(keys))
	for i, k := range keys {
		if v, ok := m.strings[k]; ok {
			out[i] = Value{Data: v, OK: true}
		}
	}
	return out, nil
}

// Del はキーを削除し、削除できた数を返す
func (m *Memory) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := m.begin(ctx); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := m.strings[k]; ok {
			delete(m.strings, k)
			n++
		} else if _, ok := m.lists[k]; ok {
			delete(m.lists, k)
			n++
		}
	}
	return n, nil
}

// Len はキーの総数を返す
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.strings) + len(m.lists)
}

// Close はストアを閉じる。以降のコマンドは ErrClosed を返す
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// clampRange はRedisのLRANGEと同じ規則で添字を正規化する
func clampRange(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if start >= n || start > stop {
		return 0, 0, false
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop, true
}

// RangeLen は長さ n のリストに対する LRANGE start stop の要素数を返す
func RangeLen(n, start, stop int64) int64 {
	lo, hi, ok := clampRange(n, start, stop)
	if !ok {
		return 0
	}
	return hi - lo + 1
}
