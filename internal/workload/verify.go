package workload

import (
	"fmt"
	"sync"

	"redis-check/internal/store"
)

// tracker は実行中に自分が書き込んだ内容を覚え、応答と照合する
// 実行前から存在したデータは分からないので、分かる範囲だけを検証する
type tracker struct {
	mu      sync.Mutex
	listLen map[string]int64  // LPUSH の応答で判明したリスト長
	values  map[string]string // この実行で SET した値
	deleted map[string]bool   // この実行で DEL したキー
}

func newTracker() *tracker {
	return &tracker{
		listLen: make(map[string]int64),
		values:  make(map[string]string),
		deleted: make(map[string]bool),
	}
}

// lpush は1要素の LPUSH 後の長さを検証する
func (t *tracker) lpush(key string, got int64) (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, known := t.listLen[key]
	t.listLen[key] = got
	if known && got != prev+1 {
		return 1, fmt.Sprintf("LPUSH %s returned length %d, want %d", key, got, prev+1)
	}
	return 0, ""
}

// lrange は LRANGE の要素数を検証する
func (t *tracker) lrange(key string, start, stop int64, got []string) (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, known := t.listLen[key]
	if !known {
		return 0, ""
	}
	if want := store.RangeLen(n, start, stop); int64(len(got)) != want {
		return 1, fmt.Sprintf("LRANGE %s %d %d returned %d items, want %d", key, start, stop, len(got), want)
	}
	return 0, ""
}

func (t *tracker) set(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values[key] = value
	delete(t.deleted, key)
}

// mget は MGET の応答をキー順に検証する
func (t *tracker) mget(keys []string, got []store.Value) (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(got) != len(keys) {
		return 1, fmt.Sprintf("MGET returned %d values for %d keys", len(got), len(keys))
	}

	bad, first := 0, ""
	for i, key := range keys {
		var msg string
		if want, ok := t.values[key]; ok {
			if !got[i].OK {
				msg = fmt.Sprintf("MGET %s: missing, want %d bytes", key, len(want))
			} else if got[i].Data != want {
				msg = fmt.Sprintf("MGET %s: got %d bytes, want %d bytes", key, len(got[i].Data), len(want))
			}
		} else if t.deleted[key] && got[i].OK {
			msg = fmt.Sprintf("MGET %s: present after DEL", key)
		}
		if msg != "" {
			if bad == 0 {
				first = msg
			}
			bad++
		}
	}
	return bad, first
}

// live は keys のうちこの実行で SET されてまだ DEL していない数を返す
// 全てのキーの状態が分かっている場合 exact は true
func (t *tracker) live(keys []string) (n int64, exact bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	exact = true
	for _, key := range keys {
		switch {
		case t.deleted[key]:
		case t.hasValue(key):
			n++
		default:
			exact = false
		}
	}
	return n, exact
}

func (t *tracker) hasValue(key string) bool {
	_, ok := t.values[key]
	return ok
}

// del は DEL の削除数を検証し、キーを削除済みにする
// want は DEL 前の live の結果
func (t *tracker) del(keys []string, got, want int64, exact bool) (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, key := range keys {
		delete(t.values, key)
		t.deleted[key] = true
	}

	if got == want || (!exact && got > want) {
		return 0, ""
	}
	return 1, fmt.Sprintf("DEL of %d keys removed %d, want %d", len(keys), got, want)
}
