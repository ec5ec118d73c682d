package store

import (
	"context"
	"fmt"
	"time"
)

// Store はワークロードが発行するコマンドを定義するインターフェース
type Store interface {
	// LPush は値を順にリストの先頭へ追加し、追加後の長さを返す
	LPush(ctx context.Context, key string, values ...string) (int64, error)
	// LRange は start から stop（両端含む）の要素を返す。負の添字は末尾から数える
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// Set はキーに値を設定する
	Set(ctx context.Context, key, value string) error
	// MGet はキーの順序どおりに値を返す
	MGet(ctx context.Context, keys ...string) ([]Value, error)
	// Del はキーを削除し、削除できた数を返す
	Del(ctx context.Context, keys ...string) (int64, error)
	Close() error
}

// Pinger は疎通確認ができるストア
type Pinger interface {
	Ping(ctx context.Context) error
}

// Value はMGETの一要素。キーが存在しない場合 OK は false
type Value struct {
	Data string
	OK   bool
}

// Backend はストアの実装種別
type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options はストア接続の設定
type Options struct {
	Backend      Backend
	Addr         string
	URL          string // redis:// URL。指定時は Addr/DB/Password より優先
	DB           int
	Password     string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int  // 接続数（0で1）
	Ping         bool // 接続直後にPINGする
}

// DefaultOptions はデフォルト設定を返す
func DefaultOptions() Options {
	return Options{
		Backend:      BackendRedis,
		Addr:         "localhost:22121",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     1,
	}
}

// Open は設定に従ってストアを開く
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		st  Store
		err error
	)

	switch opts.Backend {
	case BackendRedis, "":
		st, err = NewRedis(opts)
	case BackendMemory:
		st = NewMemory()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if opts.Ping {
		if p, ok := st.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
	}

	return st, nil
}
