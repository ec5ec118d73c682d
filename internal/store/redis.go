package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Ensure Redis implements Store
var _ Store = (*Redis)(nil)
var _ Pinger = (*Redis)(nil)

// Redis は go-redis を使ったストア
type Redis struct {
	client *redis.Client
	addr   string
}

// NewRedis は Redis プロトコルのエンドポイントへのクライアントを作成する
// 接続は最初のコマンドで確立される
func NewRedis(opts Options) (*Redis, error) {
	ro, err := redisOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Redis{
		client: redis.NewClient(ro),
		addr:   ro.Addr,
	}, nil
}

func redisOptions(opts Options) (*redis.Options, error) {
	var ro *redis.Options

	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		ro = parsed
	} else {
		if opts.Addr == "" {
			return nil, errors.New("store: address is required")
		}
		ro = &redis.Options{
			Addr:     opts.Addr,
			DB:       opts.DB,
			Password: opts.Password,
		}
	}

	if opts.DialTimeout > 0 {
		ro.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		ro.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		ro.WriteTimeout = opts.WriteTimeout
	}

	ro.PoolSize = opts.PoolSize
	if ro.PoolSize <= 0 {
		ro.PoolSize = 1
	}

	// twemproxy は HELLO と CLIENT SETINFO を通さない
	ro.Protocol = 2
	ro.DisableIdentity = true
	// 失敗時は再試行しない
	ro.MaxRetries = -1

	return ro, nil
}

// Addr は接続先アドレスを返す
func (r *Redis) Addr() string {
	return r.addr
}

// Ping は疎通確認を行う
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping %s: %w", r.addr, err)
	}
	return nil
}

// LPush は値を順にリストの先頭へ追加する
func (r *Redis) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	n, err := r.client.LPush(ctx, key, args...).Result()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// LRange はリストの範囲を返す
func (r *Redis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, wrapErr(err)
	}
	return values, nil
}

// Set はキーに値を設定する
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// MGet はキーの値を返す
func (r *Redis) MGet(ctx context.Context, keys ...string) ([]Value, error) {
	raw, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapErr(err)
	}

	out := make([]Value, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			out[i] = Value{Data: s, OK: true}
		}
	}
	return out, nil
}

// Del はキーを削除する
func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// Close は接続を閉じる
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return nil
		}
		return err
	}
	return nil
}

// wrapErr は go-redis のエラーをストアのエラーに変換する
func wrapErr(err error) error {
	switch {
	case errors.Is(err, redis.ErrClosed):
		return ErrClosed
	case isWrongType(err):
		return ErrWrongType
	default:
		return err
	}
}

func isWrongType(err error) bool {
	var re redis.Error
	if errors.As(err, &re) {
		return strings.HasPrefix(re.Error(), "WRONGTYPE")
	}
	return false
}
