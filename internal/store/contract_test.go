package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runContract は両バックエンド共通の振る舞いを検証する
func runContract(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("push then full range is reverse push order", func(t *testing.T) {
		st := open(t)
		const n = 50
		for x := 1; x <= n; x++ {
			length, err := st.LPush(ctx, "lfoo", strconv.Itoa(x))
			require.NoError(t, err)
			assert.Equal(t, int64(x), length)
		}

		values, err := st.LRange(ctx, "lfoo", 0, -1)
		require.NoError(t, err)
		require.Len(t, values, n)
		for i, v := range values {
			assert.Equal(t, strconv.Itoa(n-i), v)
		}
	})

	t.Run("range 0..x returns min(x+1, len)", func(t *testing.T) {
		st := open(t)
		for x := 1; x <= 10; x++ {
			_, err := st.LPush(ctx, "lfoo", strconv.Itoa(x))
			require.NoError(t, err)
		}
		for x := int64(0); x < 20; x++ {
			values, err := st.LRange(ctx, "lfoo", 0, x)
			require.NoError(t, err)
			assert.Len(t, values, int(min(x+1, 10)), "x=%d", x)
		}
	})

	t.Run("negative indices count from the end", func(t *testing.T) {
		st := open(t)
		_, err := st.LPush(ctx, "lfoo", "a", "b", "c", "d")
		require.NoError(t, err)

		values, err := st.LRange(ctx, "lfoo", -2, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, values)

		values, err = st.LRange(ctx, "lfoo", 0, -100)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("multi-value push prepends each value in order", func(t *testing.T) {
		st := open(t)
		n, err := st.LPush(ctx, "lfoo", "a", "b", "c")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		values, err := st.LRange(ctx, "lfoo", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, values)
	})

	t.Run("range on missing key is empty", func(t *testing.T) {
		st := open(t)
		values, err := st.LRange(ctx, "missing", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("mget follows key order and reports absent keys", func(t *testing.T) {
		st := open(t)
		require.NoError(t, st.Set(ctx, "foo1", "111"))
		require.NoError(t, st.Set(ctx, "foo2", "222"))

		values, err := st.MGet(ctx, "foo2", "nope", "foo1")
		require.NoError(t, err)
		assert.Equal(t, []Value{
			{Data: "222", OK: true},
			{},
			{Data: "111", OK: true},
		}, values)
	})

	t.Run("second delete removes nothing", func(t *testing.T) {
		st := open(t)
		keys := make([]string, 0, 9)
		for x := 1; x < 10; x++ {
			key := fmt.Sprintf("foo%d", x)
			keys = append(keys, key)
			require.NoError(t, st.Set(ctx, key, strings.Repeat(strconv.Itoa(x), 100)))
		}

		n, err := st.Del(ctx, keys...)
		require.NoError(t, err)
		assert.Equal(t, int64(9), n)

		for range 3 {
			n, err = st.Del(ctx, keys...)
			require.NoError(t, err)
			assert.Zero(t, n)
		}
	})

	t.Run("set block is idempotent", func(t *testing.T) {
		st := open(t)
		for range 2 {
			for x := 1; x < 5; x++ {
				require.NoError(t, st.Set(ctx, fmt.Sprintf("foo%d", x), strings.Repeat(strconv.Itoa(x), 3)))
			}
		}
		values, err := st.MGet(ctx, "foo1", "foo2", "foo3", "foo4")
		require.NoError(t, err)
		for i, v := range values {
			assert.Equal(t, strings.Repeat(strconv.Itoa(i+1), 3), v.Data)
		}
	})

	t.Run("push block twice doubles the list", func(t *testing.T) {
		st := open(t)
		var last int64
		for range 2 {
			for x := 1; x < 8; x++ {
				n, err := st.LPush(ctx, "lfoo", strconv.Itoa(x))
				require.NoError(t, err)
				last = n
			}
		}
		assert.Equal(t, int64(14), last)
	})

	t.Run("list command on string key is a type error", func(t *testing.T) {
		st := open(t)
		require.NoError(t, st.Set(ctx, "foo1", "1"))
		_, err := st.LPush(ctx, "foo1", "x")
		assert.ErrorIs(t, err, ErrWrongType)
	})

	t.Run("commands after close fail", func(t *testing.T) {
		st := open(t)
		require.NoError(t, st.Close())
		_, err := st.LPush(ctx, "lfoo", "x")
		assert.ErrorIs(t, err, ErrClosed)
	})
}
