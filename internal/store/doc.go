// Package store provides the client side of the key-value store under test.
//
// Store is the narrow set of commands the workload issues: LPUSH, LRANGE,
// SET, MGET and DEL. Two backends implement it:
//
//   - Redis talks to a Redis-protocol endpoint (a twemproxy pool by default)
//     through go-redis.
//   - Memory is an in-process store with the same command semantics, used
//     for dry runs and as the store in tests.
//
// # Basic Usage
//
//	st, err := store.Open(ctx, store.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	n, err := st.LPush(ctx, "lfoo", "111")
//	values, err := st.LRange(ctx, "lfoo", 0, -1)
//
// # twemproxy
//
// twemproxy proxies a fixed command table. It does not forward HELLO,
// CLIENT SETINFO or PING, so the Redis backend speaks RESP2, disables the
// client identity handshake, and only pings when asked to.
package store
