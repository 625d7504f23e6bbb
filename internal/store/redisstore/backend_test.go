package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/redisstore"
)

func TestBackendPersistsBucketsInHash(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	backend := redisstore.New(client, "test")
	require.NoError(t, backend.Save(ctx, map[string][]byte{"tags": []byte(`[{"id":1,"name":"urgent"}]`)}))

	require.True(t, mr.Exists("test:state"))
	require.JSONEq(t, `[{"id":1,"name":"urgent"}]`, mr.HGet("test:state", "tags"))

	buckets, err := backend.Load(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1,"name":"urgent"}]`, string(buckets["tags"]))
}

func TestStoreOnRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	backend, err := redisstore.Open(ctx, mr.Addr(), "")
	require.NoError(t, err)
	st, err := store.Open(ctx, backend)
	require.NoError(t, err)

	rec, err := store.Encode(map[string]any{"name": "Acme"})
	require.NoError(t, err)
	_, err = st.Add(ctx, store.Clients, rec)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	backend, err = redisstore.Open(ctx, mr.Addr(), "")
	require.NoError(t, err)
	st, err = store.Open(ctx, backend)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	clients, err := st.GetAll(ctx, store.Clients)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Equal(t, "Acme", clients[0].String("name"))

	id, err := st.Add(ctx, store.Clients, rec)
	require.NoError(t, err)
	require.Equal(t, int64(2), id)
}
