package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/sqlite"
)

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "printdesk.db")

	backend, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, backend.Save(ctx, map[string][]byte{"orders": []byte(`[]`), "clients": []byte(`[{"id":1}]`)}))
	require.NoError(t, backend.Save(ctx, map[string][]byte{"clients": []byte(`[{"id":2}]`)}))
	require.NoError(t, backend.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	buckets, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":2}]`, string(buckets["clients"]))
	require.JSONEq(t, `[]`, string(buckets["orders"]))
}

func TestStoreOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "printdesk.db")

	backend, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	st, err := store.Open(ctx, backend)
	require.NoError(t, err)

	rec, err := store.Encode(map[string]any{"name": "Paper", "quantity": 100})
	require.NoError(t, err)
	id, err := st.Add(ctx, store.Materials, rec)
	require.NoError(t, err)
	require.NoError(t, st.SaveSetting(ctx, "shopName", "Acme"))
	require.NoError(t, st.Close())

	backend, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	st, err = store.Open(ctx, backend)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	got, err := st.Get(ctx, store.Materials, id)
	require.NoError(t, err)
	require.Equal(t, "Paper", got.String("name"))

	var name string
	found, err := st.GetSettingInto(ctx, "shopName", &name)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Acme", name)
}
