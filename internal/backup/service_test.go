package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/blob"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
)

func newTestService(t *testing.T, retention int) (*Service, *store.Store, *blob.Memory) {
	t.Helper()
	st, err := store.Open(context.Background(), memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)
	blobs := blob.NewMemory()
	svc := NewService(st, blobs, nil, retention)
	svc.now = func() time.Time { return time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC) }
	seq := 0
	svc.newKey = func(ts time.Time) (string, error) {
		seq++
		return fmt.Sprintf("%s%s/%04d.json", KeyPrefix, ts.Format("2006/01/02"), seq), nil
	}
	return svc, st, blobs
}

func addClient(t *testing.T, st *store.Store, name string) int64 {
	t.Helper()
	rec, err := store.Encode(model.Client{Name: name})
	require.NoError(t, err)
	id, err := st.Add(context.Background(), store.Clients, rec)
	require.NoError(t, err)
	return id
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, 0)
	id := addClient(t, st, "Atlas Print")

	env, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, env.Version)
	assert.Equal(t, AppName, env.AppName)

	payload, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, st.ClearAll(ctx))
	count, err := st.Count(ctx, store.Clients)
	require.NoError(t, err)
	require.Zero(t, count)

	parsed, err := Parse(strings.NewReader(string(payload)))
	require.NoError(t, err)
	require.NoError(t, svc.Import(ctx, parsed))

	rec, err := st.Get(ctx, store.Clients, id)
	require.NoError(t, err)
	assert.Equal(t, "Atlas Print", rec.String("name"))

	next := addClient(t, st, "Nova")
	assert.Greater(t, next, id)
}

func TestParseRejectsIncompleteFiles(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"version":`,
		"missing version": `{"data":{"clients":[]}}`,
		"missing data":    `{"version":"1.0"}`,
		"null data":       `{"version":"1.0","data":null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(body))
			require.ErrorIs(t, err, ErrInvalidBackup)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestImportKeepsCollectionsAbsentFromFile(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, 0)
	addClient(t, st, "Kept")

	env, err := Parse(strings.NewReader(`{"version":"1.0","data":{"tasks":[{"id":4,"title":"Call supplier"}]}}`))
	require.NoError(t, err)
	require.NoError(t, svc.Import(ctx, env))

	clients, err := st.Count(ctx, store.Clients)
	require.NoError(t, err)
	assert.Equal(t, 1, clients)
	task, err := st.Get(ctx, store.Tasks, 4)
	require.NoError(t, err)
	assert.Equal(t, "Call supplier", task.String("title"))
}

func TestClearSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, 0)
	addClient(t, st, "Gone")

	require.NoError(t, svc.Clear(ctx))

	clients, err := st.Count(ctx, store.Clients)
	require.NoError(t, err)
	assert.Zero(t, clients)
	services, err := st.Count(ctx, store.Services)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultServices), services)
	raw, found, err := st.GetSetting(ctx, CurrencyKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `"USD"`, string(raw))

	require.NoError(t, svc.SeedDefaults(ctx))
	services, err = st.Count(ctx, store.Services)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultServices), services)
}

func TestStoredBackupsPruneAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, st, blobs := newTestService(t, 2)
	id := addClient(t, st, "First")

	var keys []string
	for i := 0; i < 3; i++ {
		info, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(info.Key, "backups/2025/03/09/"))
		keys = append(keys, info.Key)
	}

	infos, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, keys[2], infos[0].Key)
	assert.Equal(t, keys[1], infos[1].Key)
	_, _, err = blobs.Get(ctx, keys[0])
	assert.ErrorIs(t, err, blob.ErrNotFound)

	_, err = st.Delete(ctx, store.Clients, id)
	require.NoError(t, err)
	require.NoError(t, svc.Restore(ctx, infos[0].Key))
	rec, err := st.Get(ctx, store.Clients, id)
	require.NoError(t, err)
	assert.Equal(t, "First", rec.String("name"))

	assert.ErrorIs(t, svc.Restore(ctx, "backups/missing.json"), store.ErrNotFound)
	assert.ErrorIs(t, svc.Restore(ctx, "elsewhere/file.json"), ErrInvalidBackup)
}

func TestHandlerImportAndExport(t *testing.T) {
	svc, st, _ := newTestService(t, 0)
	addClient(t, st, "Atlas")
	h := NewHandler(svc.logger, svc)
	r := chi.NewRouter()
	r.Route("/api/backup", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/backup/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "backup_printshop_2025-03-09.json")
	assert.Contains(t, rec.Body.String(), `"Atlas"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/backup/import", strings.NewReader(`{"data":{}}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/backup/import", strings.NewReader(`{"version":"1.0","data":{"clients":[]}}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	count, err := st.Count(context.Background(), store.Clients)
	require.NoError(t, err)
	assert.Zero(t, count)
}
