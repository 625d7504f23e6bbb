package catalog_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/catalog"
	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	st, err := store.Open(context.Background(), memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)
	return catalog.NewService(st)
}

func rec(t *testing.T, v any) store.Record {
	t.Helper()
	r, err := store.Encode(v)
	require.NoError(t, err)
	return r
}

func TestCRUDRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.Create(ctx, store.Clients, rec(t, map[string]any{"name": "Delta Studio", "phone": "555-0101"}))
	require.NoError(t, err)
	id := created.ID()
	assert.Equal(t, `"individual"`, string(created["type"]))

	updated, err := svc.Update(ctx, store.Clients, id, rec(t, map[string]any{"phone": "555-0199"}))
	require.NoError(t, err)
	assert.Equal(t, "Delta Studio", updated.String("name"))
	assert.Equal(t, "555-0199", updated.String("phone"))

	_, err = svc.Update(ctx, store.Clients, id+10, rec(t, map[string]any{"phone": "x"}))
	require.ErrorIs(t, err, store.ErrNotFound)

	ok, err := svc.Delete(ctx, store.Clients, id)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = svc.Get(ctx, store.Clients, id)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRejectsSideEffectCollections(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	for _, c := range []store.Collection{store.Orders, store.Purchases, store.Settings} {
		_, err := svc.Create(ctx, c, store.Record{})
		require.ErrorIs(t, err, store.ErrUnknownCollection, c)
	}
}

func TestListSearchFolds(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	for _, name := range []string{"Élan Druck", "Copy Corner"} {
		_, err := svc.Create(ctx, store.Suppliers, rec(t, map[string]any{"name": name}))
		require.NoError(t, err)
	}
	found, err := svc.List(ctx, store.Suppliers, "ÉLAN")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Élan Druck", found[0].String("name"))

	all, err := svc.List(ctx, store.Suppliers, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestToggleTask(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	created, err := svc.Create(ctx, store.Tasks, rec(t, model.Task{Title: "Order toner"}))
	require.NoError(t, err)

	task, err := svc.ToggleTask(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)
	task, err = svc.ToggleTask(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)

	_, err = svc.ToggleTask(ctx, 999)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestHandlerValidationProblem(t *testing.T) {
	h := catalog.NewHandler(slog.Default(), newService(t))
	r := chi.NewRouter()
	r.Route("/api/expenses", func(r chi.Router) { h.MountCollection(r, store.Expenses) })

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"description":"rent","amount":0}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"amount"`)

	req = httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"description":"rent","amount":900}`))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"category":"general"`)

	req = httptest.NewRequest(http.MethodGet, "/api/expenses/1", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
