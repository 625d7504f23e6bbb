package settings_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/settings"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
)

func newService(t *testing.T) (*settings.Service, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)
	return settings.NewService(st), st
}

func TestPutGetLastWriteWins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Get(ctx, "shopName")
	require.ErrorIs(t, err, settings.ErrNotFound)

	require.NoError(t, svc.Put(ctx, "shopName", json.RawMessage(`"First"`)))
	require.NoError(t, svc.Put(ctx, "shopName", json.RawMessage(`"Acme"`)))
	raw, err := svc.Get(ctx, "shopName")
	require.NoError(t, err)
	assert.JSONEq(t, `"Acme"`, string(raw))

	require.ErrorIs(t, svc.Put(ctx, " ", json.RawMessage(`1`)), settings.ErrKeyRequired)
}

func TestShopProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	profile, err := svc.ShopProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultShopProfile, profile)

	_, err = svc.SaveShopProfile(ctx, settings.ShopProfile{ShopName: " "})
	require.ErrorIs(t, err, model.ErrValidation)

	saved, err := svc.SaveShopProfile(ctx, settings.ShopProfile{ShopName: "Acme Print", Currency: "egp"})
	require.NoError(t, err)
	assert.Equal(t, "EGP", saved.Currency)

	profile, err = svc.ShopProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, profile)

	err = svc.Put(ctx, settings.ShopProfileKey, json.RawMessage(`{"currency":"USD"}`))
	require.ErrorIs(t, err, model.ErrValidation)
}
