package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
)

func record(t *testing.T, doc string) store.Record {
	t.Helper()
	var rec store.Record
	require.NoError(t, json.Unmarshal([]byte(doc), &rec))
	return rec
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	schema := model.NewSchema()

	out, err := schema.Normalize(store.Tasks, record(t, `{"id":4,"title":"Call printer tech"}`))
	require.NoError(t, err)
	task, err := model.DecodeAs[model.Task](out)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, model.TaskPending, task.Status)

	out, err = schema.Normalize(store.Tags, record(t, `{"name":"urgent"}`))
	require.NoError(t, err)
	assert.Equal(t, `"`+model.DefaultTagColor+`"`, string(out["color"]))

	out, err = schema.Normalize(store.Materials, record(t, `{"name":"A4 paper","quantity":"250"}`))
	require.NoError(t, err)
	mat, err := model.DecodeAs[model.Material](out)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultUnit, mat.Unit)
	assert.InDelta(t, 250, mat.Quantity, 0.0001)
}

func TestNormalizeKeepsUnknownFieldsAndIdentity(t *testing.T) {
	schema := model.NewSchema()
	out, err := schema.Normalize(store.Clients, record(t, `{"id":7,"name":"Nour","favourite":"blue"}`))
	require.NoError(t, err)
	assert.Equal(t, `"blue"`, string(out["favourite"]))
	_, hasID := out[store.FieldID]
	assert.False(t, hasID, "identity is reapplied by the store")
}

func TestNormalizeRejectsInvalidRecords(t *testing.T) {
	schema := model.NewSchema()
	cases := []struct {
		name  string
		c     store.Collection
		doc   string
		field string
	}{
		{"client without name or phone", store.Clients, `{"address":"Harbour st"}`, "name"},
		{"task without title", store.Tasks, `{"priority":"high"}`, "title"},
		{"expense with zero amount", store.Expenses, `{"description":"ink","amount":0}`, "amount"},
		{"order with bad status", store.Orders, `{"status":"lost"}`, "status"},
		{"order with bad date", store.Orders, `{"orderDate":"soon"}`, "orderDate"},
		{"negative stock", store.Materials, `{"name":"vinyl","quantity":-1}`, "quantity"},
		{"purchase without material", store.Purchases, `{"quantity":3}`, "materialId"},
		{"note without text", store.Notes, `{"pinned":true}`, "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.Normalize(tc.c, record(t, tc.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrValidation))
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestNormalizeNoteAcceptsContentOnly(t *testing.T) {
	schema := model.NewSchema()
	out, err := schema.Normalize(store.Notes, record(t, `{"content":"reorder toner","tag":"3"}`))
	require.NoError(t, err)
	note, err := model.DecodeAs[model.Note](out)
	require.NoError(t, err)
	assert.Equal(t, model.Ref(3), note.Tag)
	assert.Equal(t, "3", string(out["tag"]))
}

func TestNormalizeMigratesSingleServiceOrder(t *testing.T) {
	schema := model.NewSchema()
	out, err := schema.Normalize(store.Orders, record(t,
		`{"clientId":"2","service":"Business cards","quantity":"500","price":"150","status":"delivered"}`))
	require.NoError(t, err)

	order, err := model.DecodeAs[model.Order](out)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Business cards", item.ServiceName)
	assert.Equal(t, model.SourceNone, item.MaterialSource)
	assert.InDelta(t, 500, item.Quantity, 0.0001)
	assert.InDelta(t, 150, item.ServicePrice, 0.0001)
	assert.InDelta(t, 150, order.TotalPrice, 0.0001)
	assert.InDelta(t, 150, order.ServicePrice, 0.0001)
	assert.InDelta(t, 150, order.Profit, 0.0001)
	assert.Equal(t, model.Ref(2), order.ClientID)
	assert.Equal(t, `"Business cards"`, string(out["service"]))
}

func TestNormalizeOrderItemAliases(t *testing.T) {
	schema := model.NewSchema()
	out, err := schema.Normalize(store.Orders, record(t, `{"items":[
		{"serviceName":"Banner","servicePrice":"80","materialId":5,"materialSource":"client","materialPrice":12,"materialCost":9}
	]}`))
	require.NoError(t, err)

	order, err := model.DecodeAs[model.Order](out)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, model.SourceCustomer, item.MaterialSource)
	assert.InDelta(t, 1, item.Quantity, 0.0001)
	assert.InDelta(t, 80, item.ServicePrice, 0.0001)
	assert.InDelta(t, 12, item.SellPrice(), 0.0001)
	assert.InDelta(t, 9, item.UnitCost(), 0.0001)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.NotNil(t, order.ExtraCosts)
}

func TestSchemaWithStore(t *testing.T) {
	ctx := t.Context()
	st, err := store.Open(ctx, memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)

	_, err = st.Add(ctx, store.Tasks, store.Record{})
	require.ErrorIs(t, err, model.ErrValidation)

	rec, err := store.Encode(model.Task{Title: "Laminate menus", Priority: model.PriorityHigh})
	require.NoError(t, err)
	id, err := st.Add(ctx, store.Tasks, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := st.Get(ctx, store.Tasks, id)
	require.NoError(t, err)
	task, err := model.DecodeAs[model.Task](got)
	require.NoError(t, err)
	assert.Equal(t, id, task.ID)
	assert.NotNil(t, task.CreatedAt)
	assert.Equal(t, model.PriorityHigh, task.Priority)
}

func TestImportedLegacyOrdersKeepProfitInvariant(t *testing.T) {
	ctx := t.Context()
	st, err := store.Open(ctx, memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"orders":[
		{"id":1,"service":"Print","quantity":"3","price":"90"},
		{"id":2,"service":"Scan","quantity":1,"price":40,"totalCost":"15"}
	]}`), &snap))
	require.NoError(t, st.ImportAll(ctx, snap))

	recs, err := st.GetAll(ctx, store.Orders)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		order, err := model.DecodeAs[model.Order](rec)
		require.NoError(t, err)
		require.Len(t, order.Items, 1)
		assert.InDelta(t, order.TotalPrice-order.TotalCost, order.Profit, 0.0001, "order %d", order.ID)
		assert.InDelta(t, order.Items[0].ServicePrice, order.ServicePrice, 0.0001, "order %d", order.ID)
	}
	second, err := model.DecodeAs[model.Order](recs[1])
	require.NoError(t, err)
	assert.InDelta(t, 25, second.Profit, 0.0001)
}

func TestClientNeedsNameOrPhone(t *testing.T) {
	schema := model.NewSchema()

	_, err := schema.Normalize(store.Clients, record(t, `{"name":"","phone":"0555"}`))
	require.NoError(t, err)
	_, err = schema.Normalize(store.Clients, record(t, `{"name":"Atelier Nour"}`))
	require.NoError(t, err)

	_, err = schema.Normalize(store.Clients, record(t, `{"name":"","phone":""}`))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "phone")
}

func TestImportKeepsPhoneOnlyClients(t *testing.T) {
	ctx := t.Context()
	st, err := store.Open(ctx, memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{
		"clients":[{"id":1,"name":"","phone":"0555"}],
		"orders":[{"id":3,"clientId":1,"items":[{"serviceName":"Copies","servicePrice":4}]}]
	}`), &snap))
	require.NoError(t, st.ImportAll(ctx, snap))

	clients, err := st.Count(ctx, store.Clients)
	require.NoError(t, err)
	assert.Equal(t, 1, clients)
	orders, err := st.Count(ctx, store.Orders)
	require.NoError(t, err)
	assert.Equal(t, 1, orders)
}
