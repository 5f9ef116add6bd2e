package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Totem/internal/catalog"
	"Totem/internal/customer"
)

type fakeCatalog struct {
	products []catalog.Product
	err      error
}

func (f *fakeCatalog) List(context.Context) ([]catalog.Product, error) {
	return f.products, f.err
}

func newTestServer(cat Catalog) (*Server, http.Handler) {
	s := &Server{
		Store:   NewMemStore(),
		Catalog: cat,
		Session: customer.NewSession(),
		Log:     zap.NewNop(),
		now:     func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	r := chi.NewRouter()
	r.Post("/checkout", s.CreateHandler())
	r.Get("/orders/{id}", s.GetHandler())
	r.Get("/admin/orders", s.ListHandler())
	return s, r
}

func menu() *fakeCatalog {
	return &fakeCatalog{products: []catalog.Product{
		{ID: 1, Name: "X-Burger Café Quente", Price: 15, Available: true},
		{ID: 2, Name: "Refrigerante Cola", Price: 7, Available: true},
		{ID: 3, Name: "Batata Frita", Price: 8.5, Available: false},
		{ID: 4, Name: "Água", Price: 0.1, Available: true},
	}}
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate_ComputesTotals(t *testing.T) {
	s, h := newTestServer(menu())

	rec := post(t, h, `{"items":[{"productId":1,"qty":2},{"productId":4,"qty":3}],"paymentMethod":"PIX","customerName":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	o := body.Data

	assert.Equal(t, 30.3, o.Total)
	assert.Equal(t, "pix", o.PaymentMethod)
	assert.Equal(t, "NEW", o.Status)
	assert.Equal(t, "Ana", o.CustomerName)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "X-Burger Café Quente", o.Items[0].Name)
	assert.Equal(t, 30.0, o.Items[0].Subtotal)
	assert.Equal(t, 0.3, o.Items[1].Subtotal)

	cur := s.Session.Get()
	require.NotNil(t, cur.OrderNumber)
	assert.Equal(t, o.ID, *cur.OrderNumber)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/orders/"+o.ID, nil))
	assert.Equal(t, http.StatusOK, get.Code)
}

func TestCreate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"empty items", `{"items":[],"paymentMethod":"cash"}`, http.StatusBadRequest},
		{"zero qty", `{"items":[{"productId":1,"qty":0}],"paymentMethod":"cash"}`, http.StatusBadRequest},
		{"bad payment", `{"items":[{"productId":1,"qty":1}],"paymentMethod":"cheque"}`, http.StatusBadRequest},
		{"duplicate", `{"items":[{"productId":1,"qty":1},{"productId":1,"qty":2}],"paymentMethod":"cash"}`, http.StatusBadRequest},
		{"unknown product", `{"items":[{"productId":99,"qty":1}],"paymentMethod":"cash"}`, http.StatusBadRequest},
		{"unavailable product", `{"items":[{"productId":3,"qty":1}],"paymentMethod":"cash"}`, http.StatusConflict},
		{"unknown field", `{"items":[{"productId":1,"qty":1}],"paymentMethod":"cash","x":1}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, h := newTestServer(menu())
			rec := post(t, h, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCreate_CatalogFailures(t *testing.T) {
	down := &fakeCatalog{err: fmt.Errorf("read: %w", catalog.ErrStorageUnavailable)}
	_, h := newTestServer(down)
	assert.Equal(t, http.StatusServiceUnavailable, post(t, h, `{"items":[{"productId":1,"qty":1}],"paymentMethod":"cash"}`).Code)

	corrupt := &fakeCatalog{err: catalog.ErrCorruptStore}
	_, h = newTestServer(corrupt)
	assert.Equal(t, http.StatusServiceUnavailable, post(t, h, `{"items":[{"productId":1,"qty":1}],"paymentMethod":"cash"}`).Code)

	other := &fakeCatalog{err: errors.New("boom")}
	_, h = newTestServer(other)
	assert.Equal(t, http.StatusBadGateway, post(t, h, `{"items":[{"productId":1,"qty":1}],"paymentMethod":"cash"}`).Code)
}

func TestGet_NotFound(t *testing.T) {
	_, h := newTestServer(menu())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o_missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_NewestFirst(t *testing.T) {
	s, h := newTestServer(menu())

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	first := post(t, h, `{"items":[{"productId":1,"qty":1}],"paymentMethod":"cash"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	clock = clock.Add(time.Minute)
	second := post(t, h, `{"items":[{"productId":2,"qty":1}],"paymentMethod":"debit"}`)
	require.Equal(t, http.StatusCreated, second.Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "debit", body.Data[0].PaymentMethod)
	assert.Equal(t, "cash", body.Data[1].PaymentMethod)
}
