package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shophub/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var resp CartResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func addItem(t *testing.T, h *StoreHandler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.AddItem(w, req)
	return w
}

func addRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/store/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestStoreHandler_ListProducts(t *testing.T) {
	products := []model.Product{
		{ID: "a", Name: "Apple Tee", Description: "Green"},
		{ID: "b", Name: "Blue Jeans", Description: "Denim"},
	}

	tests := []struct {
		name           string
		query          string
		fetched        []model.Product
		fetchErr       error
		expectedStatus int
		expectedIDs    []string
		expectedCode   string
	}{
		{
			name:           "Lists the fetched catalogue",
			fetched:        products,
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"a", "b"},
		},
		{
			name:           "Filters by query",
			query:          "TEE",
			fetched:        products,
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"a"},
		},
		{
			name:           "Malformed backend response",
			fetchErr:       &model.MalformedResponseError{Message: "invalid response format"},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   model.ErrCodeMalformedResponse,
		},
		{
			name:           "Backend unreachable",
			fetchErr:       &model.NetworkError{Message: "cannot connect to server"},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   model.ErrCodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := new(MockCatalog)
			catalog.On("Refresh", mock.Anything).Return(tt.fetched, tt.fetchErr).Once()

			h := NewStoreHandler(catalog, zerolog.Nop())
			w := httptest.NewRecorder()
			h.ListProducts(w, httptest.NewRequest(http.MethodGet, "/api/store/products?q="+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			catalog.AssertExpectations(t)

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
				return
			}
			var got []model.Product
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestStoreHandler_CartFlow(t *testing.T) {
	h := NewStoreHandler(new(MockCatalog), zerolog.Nop())
	sess := newTestSession(t)

	for _, id := range []string{"a", "a", "b"} {
		w := addItem(t, h, withSession(addRequest(`{"productId":"`+id+`"}`), sess, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	h.GetCart(w, withSession(httptest.NewRequest(http.MethodGet, "/api/store/cart", nil), sess, nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeCart(t, w)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "50.00", resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "a", resp.Items[0].ID)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "20.00", resp.Items[0].Subtotal)
	assert.Equal(t, "b", resp.Items[1].ID)
	assert.Equal(t, 1, resp.Items[1].Quantity)

	// Remove drops the whole line item.
	w = httptest.NewRecorder()
	h.RemoveItem(w, withSession(
		httptest.NewRequest(http.MethodDelete, "/api/store/cart/items/a", nil),
		sess, map[string]string{"productId": "a"},
	))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeCart(t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "30.00", resp.Total)

	w = httptest.NewRecorder()
	h.ClearCart(w, withSession(httptest.NewRequest(http.MethodDelete, "/api/store/cart", nil), sess, nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeCart(t, w)
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, "0.00", resp.Total)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestStoreHandler_AddItemErrors(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Unknown product",
			body:           `{"productId":"zzz"}`,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Missing product id",
			body:           `{"productId":"  "}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
		},
		{
			name:           "Invalid JSON",
			body:           `{"productId":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Unknown field",
			body:           `{"id":"a"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStoreHandler(new(MockCatalog), zerolog.Nop())
			sess := newTestSession(t)

			w := addItem(t, h, withSession(addRequest(tt.body), sess, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			assert.Equal(t, 0, sess.Cart.Count(), "cart must be unchanged")
		})
	}
}

func TestStoreHandler_RemoveUnknownIsNoop(t *testing.T) {
	h := NewStoreHandler(new(MockCatalog), zerolog.Nop())
	sess := newTestSession(t)
	require.True(t, sess.Cart.Add("a"))

	w := httptest.NewRecorder()
	h.RemoveItem(w, withSession(
		httptest.NewRequest(http.MethodDelete, "/api/store/cart/items/zzz", nil),
		sess, map[string]string{"productId": "zzz"},
	))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeCart(t, w).Count)
}

func TestStoreHandler_NoSession(t *testing.T) {
	h := NewStoreHandler(new(MockCatalog), zerolog.Nop())

	w := httptest.NewRecorder()
	h.GetCart(w, httptest.NewRequest(http.MethodGet, "/api/store/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, model.ErrCodeInternalError, decodeError(t, w).Error)
}
