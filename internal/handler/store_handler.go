package handler

import (
	"context"
	"net/http"
	"strings"

	"shophub/internal/cart"
	"shophub/internal/catalog"
	"shophub/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CatalogFetcher re-fetches the catalogue from the backend.
type CatalogFetcher interface {
	Refresh(ctx context.Context) ([]model.Product, error)
}

// StoreHandler serves the public storefront: product listing and the
// session cart.
type StoreHandler struct {
	catalog CatalogFetcher
	logger  zerolog.Logger
}

// NewStoreHandler creates a new storefront handler.
func NewStoreHandler(catalog CatalogFetcher, logger zerolog.Logger) *StoreHandler {
	return &StoreHandler{
		catalog: catalog,
		logger:  logger.With().Str("handler", "store").Logger(),
	}
}

// AddItemRequest is the body of POST /api/store/cart/items.
type AddItemRequest struct {
	ProductID string `json:"productId"`
}

// CartItemResponse is a line item with its subtotal.
type CartItemResponse struct {
	model.LineItem
	Subtotal string `json:"subtotal"`
}

// CartResponse is the cart as shown to the shopper.
type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Count int                `json:"count"`
	Total string             `json:"total"`
}

// ListProducts handles GET /api/store/products?q=. Every listing re-fetches
// the catalogue, so backend failures reach the shopper and the cart adds
// against what was last shown.
func (h *StoreHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Filter(products, r.URL.Query().Get("q")))
}

// GetCart handles GET /api/store/cart.
func (h *StoreHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// AddItem handles POST /api/store/cart/items.
func (h *StoreHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		writeDomainError(w, &model.ValidationError{Field: "productId", Message: "productId is required"}, h.logger)
		return
	}

	if !sess.Cart.Add(productID) {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	h.logger.Debug().
		Str("session_id", sess.ID.String()).
		Str("product_id", productID).
		Msg("added to cart")

	writeJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// RemoveItem handles DELETE /api/store/cart/items/{productId}. Removing a
// product that is not in the cart is not an error.
func (h *StoreHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productId")
	if sess.Cart.Remove(productID) {
		h.logger.Debug().
			Str("session_id", sess.ID.String()).
			Str("product_id", productID).
			Msg("removed from cart")
	}

	writeJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// ClearCart handles DELETE /api/store/cart.
func (h *StoreHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	sess.Cart.Clear()
	writeJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

func newCartResponse(snap cart.Snapshot) CartResponse {
	items := make([]CartItemResponse, 0, len(snap.Items))
	for _, li := range snap.Items {
		items = append(items, CartItemResponse{
			LineItem: li,
			Subtotal: li.Subtotal().StringFixed(2),
		})
	}
	return CartResponse{
		Items: items,
		Count: snap.Count,
		Total: snap.Total.StringFixed(2),
	}
}
