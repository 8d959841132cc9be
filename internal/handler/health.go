package handler

import (
	"net/http"
	"time"

	"shophub/internal/model"

	"github.com/rs/zerolog"
)

// CatalogStatus reports how fresh the catalogue snapshot is.
type CatalogStatus interface {
	Products() []model.Product
	FetchedAt() time.Time
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// HealthHandler provides the health check endpoint.
type HealthHandler struct {
	catalog  CatalogStatus
	sessions SessionCounter
	logger   zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(catalog CatalogStatus, sessions SessionCounter, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		catalog:  catalog,
		sessions: sessions,
		logger:   logger.With().Str("handler", "health").Logger(),
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status           string     `json:"status"`
	Timestamp        time.Time  `json:"timestamp"`
	Products         int        `json:"products"`
	CatalogFetchedAt *time.Time `json:"catalogFetchedAt,omitempty"`
	Sessions         int        `json:"sessions"`
}

// ServeHTTP handles GET /health. The gateway stays healthy while the
// backend is unreachable; an empty catalogue with no fetch time shows that.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Products:  len(h.catalog.Products()),
		Sessions:  h.sessions.Len(),
	}
	if fetched := h.catalog.FetchedAt(); !fetched.IsZero() {
		resp.CatalogFetchedAt = &fetched
	}

	writeJSON(w, http.StatusOK, resp)
}
