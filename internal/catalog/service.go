package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"shophub/internal/model"

	"github.com/rs/zerolog"
)

// Service holds the last applied catalogue snapshot.
type Service struct {
	fetcher Fetcher
	logger  zerolog.Logger

	issued atomic.Uint64

	mu        sync.RWMutex
	applied   uint64
	products  []model.Product
	byID      map[string]int
	fetchedAt time.Time
}

// NewService creates an empty catalogue service. Call Refresh to load it.
func NewService(fetcher Fetcher, logger zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "catalog").Logger(),
		byID:    map[string]int{},
	}
}

// Refresh re-fetches the whole catalogue and replaces the snapshot.
// A failed fetch leaves the snapshot untouched. When a refresh started later
// has already been applied, this result is stale and is discarded.
func (s *Service) Refresh(ctx context.Context) ([]model.Product, error) {
	gen := s.issued.Add(1)

	products, err := s.fetcher.FetchCatalog(ctx)
	if err != nil {
		s.logger.Error().Err(err).Uint64("generation", gen).Msg("catalogue refresh failed")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen < s.applied {
		s.logger.Debug().
			Uint64("generation", gen).
			Uint64("applied", s.applied).
			Msg("discarding stale catalogue response")
		return cloneProducts(s.products), nil
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	s.applied = gen
	s.products = products
	s.byID = byID
	s.fetchedAt = time.Now()

	s.logger.Info().
		Int("count", len(products)).
		Uint64("generation", gen).
		Msg("catalogue refreshed")

	return cloneProducts(products), nil
}

// Products returns a copy of the current snapshot.
func (s *Service) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

// Search filters the current snapshot by name or description.
func (s *Service) Search(query string) []model.Product {
	return Filter(s.Products(), query)
}

// Find looks a product up in the current snapshot.
func (s *Service) Find(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return s.products[i], true
}

// FetchedAt reports when the current snapshot was applied. It is zero until
// the first successful refresh.
func (s *Service) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

func cloneProducts(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	return out
}
