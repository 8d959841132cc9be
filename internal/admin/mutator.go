// Package admin creates, updates and deletes catalogue products on the
// backend and tracks the draft being edited.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"shophub/internal/apiclient"
	"shophub/internal/model"

	"github.com/rs/zerolog"
)

const productsPath = "/api/products"

// Mode selects whether a draft creates a new product or updates one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Requester sends a request to the backend.
type Requester interface {
	Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*apiclient.Response, error)
}

// Refresher re-fetches the full catalogue.
type Refresher interface {
	Refresh(ctx context.Context) ([]model.Product, error)
}

// Mutator sends product mutations to the backend and re-fetches the
// catalogue after each one succeeds. Concurrent calls are not serialised.
type Mutator struct {
	api       Requester
	refresher Refresher
	logger    zerolog.Logger
}

// NewMutator creates a mutator.
func NewMutator(api Requester, refresher Refresher, logger zerolog.Logger) *Mutator {
	return &Mutator{
		api:       api,
		refresher: refresher,
		logger:    logger.With().Str("component", "admin-mutator").Logger(),
	}
}

// Submit validates the draft and sends it as a multipart form. Update needs
// targetID. The returned product is nil when the backend acknowledged the
// mutation without a decodable product body.
func (m *Mutator) Submit(ctx context.Context, draft model.Draft, mode Mode, targetID string) (*model.Product, error) {
	if err := Validate(draft); err != nil {
		m.logger.Warn().Err(err).Str("mode", string(mode)).Msg("draft rejected")
		return nil, err
	}

	var method, path string
	switch mode {
	case ModeCreate:
		method, path = http.MethodPost, productsPath
	case ModeUpdate:
		if strings.TrimSpace(targetID) == "" {
			return nil, &model.ValidationError{Field: "id", Message: "product id is required for update"}
		}
		method, path = http.MethodPut, productsPath+"/"+url.PathEscape(targetID)
	default:
		return nil, fmt.Errorf("unknown submit mode %q", mode)
	}

	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}

	m.logger.Debug().
		Str("mode", string(mode)).
		Str("product_id", targetID).
		Bool("has_file", draft.Image != nil).
		Msg("submitting draft")

	resp, err := m.api.Do(ctx, method, path, body, contentType)
	if err != nil {
		m.logger.Error().Err(err).Str("mode", string(mode)).Str("product_id", targetID).Msg("submit failed")
		return nil, err
	}

	var product *model.Product
	var decoded model.Product
	if err := json.Unmarshal(resp.Body, &decoded); err == nil && decoded.ID != "" {
		product = &decoded
	} else {
		m.logger.Warn().Err(err).Str("mode", string(mode)).Msg("mutation response is not a product")
	}

	m.logger.Info().
		Str("mode", string(mode)).
		Str("product_id", targetID).
		Msg("product saved")

	m.refresh(ctx)

	return product, nil
}

// Delete removes a product on the backend. There is no undo.
func (m *Mutator) Delete(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return &model.ValidationError{Field: "id", Message: "product id is required"}
	}

	if _, err := m.api.Do(ctx, http.MethodDelete, productsPath+"/"+url.PathEscape(productID), nil, ""); err != nil {
		m.logger.Error().Err(err).Str("product_id", productID).Msg("delete failed")
		return err
	}

	m.logger.Info().Str("product_id", productID).Msg("product deleted")

	m.refresh(ctx)

	return nil
}

// refresh re-fetches the catalogue. A failure does not undo the mutation; the
// previous snapshot stays in place.
func (m *Mutator) refresh(ctx context.Context) {
	if m.refresher == nil {
		return
	}
	if _, err := m.refresher.Refresh(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("catalogue refresh after mutation failed")
	}
}

// encodeDraft builds the multipart body the backend expects. An attached
// file takes precedence over the image URL.
func encodeDraft(d model.Draft) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct {
		name  string
		value string
	}{
		{"name", strings.TrimSpace(d.Name)},
		{"description", strings.TrimSpace(d.Description)},
		{"price", strings.TrimSpace(d.Price)},
		{"category", strings.TrimSpace(d.Category)},
		{"colors", "[]"},
		{"features", "[]"},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	switch {
	case d.Image != nil:
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "image",
			"filename": d.Image.Name,
		}))
		contentType := d.Image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(d.Image.Data); err != nil {
			return nil, "", err
		}
	case strings.TrimSpace(d.ImageURL) != "":
		if err := w.WriteField("imageUrl", strings.TrimSpace(d.ImageURL)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
