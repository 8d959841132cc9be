package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"shophub/internal/admin"
	"shophub/internal/media"
	"shophub/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// multipartOverhead is room for the form fields around an uploaded image.
const multipartOverhead = 1 << 20

// CatalogRefresher re-fetches and looks up catalogue products.
type CatalogRefresher interface {
	Refresh(ctx context.Context) ([]model.Product, error)
	Find(id string) (model.Product, bool)
}

// ProductMutator sends product changes to the backend.
type ProductMutator interface {
	admin.Submitter
	Delete(ctx context.Context, productID string) error
}

// AdminHandler serves the admin dashboard: catalogue listing, the session
// draft and product deletion.
type AdminHandler struct {
	catalog CatalogRefresher
	mutator ProductMutator
	images  media.Loader
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler. images may be nil, in which
// case drafts only accept uploaded files and image URLs.
func NewAdminHandler(catalog CatalogRefresher, mutator ProductMutator, images media.Loader, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		mutator: mutator,
		images:  images,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// priceText accepts a price typed either as a JSON string or a JSON number.
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = priceText(n.String())
	return nil
}

// DraftPatch is a partial update of the draft. Absent fields are left as
// they are. ImageSource names an image for the media loader.
type DraftPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Price       *priceText `json:"price,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Category    *string    `json:"category,omitempty"`
	ImageSource string     `json:"imageSource,omitempty"`
}

func (p DraftPatch) apply(d *model.Draft, image *model.ImageFile) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Price != nil {
		d.Price = string(*p.Price)
	}
	if p.ImageURL != nil {
		d.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if image != nil {
		d.Image = image
	}
}

// SubmitResponse reports a saved draft. Product is absent when the backend
// acknowledged the change without returning the product.
type SubmitResponse struct {
	Mode    admin.Mode     `json:"mode"`
	Product *model.Product `json:"product,omitempty"`
}

// ListProducts handles GET /api/admin/products. The catalogue is re-fetched
// before listing.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetDraft handles GET /api/admin/draft.
func (h *AdminHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Editor.Current())
}

// StartCreate handles POST /api/admin/draft.
func (h *AdminHandler) StartCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	sess.Editor.StartCreate()
	writeJSON(w, http.StatusOK, sess.Editor.Current())
}

// StartEdit handles POST /api/admin/draft/{productId}. Any open draft is
// replaced.
func (h *AdminHandler) StartEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productId")
	product, found := h.catalog.Find(productID)
	if !found {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	sess.Editor.StartEdit(product)
	writeJSON(w, http.StatusOK, sess.Editor.Current())
}

// UpdateDraft handles PATCH /api/admin/draft.
func (h *AdminHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	var patch DraftPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	image, err := h.resolveImage(r.Context(), patch.ImageSource)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := sess.Editor.Update(func(d *model.Draft) { patch.apply(d, image) }); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, sess.Editor.Current())
}

// CancelDraft handles DELETE /api/admin/draft.
func (h *AdminHandler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	sess.Editor.Cancel()
	writeJSON(w, http.StatusOK, sess.Editor.Current())
}

// SubmitDraft handles POST /api/admin/draft/submit. The body may be empty,
// a JSON DraftPatch, or a multipart form with the draft fields and an
// "image" file. Fields in the body are applied to the draft before it is
// sent; on failure they stay applied so the admin can correct them.
func (h *AdminHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	patch, image, err := h.parseSubmission(w, r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := sess.Editor.Update(func(d *model.Draft) { patch.apply(d, image) }); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	product, mode, err := sess.Editor.Submit(r.Context(), h.mutator)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	status := http.StatusOK
	if mode == admin.ModeCreate {
		status = http.StatusCreated
	}
	writeJSON(w, status, SubmitResponse{Mode: mode, Product: product})
}

// DeleteProduct handles DELETE /api/admin/products/{productId}.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if err := h.mutator.Delete(r.Context(), productID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) parseSubmission(w http.ResponseWriter, r *http.Request) (DraftPatch, *model.ImageFile, error) {
	var patch DraftPatch

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := decodeJSON(r, &patch); err != nil {
			return patch, nil, &model.ValidationError{Field: "body", Message: "invalid request body"}
		}
		image, err := h.resolveImage(r.Context(), patch.ImageSource)
		return patch, image, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(media.MaxImageBytes + multipartOverhead); err != nil {
		return patch, nil, &model.ValidationError{Field: "body", Message: "invalid multipart form"}
	}

	values := r.MultipartForm.Value
	field := func(name string) *string {
		if v, ok := values[name]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	patch.Name = field("name")
	patch.Description = field("description")
	if price := field("price"); price != nil {
		pt := priceText(*price)
		patch.Price = &pt
	}
	patch.ImageURL = field("imageUrl")
	patch.Category = field("category")
	if source := field("imageSource"); source != nil {
		patch.ImageSource = *source
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, media.MaxImageBytes+1))
		if err != nil {
			return patch, nil, fmt.Errorf("failed to read uploaded image: %w", err)
		}
		image, err := media.NewImageFile(header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			return patch, nil, &model.ValidationError{Field: "image", Message: err.Error()}
		}
		return patch, image, nil
	case errors.Is(err, http.ErrMissingFile):
		image, err := h.resolveImage(r.Context(), patch.ImageSource)
		return patch, image, err
	default:
		return patch, nil, &model.ValidationError{Field: "image", Message: "invalid image upload"}
	}
}

// resolveImage loads the image named by source. An empty source yields no
// image.
func (h *AdminHandler) resolveImage(ctx context.Context, source string) (*model.ImageFile, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	if h.images == nil {
		return nil, &model.ValidationError{Field: "imageSource", Message: "image sources are not configured"}
	}

	image, err := h.images.Load(ctx, source)
	if err != nil {
		h.logger.Warn().Err(err).Str("image_source", source).Msg("failed to load image source")
		return nil, &model.ValidationError{Field: "imageSource", Message: "image source could not be loaded: " + err.Error()}
	}
	return image, nil
}
