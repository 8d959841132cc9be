// Package media resolves image source references into files that can be
// attached to an admin draft.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"shophub/internal/model"
)

// MaxImageBytes is the largest image accepted for upload.
const MaxImageBytes = 10 << 20

var (
	ErrNotImage      = errors.New("file is not an image")
	ErrImageTooLarge = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	ErrEmptyImage    = errors.New("image is empty")
)

// Loader defines the interface for loading image sources.
type Loader interface {
	// Load reads the image named by ref.
	Load(ctx context.Context, ref string) (*model.ImageFile, error)
}

// NewImageFile builds an ImageFile, working out its content type from the
// hint, then the file extension, then the content itself. Anything that is
// not an image is rejected.
func NewImageFile(name, contentTypeHint string, data []byte) (*model.ImageFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}

	contentType := mediaType(contentTypeHint)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(mime.TypeByExtension(strings.ToLower(path.Ext(name))))
	}
	if contentType == "" {
		contentType = mediaType(http.DetectContentType(data))
	}

	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s has content type %q", ErrNotImage, name, contentType)
	}

	return &model.ImageFile{
		Name:        path.Base(name),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// mediaType strips parameters from a content type.
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}
