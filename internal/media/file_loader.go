package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"shophub/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for images stored under a local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader reading images below dir. References cannot
// escape dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "media-file-loader").Logger(),
	}
}

// Load reads the image at ref relative to the loader directory.
func (l *fileLoader) Load(ctx context.Context, ref string) (*model.ImageFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(ref, "/")
	l.logger.Debug().Str("dir", l.dir).Str("file", name).Msg("loading image file")

	root, err := os.OpenRoot(l.dir)
	if err != nil {
		l.logger.Error().Err(err).Str("dir", l.dir).Msg("failed to open media directory")
		return nil, fmt.Errorf("failed to open media directory %s: %w", l.dir, err)
	}
	defer root.Close()

	file, err := root.Open(name)
	if err != nil {
		l.logger.Warn().Err(err).Str("file", name).Msg("failed to open image file")
		return nil, fmt.Errorf("failed to open image file %s: %w", name, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		l.logger.Error().Err(err).Str("file", name).Msg("error reading image file")
		return nil, fmt.Errorf("error reading image file %s: %w", name, err)
	}

	img, err := NewImageFile(name, "", data)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("file", name).
		Str("content_type", img.ContentType).
		Int("bytes", len(img.Data)).
		Msg("image file loaded")

	return img, nil
}
