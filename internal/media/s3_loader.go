package media

import (
	"context"
	"fmt"
	"io"

	"shophub/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectGetter is the part of the S3 client the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for images stored in an S3 bucket.
type s3Loader struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates an S3-backed image loader using the default AWS
// credential chain. A non-empty endpoint points the client at an
// S3-compatible store with path-style addressing.
func NewS3Loader(ctx context.Context, bucket, region, endpoint string, logger zerolog.Logger) (Loader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("endpoint", endpoint).
		Msg("S3 image loader initialised")

	return newS3Loader(client, bucket, logger), nil
}

func newS3Loader(client objectGetter, bucket string, logger zerolog.Logger) *s3Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "media-s3-loader").Logger(),
	}
}

// Load reads the object at key and returns it as an image.
func (l *s3Loader) Load(ctx context.Context, key string) (*model.ImageFile, error) {
	l.logger.Debug().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading image from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, MaxImageBytes+1))
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("error reading object from S3")
		return nil, fmt.Errorf("error reading S3 object %s: %w", key, err)
	}

	img, err := NewImageFile(key, aws.ToString(result.ContentType), data)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("bytes", len(img.Data)).
		Msg("image loaded from S3")

	return img, nil
}

// fallbackLoader tries S3 first, then falls back to the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 first when enabled, then
// the local file system. A nil s3Loader means local only.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "media-fallback-loader").Logger(),
	}
}

// Load prefixes ref with the S3 prefix for the S3 attempt and uses ref as-is
// on the local file system.
func (l *fallbackLoader) Load(ctx context.Context, ref string) (*model.ImageFile, error) {
	if l.s3Enabled && l.s3Loader != nil {
		key := l.s3Prefix + ref

		img, err := l.s3Loader.Load(ctx, key)
		if err == nil {
			return img, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, ref)
}
