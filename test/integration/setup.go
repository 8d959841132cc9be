package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shophub/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage    = "minio/minio:RELEASE.2024-10-13T13-34-11Z"
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
	testRegion    = "us-east-1"
)

// TestS3 represents an S3-compatible store running in a container.
type TestS3 struct {
	Container testcontainers.Container
	Endpoint  string
	Client    *s3.Client
	Bucket    string
}

// SetupTestS3 starts a MinIO container with an empty bucket. It also points
// the default AWS credential chain at the container for the test's duration.
func SetupTestS3(t *testing.T, bucket string) *TestS3 {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			Cmd: []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start minio container: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "http")
	if err != nil {
		t.Fatalf("failed to get minio endpoint: %v", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", minioUser)
	t.Setenv("AWS_SECRET_ACCESS_KEY", minioPassword)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(testRegion))
	if err != nil {
		t.Fatalf("failed to load AWS configuration: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("failed to create bucket %s: %v", bucket, err)
	}

	return &TestS3{
		Container: container,
		Endpoint:  endpoint,
		Client:    client,
		Bucket:    bucket,
	}
}

// PutObject uploads an object to the test bucket.
func (s *TestS3) PutObject(t *testing.T, key, contentType string, data []byte) {
	t.Helper()

	_, err := s.Client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("failed to put object %s: %v", key, err)
	}
}

// UploadedImage is an image file the backend received.
type UploadedImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Backend is an in-memory product API that records uploaded images.
type Backend struct {
	mu       sync.Mutex
	products []model.Product
	uploads  []UploadedImage
	nextID   int
}

// NewBackend starts a backend seeded with products.
func NewBackend(t *testing.T, products ...model.Product) (*Backend, *httptest.Server) {
	t.Helper()

	b := &Backend{products: append([]model.Product{}, products...)}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	return b, server
}

// Uploads returns the images received so far.
func (b *Backend) Uploads() []UploadedImage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]UploadedImage(nil), b.uploads...)
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/products"), "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		json.NewEncoder(w).Encode(b.products)
	case r.Method == http.MethodPost && id == "":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"invalid form"}`))
			return
		}
		if file, header, err := r.FormFile("image"); err == nil {
			data, _ := io.ReadAll(file)
			file.Close()
			b.uploads = append(b.uploads, UploadedImage{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
		b.nextID++
		p := model.Product{
			ID:          fmt.Sprintf("it%d", b.nextID),
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Price:       decimal.RequireFromString(r.FormValue("price")),
			Category:    r.FormValue("category"),
		}
		b.products = append(b.products, p)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"message":"method not allowed"}`))
	}
}
