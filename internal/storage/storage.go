package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Uploader stores a raw file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// ObjectPath builds the per-upload storage key: ownerID/randomUUID/filename.
// The random segment guarantees uniqueness, the owner segment namespacing.
func ObjectPath(ownerID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ownerID, uuid.New(), filename)
}

// ObjectStore is an HTTP client for an S3-like object storage service exposing
// upload and public-download endpoints per bucket.
type ObjectStore struct {
	apiKey string
	bucket string
	logger *zap.Logger

	HTTPClient *http.Client
	BaseURL    string
}

func NewObjectStore(baseURL, bucket, apiKey string, logger *zap.Logger) *ObjectStore {
	return &ObjectStore{
		apiKey:  apiKey,
		bucket:  bucket,
		logger:  logger,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *ObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", contentType)

	s.logger.Debug("uploading object",
		zap.String("bucket", s.bucket),
		zap.String("path", path),
		zap.Int("size", len(data)),
	)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload object: bad status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return s.PublicURL(path), nil
}

// PublicURL returns the unauthenticated download URL for a stored object.
func (s *ObjectStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.bucket, path)
}
