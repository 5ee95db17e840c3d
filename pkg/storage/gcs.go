package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStorage stores objects in a Google Cloud Storage bucket.
type GCSStorage struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSStorage creates a client for bucket. credentialsFile may be empty to use ambient
// application default credentials.
func NewGCSStorage(ctx context.Context, bucket, publicBaseURL, credentialsFile string) (*GCSStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name required")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket, publicBaseURL: publicBaseURL}, nil
}

// Put uploads the object with a does-not-exist precondition.
func (s *GCSStorage) Put(ctx context.Context, objectPath string, r io.Reader, contentType string) error {
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(cleaned).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return ErrObjectExists
		}
		return fmt.Errorf("close gcs writer: %w", err)
	}
	return nil
}

// Open streams the object.
func (s *GCSStorage) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return nil, err
	}
	reader, err := s.client.Bucket(s.bucket).Object(cleaned).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gcs object: %w", err)
	}
	return reader, nil
}

// Delete removes the object; a missing object is not an error.
func (s *GCSStorage) Delete(ctx context.Context, objectPath string) error {
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(cleaned).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object: %w", err)
	}
	return nil
}

// PublicURL prefers the configured CDN base and falls back to the storage.googleapis.com host.
func (s *GCSStorage) PublicURL(objectPath string) string {
	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, objectPath)
	}
	return joinURL("https://storage.googleapis.com/"+s.bucket, objectPath)
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
