package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type Options struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
	// Endpoint points the client at an emulator such as fake-gcs-server.
	Endpoint string
	Timeout  time.Duration
}

// Store keeps template blobs in a Cloud Storage bucket.
type Store struct {
	client  *storage.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

func New(ctx context.Context, opts Options) (*Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	clientOpts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Store{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(opts.Prefix, "/"),
		timeout: timeout,
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Save creates the object only if it does not exist yet; an existing key
// fails with ErrDuplicateRecord.
func (s *Store) Save(ctx context.Context, key string, data io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(s.objectName(key)).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = docxContentType
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return classify("write object", err)
	}
	if err := w.Close(); err != nil {
		return classify("close object writer", err)
	}
	return nil
}

// Open reads the whole object before returning so the read is bounded by
// the store timeout rather than by the caller.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if err != nil {
		return nil, classify("open object", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, classify("read object", err)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *Store) objectName(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func classify(op string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return domain.WrapError(domain.ErrNotFound, op, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= 500:
			return domain.WrapError(domain.ErrTemporary, op, err)
		case apiErr.Code == http.StatusNotFound:
			return domain.WrapError(domain.ErrNotFound, op, err)
		case apiErr.Code == http.StatusPreconditionFailed:
			return domain.WrapError(domain.ErrDuplicateRecord, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
