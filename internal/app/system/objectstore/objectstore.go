// Package objectstore stores upload blobs and returns their public URLs.
//
// Three backends share one interface: s3 (aws-sdk-go-v2, any S3-compatible
// endpoint), minio (minio-go), and local (WAFFLE pantry storage on disk,
// served by the app's file server). Client behaviour such as cache-control
// headers, path-style addressing, and the public URL base is configured
// through Options.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// Store puts, reads, and deletes blobs by key.
type Store interface {
	// Put uploads r (size bytes, or -1 when unknown) under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens the blob for reading. Returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for key.
	URL(key string) string
	// Bucket names the bucket, or "" for the local backend.
	Bucket() string
}

// Lister enumerates stored keys under prefix. Used by the integrity sweep to
// find blobs with no media record.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Backend names.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeMinio = "minio"
)

// Options configures every backend; each uses the fields it needs.
type Options struct {
	Type string

	// local
	LocalPath string
	LocalURL  string

	// s3 / minio
	Bucket       string
	Region       string
	Endpoint     string // empty means AWS
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	PathStyle    bool
	PublicURL    string // base for public URLs, e.g. a CDN; defaults to the endpoint
	CacheControl string
}

// Open builds the backend named by opts.Type.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Type) {
	case TypeLocal, "":
		return NewLocal(opts)
	case TypeS3:
		return NewS3(ctx, opts)
	case TypeMinio:
		return NewMinio(ctx, opts)
	}
	return nil, fmt.Errorf("objectstore: unknown storage type %q", opts.Type)
}

// joinURL appends key to base with exactly one slash between them.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
