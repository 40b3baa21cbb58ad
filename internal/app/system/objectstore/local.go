package objectstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dalemusser/waffle/pantry/storage"
)

// Local keeps blobs on disk through WAFFLE's local storage.
type Local struct {
	store    storage.Store
	basePath string
}

// NewLocal creates the disk backend rooted at opts.LocalPath, serving URLs
// under opts.LocalURL.
func NewLocal(opts Options) (*Local, error) {
	base := opts.LocalPath
	if base == "" {
		base = "./uploads"
	}
	url := opts.LocalURL
	if url == "" {
		url = "/files"
	}
	st, err := storage.NewLocal(storage.LocalConfig{BasePath: base, BaseURL: url})
	if err != nil {
		return nil, err
	}
	return &Local{store: st, basePath: base}, nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	return l.store.Put(ctx, key, r, &storage.PutOptions{ContentType: contentType})
}

func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := l.store.Get(ctx, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (l *Local) Delete(ctx context.Context, key string) error {
	err := l.store.Delete(ctx, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) URL(key string) string { return l.store.URL(key) }

func (l *Local) Bucket() string { return "" }

// List walks the directory tree under prefix.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	root := filepath.Join(l.basePath, filepath.FromSlash(prefix))
	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return keys, nil
}

