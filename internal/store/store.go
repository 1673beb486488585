// Package store keeps season data files in a bucket or a local directory.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when reading an object that does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore reads and writes named blobs.
type ObjectStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte, contentType string) error
	// List returns the sorted names of objects starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// GCS is an ObjectStore backed by a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCS connects to the named bucket.
func NewGCS(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCS: no bucket given")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCS: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(bucket)}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := g.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Read: %s: %w", name, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCS) Write(ctx context.Context, name string, data []byte, contentType string) error {
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("Write: %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Write: %s: %w", name, err)
	}
	return nil
}

func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	out := make([]string, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		out = append(out, attrs.Name)
	}
	sort.Strings(out)
	return out, nil
}

// Open returns a Dir when dir is set and a GCS bucket otherwise.
// The returned function releases the store.
func Open(ctx context.Context, dir, bucket string, opts ...option.ClientOption) (ObjectStore, func() error, error) {
	if dir != "" {
		return NewDir(dir), func() error { return nil }, nil
	}
	g, err := NewGCS(ctx, bucket, opts...)
	if err != nil {
		return nil, nil, err
	}
	return g, g.Close, nil
}

// Dir is an ObjectStore backed by a local directory.
type Dir struct {
	Root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Path returns the file an object name maps to.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name))
}

func (d *Dir) Read(_ context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(d.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return b, err
}

func (d *Dir) Write(_ context.Context, name string, data []byte, _ string) error {
	path := d.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Dir) List(_ context.Context, prefix string) ([]string, error) {
	out := make([]string, 0)
	err := filepath.WalkDir(d.Root, func(path string, e os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
