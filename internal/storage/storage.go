// Package storage contains the object storage abstraction the importer reads TT2 files from.
// Implementations stream content and never touch local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrObjectTooLarge is returned by Fetch when an object exceeds the caller's limit.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}

// Fetch reads a whole object into memory. It fails with ErrObjectTooLarge when the
// object holds limit bytes or more, without reading past the limit.
func Fetch(ctx context.Context, s Storage, key string, limit int64) ([]byte, error) {
	rc, info, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer rc.Close()

	if info.Size >= limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, key, info.Size)
	}

	b, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if int64(len(b)) >= limit {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}
	return b, nil
}
