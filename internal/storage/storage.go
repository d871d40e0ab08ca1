// Package storage is the remote object store client: a bucket/path blob
// interface plus the public URL and object path conventions for post images.
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultBucket holds all post images.
const DefaultBucket = "Zeus"

// ObjectStore uploads and removes objects by bucket and path.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error

	// Remove deletes the given paths. Missing paths are not an error.
	Remove(ctx context.Context, bucket string, paths []string) error
}

// PublicURL returns {base}/object/public/{bucket}/{path}.
func PublicURL(base, bucket, path string) string {
	return strings.TrimRight(base, "/") + "/object/public/" + bucket + "/" + strings.TrimLeft(path, "/")
}

// PathFromURL extracts the object path from a public URL by dropping everything
// up to and including the "/object/public/{bucket}/" marker. URLs without that
// prefix fall back to the first "/{bucket}/" segment.
func PathFromURL(url, bucket string) (string, bool) {
	marker := "/object/public/" + bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		marker = "/" + bucket + "/"
		idx = strings.Index(url, marker)
	}
	if idx < 0 {
		return "", false
	}
	path := url[idx+len(marker):]
	if path == "" {
		return "", false
	}
	return path, true
}

// PathGenerator produces image paths of the form public/post_<millis>.jpg.
// Paths handed out by one generator never repeat, even within one millisecond.
type PathGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewPathGenerator() *PathGenerator {
	return &PathGenerator{now: time.Now}
}

func (g *PathGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("public/post_%d.jpg", ms)
}
