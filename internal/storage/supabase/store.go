// Package supabase implements storage.ObjectStore over Supabase Storage.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"zeus-backend/internal/storage"

	storage_go "github.com/supabase-community/storage-go"
)

// Bucket is the part of *storage_go.Client the store uses.
type Bucket interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error)
}

type Store struct {
	client Bucket
}

func NewStore(client Bucket) *Store {
	return &Store{client: client}
}

var _ storage.ObjectStore = (*Store)(nil)

func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	upsert := false
	opts := storage_go.FileOptions{ContentType: &contentType, Upsert: &upsert}
	if _, err := s.client.UploadFile(bucket, path, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client.RemoveFile(bucket, paths); err != nil {
		return fmt.Errorf("remove %d objects from %s: %w", len(paths), bucket, err)
	}
	return nil
}
