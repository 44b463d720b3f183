package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type storedBlob struct {
	meta    Blob
	content []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore for tests and
// development.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[uuid.UUID]*storedBlob
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[uuid.UUID]*storedBlob)}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, bucket Bucket, fileName, contentType string, uploadedBy uuid.UUID, content io.Reader) (*Blob, error) {
	data, err := validate(bucket, fileName, contentType, content)
	if err != nil {
		return nil, err
	}

	meta := Blob{
		ID:          uuid.New(),
		Bucket:      bucket,
		FileName:    storedName(fileName),
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{meta: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, id uuid.UUID) (io.ReadCloser, *Blob, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.meta
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}
