// Package blobstore holds uploaded files: patient photos and lab report
// documents. It defines the BlobStore interface, a Postgres-backed
// implementation, an in-memory implementation for tests, and the public
// download handler that serves stored files by URL.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrUnknownBucket      = errors.New("unknown storage bucket")
)

// Bucket groups blobs by purpose and carries its own size and type limits.
// Patient photos and lab reports have different caps and allowed types.
type Bucket string

const (
	// BucketPhotos holds patient photos, images only, up to 5 MB.
	BucketPhotos Bucket = "photos"
	// BucketReports holds lab report documents, up to 10 MB.
	BucketReports Bucket = "reports"
)

// bucketPolicy is the per-bucket validation applied on upload.
type bucketPolicy struct {
	maxSize      int64
	contentTypes map[string]bool
}

var policies = map[Bucket]bucketPolicy{
	BucketPhotos: {
		maxSize: 5 * 1024 * 1024,
		contentTypes: map[string]bool{
			"image/jpeg": true,
			"image/jpg":  true,
			"image/png":  true,
		},
	},
	BucketReports: {
		maxSize: 10 * 1024 * 1024,
		contentTypes: map[string]bool{
			"application/pdf": true,
			"image/jpeg":      true,
			"image/jpg":       true,
			"image/png":       true,
		},
	},
}

// Blob describes a stored file.
type Blob struct {
	ID          uuid.UUID `json:"id"`
	Bucket      Bucket    `json:"bucket"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// URL is the public path the blob is served from.
func (b *Blob) URL() string {
	return "/files/" + b.ID.String()
}

// BlobStore is the contract for file storage backends.
type BlobStore interface {
	Upload(ctx context.Context, bucket Bucket, fileName, contentType string, uploadedBy uuid.UUID, content io.Reader) (*Blob, error)
	Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Blob, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// validate enforces the bucket policy and reads the content into memory.
func validate(bucket Bucket, fileName, contentType string, content io.Reader) ([]byte, error) {
	policy, ok := policies[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	if !policy.contentTypes[strings.ToLower(contentType)] {
		return nil, fmt.Errorf("%w: %s not accepted by bucket %s", ErrInvalidContentType, contentType, bucket)
	}

	data, err := io.ReadAll(io.LimitReader(content, policy.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > policy.maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// storedName generates a collision-free object name preserving the original
// file extension.
func storedName(fileName string) string {
	ext := path.Ext(fileName)
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
