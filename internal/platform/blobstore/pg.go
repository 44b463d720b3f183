package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/medilink/internal/platform/db"
)

// PGBlobStore keeps file content in the blobs table alongside the rest of
// the clinic data, so a single hosted Postgres serves both records and
// files.
type PGBlobStore struct {
	pool *pgxpool.Pool
}

func NewPGBlobStore(pool *pgxpool.Pool) *PGBlobStore {
	return &PGBlobStore{pool: pool}
}

func (s *PGBlobStore) Upload(ctx context.Context, bucket Bucket, fileName, contentType string, uploadedBy uuid.UUID, content io.Reader) (*Blob, error) {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO blobs (id, bucket, file_name, content_type, size, uploaded_by, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		meta.ID, meta.Bucket, meta.FileName, meta.ContentType, meta.Size, meta.UploadedBy, data, meta.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", db.Normalize(err))
	}
	return &meta, nil
}

func (s *PGBlobStore) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Blob, error) {
	var meta Blob
	var content []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, bucket, file_name, content_type, size, uploaded_by, content, created_at
		FROM blobs WHERE id = $1`, id,
	).Scan(&meta.ID, &meta.Bucket, &meta.FileName, &meta.ContentType, &meta.Size, &meta.UploadedBy, &content, &meta.CreatedAt)
	if err != nil {
		if errors.Is(db.Normalize(err), db.ErrNotFound) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("fetch blob: %w", err)
	}
	return io.NopCloser(bytes.NewReader(content)), &meta, nil
}

func (s *PGBlobStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlobNotFound
	}
	return nil
}
