package memstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

var (
	// ErrUploadNotFound is returned for unknown upload ids.
	ErrUploadNotFound = errors.New("memstore: upload not found")
	// ErrUploadTooLarge is returned when a file exceeds the size limit.
	ErrUploadTooLarge = errors.New("memstore: upload too large")
)

// Upload is a stored file.
type Upload struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
	Data        []byte
	CreatedAt   time.Time
}

// SaveUpload reads r fully and stores it. maxBytes <= 0 disables the limit.
func (s *Store) SaveUpload(ctx context.Context, name, contentType string, r io.Reader, maxBytes int64) (Upload, error) {
	if err := ctx.Err(); err != nil {
		return Upload{}, err
	}
	reader := r
	if maxBytes > 0 {
		reader = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return Upload{}, fmt.Errorf("memstore: read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Upload{}, fmt.Errorf("%w: limit %d bytes", ErrUploadTooLarge, maxBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	up := Upload{
		ID:          s.newID(),
		Name:        filepath.Base(name),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		CreatedAt:   s.now(),
	}
	s.uploads[up.ID] = up
	return up, nil
}

// GetUpload returns a stored file.
func (s *Store) GetUpload(ctx context.Context, id string) (Upload, error) {
	if err := ctx.Err(); err != nil {
		return Upload{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	up, ok := s.uploads[id]
	if !ok {
		return Upload{}, fmt.Errorf("%w: %q", ErrUploadNotFound, id)
	}
	return up, nil
}
