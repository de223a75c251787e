package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"toolrental-backend/internal/logger"

	"github.com/google/uuid"
)

// LocalStorage keeps blobs on the local filesystem.
type LocalStorage struct {
	imagesDir string
}

// NewLocalStorage creates the images directory under uploadsDir if needed.
func NewLocalStorage(uploadsDir string) (*LocalStorage, error) {
	imagesDir := filepath.Join(uploadsDir, "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &LocalStorage{imagesDir: imagesDir}, nil
}

// Store writes data to a uuid-named file keeping the extension of name.
func (s *LocalStorage) Store(ctx context.Context, data io.Reader, name string) (string, error) {
	logger.ExternalServiceCall("blobstore", "Store", "name", name)
	ref := uuid.New().String() + strings.ToLower(filepath.Ext(name))

	file, err := os.Create(filepath.Join(s.imagesDir, ref))
	if err != nil {
		logger.ExternalServiceResult("blobstore", "Store", err)
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		_ = os.Remove(file.Name())
		logger.ExternalServiceResult("blobstore", "Store", err)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	logger.ExternalServiceResult("blobstore", "Store", nil, "ref", ref)
	return ref, nil
}

func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// path confines ref to the images directory.
func (s *LocalStorage) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.imagesDir, ref), nil
}
