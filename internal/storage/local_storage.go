package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"facegram/internal/config"

	"github.com/google/uuid"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string `json:"url"`
	Name     string `json:"name"` // stored file name, the identifier for Delete
	Path     string `json:"-"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"` // original upload name
}

// FileStore defines the interface for photo storage.
type FileStore interface {
	Upload(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
	// Delete removes a stored file by its stored name. Deleting a missing file
	// is not an error.
	Delete(ctx context.Context, storedName string) error
}

// LocalFileStore implements FileStore on the local filesystem.
type LocalFileStore struct {
	basePath string // root directory for stored files, e.g. "./uploads"
	baseURL  string // URL prefix for serving stored files, e.g. "/uploads"
}

// NewLocalFileStore creates a LocalFileStore, ensuring the base directory exists.
func NewLocalFileStore(cfg config.StorageConfig, baseURL string) (FileStore, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", cfg.LocalPath, err)
	}
	return &LocalFileStore{
		basePath: cfg.LocalPath,
		baseURL:  baseURL,
	}, nil
}

// Upload saves the file under a unique name, keeping the original extension.
func (s *LocalFileStore) Upload(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		// No extension on the upload; infer one from the MIME type.
		extensions, _ := mime.ExtensionsByType(mimeType)
		if len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	uniqueFileName := uuid.New().String() + ext

	dstPath := filepath.Join(s.basePath, uniqueFileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file '%s': %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("file size mismatch: expected %d, wrote %d", fileSize, written)
	}

	fileURL := strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(uniqueFileName)

	return &FileInfo{
		URL:      fileURL,
		Name:     uniqueFileName,
		Path:     dstPath,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// Delete removes a stored file. A missing file is treated as already deleted.
func (s *LocalFileStore) Delete(ctx context.Context, storedName string) error {
	if storedName == "" {
		return nil
	}
	path := filepath.Join(s.basePath, filepath.Base(storedName))
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored file '%s': %w", storedName, err)
	}
	return nil
}
