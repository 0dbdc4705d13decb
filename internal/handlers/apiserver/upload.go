package apiserver

import (
	"errors"
	"fmt"
	"net/http"

	"facegram/internal/config"
	"facegram/internal/storage"
)

const defaultMaxMemory = 32 << 20 // 32 MB max memory for multipart forms

// allowedPhotoTypes lists the accepted MIME types for photo uploads.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// storeUploadedPhoto reads the photo from the multipart field and stores it.
// One file per request, jpeg or png only, bounded by the configured ceiling.
// A non-nil error string message is safe to return to the client.
func storeUploadedPhoto(w http.ResponseWriter, r *http.Request, field string, fileStore storage.FileStore, cfg config.StorageConfig) (*storage.FileInfo, int, error) {
	maxUploadSize := cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		if err.Error() == "http: request body too large" {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("uploaded file is too large, max %d MB", maxUploadSize>>20)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to parse form: %v", err)
	}

	file, handler, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, http.StatusBadRequest, fmt.Errorf("request is missing the '%s' field", field)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read file: %v", err)
	}
	defer file.Close()

	mimeType := handler.Header.Get("Content-Type")
	if !allowedPhotoTypes[mimeType] {
		return nil, http.StatusBadRequest, errors.New("only jpeg and png photos are accepted")
	}

	if handler.Size > maxUploadSize {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("uploaded file is too large, max %d MB", maxUploadSize>>20)
	}

	fileInfo, err := fileStore.Upload(r.Context(), file, handler.Size, handler.Filename, mimeType)
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to store file")
	}
	return fileInfo, http.StatusOK, nil
}
