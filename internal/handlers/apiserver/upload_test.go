package apiserver

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"facegram/internal/config"
	"facegram/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFileStore accepts every upload without touching disk.
type stubFileStore struct {
	uploads int
}

func (s *stubFileStore) Upload(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*storage.FileInfo, error) {
	s.uploads++
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	return &storage.FileInfo{Name: "stored-" + fileName, Size: fileSize, MimeType: mimeType, FileName: fileName}, nil
}

func (s *stubFileStore) Delete(ctx context.Context, storedName string) error { return nil }

func multipartPhotoRequest(t *testing.T, field, fileName, mimeType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestStoreUploadedPhoto(t *testing.T) {
	store := &stubFileStore{}
	cfg := config.StorageConfig{MaxFileSizeMB: 5}

	req := multipartPhotoRequest(t, "image", "holiday.jpg", "image/jpeg", []byte("jpeg bytes"))
	rec := httptest.NewRecorder()

	info, status, err := storeUploadedPhoto(rec, req, "image", store, cfg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "stored-holiday.jpg", info.Name)
	assert.Equal(t, "image/jpeg", info.MimeType)
	assert.Equal(t, 1, store.uploads)
}

func TestStoreUploadedPhotoRejectsNonImage(t *testing.T) {
	store := &stubFileStore{}
	cfg := config.StorageConfig{MaxFileSizeMB: 5}

	req := multipartPhotoRequest(t, "image", "notes.txt", "text/plain", []byte("plain text"))
	rec := httptest.NewRecorder()

	_, status, err := storeUploadedPhoto(rec, req, "image", store, cfg)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 0, store.uploads)
}

func TestStoreUploadedPhotoMissingField(t *testing.T) {
	store := &stubFileStore{}
	cfg := config.StorageConfig{MaxFileSizeMB: 5}

	req := multipartPhotoRequest(t, "attachment", "holiday.jpg", "image/jpeg", []byte("jpeg bytes"))
	rec := httptest.NewRecorder()

	_, status, err := storeUploadedPhoto(rec, req, "image", store, cfg)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}
