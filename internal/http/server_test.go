package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyshare-backend-go/internal/config"
	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/services"
	"studyshare-backend-go/internal/store/jsonfile"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	stores, err := jsonfile.Open(filepath.Join(dir, "data"))
	require.NoError(t, err)
	cfg := config.Config{
		Port:                 "0",
		DataDir:              filepath.Join(dir, "data"),
		UploadDir:            filepath.Join(dir, "uploads"),
		JWTSecret:            "test-secret",
		JWTIssuer:            "studyshare",
		AdminTokenTTLSeconds: 3600,
		MetricsHistorySize:   16,
	}
	return NewServer(cfg, stores, services.NewMetricsHub(16))
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func uploadRequest(t *testing.T, fields map[string]string, fileName, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func uploadFields() map[string]string {
	return map[string]string{
		"title":    "Midterm",
		"subject":  "Math",
		"uploader": "alice",
	}
}

func TestUploadListDeleteScenario(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()
	content := []byte("%PDF-1.4 test content")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", content))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created models.Material
	decodeBody(t, rec, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Midterm", created.Title)
	assert.Equal(t, "Math", created.Subject)
	assert.Equal(t, "alice", created.Uploader)
	assert.Equal(t, "notes.pdf", created.FileName)
	assert.Equal(t, "application/pdf", created.FileType)
	assert.Equal(t, int64(len(content)), created.FileSize)
	assert.Zero(t, created.ViewCount)
	assert.Zero(t, created.DownloadCount)
	require.True(t, len(created.FilePath) > len("/uploads/"))

	storedName := filepath.Base(created.FilePath)
	_, err := os.Stat(filepath.Join(server.Config.UploadDir, storedName))
	require.NoError(t, err)

	rec = doJSON(t, router, http.MethodGet, "/api/materials", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Material
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/uploads/%s", storedName), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/materials/%d", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/materials", nil, nil)
	decodeBody(t, rec, &listed)
	assert.Empty(t, listed)

	_, err = os.Stat(filepath.Join(server.Config.UploadDir, storedName))
	assert.True(t, os.IsNotExist(err))
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "virus.exe", "application/octet-stream", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No record, no orphaned file.
	rec = doJSON(t, router, http.MethodGet, "/api/materials", nil, nil)
	var listed []models.Material
	decodeBody(t, rec, &listed)
	assert.Empty(t, listed)

	entries, err := os.ReadDir(server.Config.UploadDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "big.pdf", "application/pdf", make([]byte, services.MaxUploadBytes+1)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/materials", nil, nil)
	var listed []models.Material
	decodeBody(t, rec, &listed)
	assert.Empty(t, listed)

	entries, err := os.ReadDir(server.Config.UploadDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestUpload_RejectsGuestUploader(t *testing.T) {
	server := newTestServer(t)
	fields := uploadFields()
	fields["uploader"] = services.GuestUploader

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, uploadRequest(t, fields, "notes.pdf", "application/pdf", []byte("x")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_RejectsMissingFields(t *testing.T) {
	server := newTestServer(t)
	fields := uploadFields()
	delete(fields, "subject")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, uploadRequest(t, fields, "notes.pdf", "application/pdf", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_RepairsMojibakeFileName(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	misread := make([]rune, 0)
	for _, b := range []byte("数学ノート.pdf") {
		misread = append(misread, rune(b))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), string(misread), "application/pdf", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)

	var created models.Material
	decodeBody(t, rec, &created)
	assert.Equal(t, "数学ノート.pdf", created.FileName)
}

func TestGetMaterial_UnknownID(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/materials/999999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/materials/not-a-number", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMaterial_PartialPatch(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.Material
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/materials/%d", created.ID), map[string]string{"title": "Final"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Material
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "Math", updated.Subject)
	assert.Equal(t, "alice", updated.Uploader)
	assert.NotNil(t, updated.UpdatedDate)
}

func TestMaterialCounters(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.Material
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/materials/%d/view", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after models.Material
	decodeBody(t, rec, &after)
	assert.Equal(t, int64(1), after.ViewCount)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/materials/%d/download", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &after)
	assert.Equal(t, int64(1), after.DownloadCount)
}

func TestRatings_UpsertAndStats(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/ratings", map[string]interface{}{
		"materialId": 10, "userId": "alice", "rating": 5,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var first models.Rating
	decodeBody(t, rec, &first)

	rec = doJSON(t, router, http.MethodPost, "/api/ratings", map[string]interface{}{
		"materialId": 10, "userId": "alice", "rating": 2,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second models.Rating
	decodeBody(t, rec, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2.0, second.Rating)

	rec = doJSON(t, router, http.MethodGet, "/api/ratings?materialId=10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats services.RatingStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 2.0, stats.Average)

	rec = doJSON(t, router, http.MethodGet, "/api/ratings?materialId=999", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &stats)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.Average)
}

func TestRatings_RejectsIncomplete(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/ratings", map[string]interface{}{
		"materialId": 10, "rating": 5,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/ratings", map[string]interface{}{
		"materialId": 10, "userId": "alice", "rating": 9,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComments_CreateAndFilter(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/comments", map[string]interface{}{
		"materialId": 1, "author": "alice", "text": "great notes", "rating": 4,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.Comment
	decodeBody(t, rec, &created)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	rec = doJSON(t, router, http.MethodPost, "/api/comments", map[string]interface{}{
		"materialId": 2, "author": "bob", "text": "thanks",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/comments?materialId=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Comment
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "alice", listed[0].Author)

	rec = doJSON(t, router, http.MethodPost, "/api/comments", map[string]interface{}{
		"materialId": 1, "author": "", "text": "x",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsers_DefaultRoleIsStudent(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"id": "u2", "nickname": "Bob",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.User
	decodeBody(t, rec, &created)
	assert.Equal(t, "student", created.Role)

	rec = doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"id": "u3", "nickname": "Ted", "role": "moderator",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &created)
	assert.Equal(t, "moderator", created.Role)
}

func TestUsers_CRUD(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"id": "u1", "nickname": "Alice", "email": "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.User
	decodeBody(t, rec, &created)
	assert.Equal(t, "student", created.Role)

	rec = doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"id": "u1", "nickname": "Copycat",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/users/u1", map[string]string{"bio": "hello"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	decodeBody(t, rec, &updated)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "Alice", updated.Nickname)

	rec = doJSON(t, router, http.MethodDelete, "/api/users/u1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/u1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
