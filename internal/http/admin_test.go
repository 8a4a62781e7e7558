package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/services"
)

func adminToken(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/admin/login", map[string]string{
		"password": services.DefaultAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp adminLoginResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAdminLogin(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/admin/login", map[string]string{
		"password": services.DefaultAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp adminLoginResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "admin", resp.Admin.Username)
	assert.Equal(t, "管理者", resp.Admin.DisplayName)
	assert.NotEmpty(t, resp.Token)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	rec = doJSON(t, router, http.MethodPost, "/api/admin/login", map[string]string{
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var failed map[string]interface{}
	decodeBody(t, rec, &failed)
	assert.Equal(t, false, failed["success"])
	assert.Equal(t, "パスワードが違います", failed["message"])

	rec = doJSON(t, router, http.MethodPost, "/api/admin/login", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/admin/dashboard/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/admin/dashboard/stats", nil, bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := adminToken(t, router)
	rec = doJSON(t, router, http.MethodGet, "/api/admin/dashboard/stats", nil, bearer(token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminDashboardStats(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)

	token := adminToken(t, router)
	rec = doJSON(t, router, http.MethodGet, "/api/admin/dashboard/stats", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats services.DashboardStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 1, stats.TotalMaterials)
	assert.Equal(t, map[string]int{"Math": 1}, stats.SubjectStats)
	assert.Equal(t, map[string]int{"PDF": 1}, stats.FileTypeStats)
	require.Len(t, stats.RecentUploads, 1)
	assert.Equal(t, "Midterm", stats.RecentUploads[0].Title)
}

func TestAdminServerStatus(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", []byte("abc")))
	require.Equal(t, http.StatusOK, rec.Code)

	token := adminToken(t, router)
	rec2 := doJSON(t, router, http.MethodGet, "/api/admin/server/status", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec2.Code)

	var status map[string]interface{}
	decodeBody(t, rec2, &status)
	assert.Equal(t, "running", status["serverStatus"])

	database := status["database"].(map[string]interface{})
	assert.Equal(t, "jsonfile", database["backend"])
	assert.Equal(t, 1.0, database["materialsCount"])

	storage := status["storage"].(map[string]interface{})
	assert.Equal(t, 1.0, storage["fileCount"])
	assert.Equal(t, 3.0, storage["totalSize"])
}

func TestAdminDeleteMaterial(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.Material
	decodeBody(t, rec, &created)

	path := fmt.Sprintf("/api/admin/materials/%d", created.ID)
	rec2 := doJSON(t, router, http.MethodDelete, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)

	token := adminToken(t, router)
	rec2 = doJSON(t, router, http.MethodDelete, path, nil, bearer(token))
	require.Equal(t, http.StatusOK, rec2.Code)

	rec2 = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/materials/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestAdminChangePassword(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()
	token := adminToken(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/settings/password", map[string]string{
		"currentPassword": "wrong", "newPassword": "newpassword",
	}, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/settings/password", map[string]string{
		"currentPassword": services.DefaultAdminPassword, "newPassword": "short",
	}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/settings/password", map[string]string{
		"currentPassword": services.DefaultAdminPassword, "newPassword": "newpassword",
	}, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/login", map[string]string{
		"password": services.DefaultAdminPassword,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/login", map[string]string{
		"password": "newpassword",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsHistory(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	server.Hub.Broadcast(services.MetricSample{CapturedAt: time.Now().UTC()})
	server.Hub.Broadcast(services.MetricSample{CapturedAt: time.Now().UTC()})

	rec := doJSON(t, router, http.MethodGet, "/api/admin/metrics/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := adminToken(t, router)
	rec = doJSON(t, router, http.MethodGet, "/api/admin/metrics/history?limit=1", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var samples []services.MetricSample
	decodeBody(t, rec, &samples)
	assert.Len(t, samples, 1)
}

func TestOCR(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/ocr", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/ocr", map[string]string{
		"filePath": "/uploads/missing.pdf",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, uploadRequest(t, uploadFields(), "notes.pdf", "application/pdf", []byte("x")))
	require.Equal(t, http.StatusOK, rec2.Code)
	var created models.Material
	decodeBody(t, rec2, &created)

	// No OCR engine configured in tests.
	rec = doJSON(t, router, http.MethodPost, "/api/ocr", map[string]string{
		"filePath": created.FilePath,
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServeUpload_UnknownFile(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodGet, "/uploads/missing.pdf", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
