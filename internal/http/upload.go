package httpapi

import (
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/services"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing;
// larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	// Generous ceiling for the whole body; the per-file limit is enforced
	// against the part size below, before anything reaches the uploads dir.
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		WriteError(w, http.StatusBadRequest, "アップロードの形式が不正です")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	subject := strings.TrimSpace(r.FormValue("subject"))
	description := r.FormValue("description")
	uploader := strings.TrimSpace(r.FormValue("uploader"))

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "ファイルが選択されていません")
		return
	}
	defer file.Close()

	if title == "" || subject == "" || uploader == "" {
		WriteError(w, http.StatusBadRequest, "必須項目が不足しています")
		return
	}
	if uploader == services.GuestUploader {
		WriteError(w, http.StatusUnauthorized, "アップロードにはログインが必要です")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !services.AllowedFileType(contentType) {
		WriteError(w, http.StatusBadRequest, "対応していないファイル形式です")
		return
	}
	if header.Size > services.MaxUploadBytes {
		WriteError(w, http.StatusBadRequest, "ファイルサイズは50MBまでです")
		return
	}

	now := time.Now().UTC()
	storedName := services.StoredFileName(header.Filename, now)
	size, err := services.SaveUpload(s.Config.UploadDir, storedName, file)
	if err != nil {
		log.Printf("save upload: %v", err)
		WriteError(w, http.StatusInternalServerError, "ファイルの保存に失敗しました")
		return
	}

	material := models.Material{
		Title:       title,
		Subject:     subject,
		Description: description,
		Uploader:    uploader,
		FileName:    services.DecodeFileName(filepath.Base(header.Filename)),
		FilePath:    "/uploads/" + storedName,
		FileSize:    size,
		FileType:    contentType,
		UploadDate:  now,
		Tags:        services.DeriveTags(subject),
		IPAddress:   resolveClientIP(r),
	}
	created, err := s.Stores.Materials.Create(material)
	if err != nil {
		// No record means no file either.
		_ = services.RemoveStoredFile(s.Config.UploadDir, storedName)
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, created)
}

// resolveClientIP prefers the first X-Forwarded-For hop so records stay
// meaningful behind a reverse proxy.
func resolveClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
