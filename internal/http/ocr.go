package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"studyshare-backend-go/internal/services"
)

type ocrRequest struct {
	FilePath string `json:"filePath"`
}

func (s *Server) RunOCR(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		WriteError(w, http.StatusBadRequest, "filePathが必要です")
		return
	}
	path, err := services.ResolveStoredFile(s.Config.UploadDir, req.FilePath)
	if err != nil {
		writeFailure(w, err, "ファイルが存在しません")
		return
	}
	text, err := s.OCR.Recognize(path)
	if err != nil {
		writeFailure(w, err, "ファイルが存在しません")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}
