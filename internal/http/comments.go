package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"studyshare-backend-go/internal/models"
)

func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	var filter *int64
	if raw := r.URL.Query().Get("materialId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "materialIdが不正です")
			return
		}
		filter = &id
	}
	comments, err := s.Stores.Comments.List(filter)
	if err != nil {
		writeFailure(w, err, "コメントが見つかりません")
		return
	}
	WriteJSON(w, http.StatusOK, comments)
}

type commentRequest struct {
	MaterialID int64   `json:"materialId"`
	Author     string  `json:"author"`
	Text       string  `json:"text"`
	Rating     float64 `json:"rating"`
}

func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	if req.MaterialID == 0 || strings.TrimSpace(req.Author) == "" || strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "必須項目が不足しています")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		WriteError(w, http.StatusBadRequest, "評価は0から5の間で指定してください")
		return
	}
	created, err := s.Stores.Comments.Create(models.Comment{
		MaterialID: req.MaterialID,
		Author:     req.Author,
		Text:       req.Text,
		Rating:     req.Rating,
	})
	if err != nil {
		writeFailure(w, err, "コメントが見つかりません")
		return
	}
	WriteJSON(w, http.StatusOK, created)
}
