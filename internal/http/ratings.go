package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"studyshare-backend-go/internal/services"
)

// ListRatings returns aggregate stats when materialId is given, otherwise
// the raw rating rows.
func (s *Server) ListRatings(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("materialId")
	if raw == "" {
		ratings, err := s.Stores.Ratings.List(nil)
		if err != nil {
			writeFailure(w, err, "評価が見つかりません")
			return
		}
		WriteJSON(w, http.StatusOK, ratings)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "materialIdが不正です")
		return
	}
	ratings, err := s.Stores.Ratings.List(&id)
	if err != nil {
		writeFailure(w, err, "評価が見つかりません")
		return
	}
	WriteJSON(w, http.StatusOK, services.BuildRatingStats(ratings))
}

type ratingRequest struct {
	MaterialID int64   `json:"materialId"`
	UserID     string  `json:"userId"`
	Rating     float64 `json:"rating"`
}

func (s *Server) UpsertRating(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	if req.MaterialID == 0 || strings.TrimSpace(req.UserID) == "" || req.Rating == 0 {
		WriteError(w, http.StatusBadRequest, "必須項目が不足しています")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		WriteError(w, http.StatusBadRequest, "評価は0から5の間で指定してください")
		return
	}
	saved, err := s.Stores.Ratings.Upsert(req.MaterialID, req.UserID, req.Rating)
	if err != nil {
		writeFailure(w, err, "評価が見つかりません")
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}
