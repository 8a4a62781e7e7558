package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studyshare-backend-go/internal/services"
	"studyshare-backend-go/internal/store"
)

const materialNotFound = "資料が見つかりません"

func materialID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Server) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.Stores.Materials.List()
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, materials)
}

func (s *Server) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := materialID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, materialNotFound)
		return
	}
	material, err := s.Stores.Materials.Get(id)
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, material)
}

type materialUpdateRequest struct {
	Title       *string   `json:"title"`
	Subject     *string   `json:"subject"`
	Description *string   `json:"description"`
	Uploader    *string   `json:"uploader"`
	Tags        *[]string `json:"tags"`
}

func (s *Server) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := materialID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, materialNotFound)
		return
	}
	var req materialUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	material, err := s.Stores.Materials.Update(id, store.MaterialPatch{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Uploader:    req.Uploader,
		Tags:        req.Tags,
	})
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, material)
}

func (s *Server) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := materialID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, materialNotFound)
		return
	}
	material, err := s.Stores.Materials.Get(id)
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	if err := s.Stores.Materials.Delete(id); err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	// The record is the source of truth; a leftover binary is only logged.
	if err := services.RemoveStoredFile(s.Config.UploadDir, material.FilePath); err != nil {
		log.Printf("remove stored file %s: %v", material.FilePath, err)
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "削除しました"})
}

func (s *Server) RecordView(w http.ResponseWriter, r *http.Request) {
	id, ok := materialID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, materialNotFound)
		return
	}
	material, err := s.Stores.Materials.IncrementView(id)
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, material)
}

func (s *Server) RecordDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := materialID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, materialNotFound)
		return
	}
	material, err := s.Stores.Materials.IncrementDownload(id)
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, material)
}
