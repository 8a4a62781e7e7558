package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/store"
)

const userNotFound = "ユーザーが見つかりません"

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Stores.Users.List()
	if err != nil {
		writeFailure(w, err, userNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Stores.Users.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err, userNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

type userCreateRequest struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
	Bio          string `json:"bio"`
	Role         string `json:"role"`
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Nickname) == "" {
		WriteError(w, http.StatusBadRequest, "必須項目が不足しています")
		return
	}
	if _, err := s.Stores.Users.Get(req.ID); err == nil {
		WriteError(w, http.StatusBadRequest, "このIDは既に使用されています")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeFailure(w, err, userNotFound)
		return
	}
	role := req.Role
	if role == "" {
		role = "student"
	}
	created, err := s.Stores.Users.Create(models.User{
		ID:           req.ID,
		Nickname:     req.Nickname,
		Email:        req.Email,
		ProfileImage: req.ProfileImage,
		Bio:          req.Bio,
		Role:         role,
	})
	if err != nil {
		writeFailure(w, err, userNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, created)
}

type userUpdateRequest struct {
	Nickname     *string `json:"nickname"`
	Email        *string `json:"email"`
	ProfileImage *string `json:"profileImage"`
	Bio          *string `json:"bio"`
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	user, err := s.Stores.Users.Update(chi.URLParam(r, "id"), store.UserPatch{
		Nickname:     req.Nickname,
		Email:        req.Email,
		ProfileImage: req.ProfileImage,
		Bio:          req.Bio,
	})
	if err != nil {
		writeFailure(w, err, userNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Stores.Users.Delete(chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err, userNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "削除しました"})
}
