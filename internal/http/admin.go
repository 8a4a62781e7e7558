package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"studyshare-backend-go/internal/services"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminProfile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type adminLoginResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Admin     adminProfile `json:"admin"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
}

func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "パスワードを入力してください",
		})
		return
	}
	account, err := services.AuthenticateAdmin(s.Stores.Admin, s.Tokens, req.Password)
	if err != nil {
		var svcErr services.ServiceError
		if errors.As(err, &svcErr) {
			WriteJSON(w, svcErr.Status, map[string]interface{}{
				"success": false,
				"message": svcErr.Message,
			})
			return
		}
		writeFailure(w, err, "管理者アカウントが見つかりません")
		return
	}
	token, expiresAt, err := s.Tokens.CreateAdminToken(account.Username)
	if err != nil {
		writeFailure(w, err, "管理者アカウントが見つかりません")
		return
	}
	WriteJSON(w, http.StatusOK, adminLoginResponse{
		Success: true,
		Message: "ログイン成功",
		Admin: adminProfile{
			Username:    account.Username,
			DisplayName: account.DisplayName,
		},
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (s *Server) DashboardStats(w http.ResponseWriter, r *http.Request) {
	materials, err := s.Stores.Materials.List()
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, services.BuildDashboardStats(materials))
}

type storedFileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func (s *Server) ServerStatus(w http.ResponseWriter, r *http.Request) {
	materials, err := s.Stores.Materials.List()
	if err != nil {
		writeFailure(w, err, materialNotFound)
		return
	}
	account, err := services.EnsureAdminAccount(s.Stores.Admin, s.Tokens)
	if err != nil {
		writeFailure(w, err, "管理者アカウントが見つかりません")
		return
	}

	files := []storedFileInfo{}
	var totalSize int64
	entries, _ := os.ReadDir(s.Config.UploadDir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, storedFileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
		totalSize += info.Size()
	}

	backend := "jsonfile"
	if s.Config.DatabaseURL != "" {
		backend = "postgres"
	}
	sample, _ := services.CaptureMetrics(s.Config.UploadDir)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"serverStatus": "running",
		"timestamp":    time.Now().UTC(),
		"database": map[string]interface{}{
			"backend":        backend,
			"materialsCount": len(materials),
		},
		"storage": map[string]interface{}{
			"uploadDirectory": filepath.Clean(s.Config.UploadDir),
			"fileCount":       len(files),
			"totalSize":       totalSize,
			"files":           files,
		},
		"adminAccount": map[string]interface{}{
			"username":           account.Username,
			"displayName":        account.DisplayName,
			"createdAt":          account.CreatedAt,
			"lastPasswordChange": account.LastPasswordChange,
		},
		"system": sample,
	})
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) ChangeAdminPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "リクエストが不正です")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		WriteError(w, http.StatusBadRequest, "必須項目が不足しています")
		return
	}
	if err := services.ChangeAdminPassword(s.Stores.Admin, s.Tokens, req.CurrentPassword, req.NewPassword); err != nil {
		writeFailure(w, err, "管理者アカウントが見つかりません")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "パスワードを変更しました",
	})
}
