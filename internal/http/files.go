package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studyshare-backend-go/internal/services"
)

// ServeUpload delivers a stored binary by its stored name. Resolution only
// ever uses the base name, so the path cannot escape the uploads dir.
func (s *Server) ServeUpload(w http.ResponseWriter, r *http.Request) {
	path, err := services.ResolveStoredFile(s.Config.UploadDir, chi.URLParam(r, "fileName"))
	if err != nil {
		writeFailure(w, err, "ファイルが存在しません")
		return
	}
	http.ServeFile(w, r, path)
}
