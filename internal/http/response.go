package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studyshare-backend-go/internal/services"
	"studyshare-backend-go/internal/store"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// writeFailure maps service and store errors onto the response taxonomy:
// ServiceError statuses pass through, unknown ids become 404, anything
// else is a logged 500 with a generic message.
func writeFailure(w http.ResponseWriter, err error, notFoundMessage string) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteError(w, svcErr.Status, svcErr.Message)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	log.Printf("internal error: %v", err)
	WriteError(w, http.StatusInternalServerError, "サーバーエラー")
}
