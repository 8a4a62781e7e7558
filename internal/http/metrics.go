package httpapi

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"studyshare-backend-go/internal/services"
)

var metricsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "limitが不正です")
			return
		}
		limit = parsed
	}
	WriteJSON(w, http.StatusOK, s.Hub.History(limit))
}

// MetricsSocket streams live samples to the admin dashboard. Browsers
// cannot set headers on websocket requests, so the token rides in the
// query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	token, claims, err := s.Tokens.ParseToken(tokenStr)
	if err != nil || !token.Valid || !services.IsAdminToken(claims) {
		WriteError(w, http.StatusUnauthorized, "認証が必要です")
		return
	}
	conn, err := metricsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("metrics upgrade: %v", err)
		return
	}
	s.Hub.Add(conn)
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
