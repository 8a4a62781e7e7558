package httpapi

import (
	"net/http"
	"strings"

	"studyshare-backend-go/internal/services"
)

// WithAdminAuth gates the back-office routes on a valid admin token. The
// original client only kept an isAdmin flag in local storage; here the
// server validates a Bearer token issued by /api/admin/login.
func WithAdminAuth(tokens services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "認証が必要です")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			token, claims, err := tokens.ParseToken(tokenStr)
			if err != nil || !token.Valid || !services.IsAdminToken(claims) {
				WriteError(w, http.StatusUnauthorized, "認証が必要です")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
