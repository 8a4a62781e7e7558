package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"studyshare-backend-go/internal/config"
	"studyshare-backend-go/internal/services"
	"studyshare-backend-go/internal/store"
)

// Server wires the stores and services into the HTTP surface.
type Server struct {
	Config config.Config
	Stores store.Stores
	Tokens services.TokenService
	Hub    *services.MetricsHub
	OCR    *services.OCREngine
}

func NewServer(cfg config.Config, stores store.Stores, hub *services.MetricsHub) *Server {
	return &Server{
		Config: cfg,
		Stores: stores,
		Tokens: services.TokenService{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
			TTL:    time.Duration(cfg.AdminTokenTTLSeconds) * time.Second,
		},
		Hub: hub,
		OCR: services.NewOCREngine(cfg.OCREndpoint, time.Duration(cfg.OCRTimeoutSeconds)*time.Second),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.Upload)

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", s.ListMaterials)
			r.Get("/{id}", s.GetMaterial)
			r.Put("/{id}", s.UpdateMaterial)
			r.Delete("/{id}", s.DeleteMaterial)
			r.Post("/{id}/view", s.RecordView)
			r.Post("/{id}/download", s.RecordDownload)
		})

		r.Get("/comments", s.ListComments)
		r.Post("/comments", s.CreateComment)

		r.Get("/ratings", s.ListRatings)
		r.Post("/ratings", s.UpsertRating)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.ListUsers)
			r.Post("/", s.CreateUser)
			r.Get("/{id}", s.GetUser)
			r.Put("/{id}", s.UpdateUser)
			r.Delete("/{id}", s.DeleteUser)
		})

		r.Post("/ocr", s.RunOCR)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.AdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(WithAdminAuth(s.Tokens))
				r.Get("/dashboard/stats", s.DashboardStats)
				r.Get("/server/status", s.ServerStatus)
				r.Get("/metrics/history", s.MetricsHistory)
				r.Put("/materials/{id}", s.UpdateMaterial)
				r.Delete("/materials/{id}", s.DeleteMaterial)
				r.Post("/settings/password", s.ChangeAdminPassword)
			})
		})
	})

	r.Get("/uploads/{fileName}", s.ServeUpload)
	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
