// Package router wires the HTTP surface: the public chat endpoints, health
// and metrics, and the JWT-protected admin lead endpoints.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/chat"
	httpmiddleware "github.com/LiventyGestion/Liventy-gestion-sub000/internal/http/middleware"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leads"
	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New assembles the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatHandler != nil {
		r.Route("/api/chat", func(r chi.Router) {
			r.Post("/", cfg.ChatHandler.Message)
			r.Get("/history", cfg.ChatHandler.History)
		})
	}

	if cfg.LeadsHandler != nil {
		r.Route("/admin/leads", func(r chi.Router) {
			r.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			r.Get("/", cfg.LeadsHandler.ListLeads)
			r.Get("/{id}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
