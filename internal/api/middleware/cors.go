package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
)

// NewCORS returns the CORS middleware for the configured frontend origins.
// A "*" origin disables credentials, browsers reject that combination.
func NewCORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           int(cfg.MaxAge.Seconds()),
	})
}
