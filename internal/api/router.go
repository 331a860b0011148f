package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System   *service.SystemService
	Account  *service.AccountService
	Holding  *service.HoldingService
	Rights   *service.RightsService
	Batch    *service.BatchService
	GainLoss *service.GainLossService
	Settings *service.SettingsService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.NewCORS(cfg.CORS))

	systemHandler := handlers.NewSystemHandler(services.System)
	accountHandler := handlers.NewAccountHandler(services.Account, services.Batch)
	holdingHandler := handlers.NewHoldingHandler(services.Holding, services.Rights, services.GainLoss)
	settingsHandler := handlers.NewSettingsHandler(services.Settings)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/", accountHandler.Accounts)
			r.Post("/", accountHandler.CreateAccount)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.RequireUUIDParam("uuid"))
				r.Get("/", accountHandler.GetAccount)
				r.Delete("/", accountHandler.DeleteAccount)
				r.Post("/rights", accountHandler.ProcessRights)
			})
		})

		r.Route("/holding", func(r chi.Router) {
			r.Get("/", holdingHandler.Holdings)
			r.Post("/", holdingHandler.CreateHolding)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.RequireUUIDParam("uuid"))
				r.Get("/", holdingHandler.GetHolding)
				r.Delete("/", holdingHandler.DeleteHolding)
				r.Post("/rights", holdingHandler.ProcessRights)
				r.Post("/price", holdingHandler.RefreshPrice)
				r.Get("/gain-loss", holdingHandler.GainLoss)
				r.Get("/rights-summary", holdingHandler.RightsSummary)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/finmind-token", settingsHandler.FinMindTokenStatus)
			r.Put("/finmind-token", settingsHandler.UpdateFinMindToken)
		})
	})

	return r
}
