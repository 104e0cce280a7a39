package rest

import (
	"context"
	"net/http"
	"time"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// NewRouter собирает все маршруты сервиса; вынесен отдельно для тестов
func NewRouter(
	cfg ServerConfig,
	listings *ListingsHandler,
	notifications *NotificationsHandler,
	validator port.TokenValidatorPort,
	tracker SessionTracker,
	baseLogger port.LoggerPort,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", traceHeader},
		ExposedHeaders:   []string{traceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// публичные маршруты
		r.Get("/listings", listings.SearchListings)
		r.Get("/listings/{listingID}", listings.GetListing)
		r.Get("/filters/options", listings.GetFilterOptions)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(validator, tracker))

			r.Get("/notifications", notifications.GetNotifications)
			r.Put("/notifications/{notificationID}/read", notifications.MarkRead)
			r.Get("/notifications/subscribe", notifications.Subscribe)
			r.Post("/session/logout", notifications.SignOut)

			r.With(RequireRole(domain.RoleAdmin)).Post("/listings/refresh", listings.RefreshListings)
		})
	})

	return r
}

func NewServer(cfg ServerConfig, handler http.Handler, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: baseLogger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST server", port.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST server...", nil)
	return s.httpServer.Shutdown(ctx)
}
