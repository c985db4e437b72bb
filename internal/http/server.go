package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pawbridge/pawbridge-api/internal/config"
	"github.com/pawbridge/pawbridge-api/internal/repository"
	"github.com/pawbridge/pawbridge-api/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	repo    *repository.Repository
	logger  *log.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, logger *log.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:    cfg,
		store:  st,
		repo:   repo,
		logger: logger,
		router: r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Post("/auth/login", s.handleLogin)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleRegister)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Put("/", s.handleUpdateUser)
			r.Delete("/", s.requireAdmin(s.handleDeleteUser))
			r.Post("/ban", s.requireAdmin(s.handleBanUser))
			r.Get("/role", s.handleGetUserRole)
			r.Get("/pets", s.handleListPets)
			r.Get("/appointments", s.handleListOwnerAppointments)
			r.Get("/provider-appointments", s.handleListProviderAppointments)
			r.Get("/availability", s.handleListProviderAvailability)
			r.Get("/conversations", s.handleListConversations)
			r.Get("/conversations/{otherId}", s.handleChat)
			r.Get("/unread", s.handleUnreadCount)
			r.Get("/reviews", s.handleReviewsAboutUser)
			r.Get("/reviews-written", s.handleReviewsByUser)
			r.Get("/provider-reviews", s.handleReviewsForProvider)
			r.Get("/owner-reviews", s.handleReviewsForOwner)
			r.Get("/reviewed-appointments", s.handleReviewedAppointments)
			r.Get("/reports", s.handleListReporterReports)
		})
	})

	s.router.Get("/pets/{id}/owner", s.handlePetOwner)

	s.router.Route("/appointments", func(r chi.Router) {
		r.Post("/", s.handleCreateAppointment)
		r.Get("/", s.requireAdmin(s.handleListAllAppointments))
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/status", s.handleUpdateAppointmentStatus)
			r.Delete("/", s.handleDeleteAppointment)
		})
	})

	s.router.Route("/availability", func(r chi.Router) {
		r.Post("/", s.handleCreateAvailability)
		r.Get("/", s.handleListAvailability)
		r.Delete("/{id}", s.handleDeleteAvailability)
	})

	s.router.Post("/messages", s.handleSendMessage)
	s.router.Post("/messages/{id}/read", s.handleMarkMessageRead)

	s.router.Route("/reviews", func(r chi.Router) {
		r.Post("/", s.handleCreateReview)
		r.Get("/", s.requireAdmin(s.handleListAllReviews))
		r.Delete("/{id}", s.requireAdmin(s.handleDeleteReview))
	})

	s.router.Route("/reports", func(r chi.Router) {
		r.Post("/", s.handleCreateReport)
		r.Get("/", s.requireAdmin(s.handleListAllReports))
		r.Patch("/{id}/status", s.requireAdmin(s.handleUpdateReportStatus))
	})
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the chi router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
