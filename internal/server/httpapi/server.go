package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pwisniewski/hipokrates/internal/logging"
)

// NewRouter wires the middleware stack and routes.
func NewRouter(h *Handler, allowedOrigins []string, staticDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Post("/login", h.Login)
	r.Get("/healthz", h.Health)

	// Session-protected catalog and payment mutations.
	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/catalog", h.GetCatalog)
		r.Post("/catalog/search", h.SearchCatalog)
		r.Get("/catalog/edit", h.EditCatalog)
		r.Post("/catalog/save", h.SaveCatalog)
		r.Post("/payments", h.CreatePayment)
	})

	r.Get("/payments/stats/today", h.PaymentStatsToday)
	r.Get("/payments/by-date", h.PaymentsByDate)

	mountStatic(r, staticDir)

	return r
}

// mountStatic serves the frontend from staticDir when it exists, falling
// back to index.html for unknown paths so client-side routing works.
func mountStatic(r chi.Router, staticDir string) {
	if staticDir == "" {
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("hipokrates API\n"))
		})
		return
	}

	fileServer := http.FileServer(http.Dir(staticDir))
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		full := filepath.Join(staticDir, filepath.Clean(req.URL.Path))
		if _, err := os.Stat(full); os.IsNotExist(err) {
			http.ServeFile(w, req, filepath.Join(staticDir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, req)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Server runs the HTTP endpoint with graceful shutdown.
type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, handler http.Handler, logger logging.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		logger:  logger.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
