package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/services/assessment"
	"gitlab.com/toku-assess.net/internal/handlers"
	"gitlab.com/toku-assess.net/internal/handlers/challenges"
	"gitlab.com/toku-assess.net/internal/handlers/response"
	"gitlab.com/toku-assess.net/internal/handlers/submissions"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

type ServiceProvider struct {
	assessmentService assessment.IAssessmentService
	jwtService        primary.JWTService
	cache             challenges.CacheInvalidator
	metrics           http.Handler
	checks            map[string]HealthCheck
}

// NewServiceProvider collects what the routes need. cache, metrics and
// checks may be nil.
func NewServiceProvider(
	assessmentService assessment.IAssessmentService,
	jwtService primary.JWTService,
	cache challenges.CacheInvalidator,
	metrics http.Handler,
	checks map[string]HealthCheck,
) *ServiceProvider {
	return &ServiceProvider{
		assessmentService: assessmentService,
		jwtService:        jwtService,
		cache:             cache,
		metrics:           metrics,
		checks:            checks,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	cfg             *config.HttpConfig
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(cfg *config.HttpConfig, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		cfg:             cfg,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	if s.ServiceProvider.assessmentService == nil || s.ServiceProvider.jwtService == nil {
		return errors.New("http server needs an assessment service and a jwt service")
	}

	r := mux.NewRouter()
	mw := handlers.New(s.ServiceProvider.jwtService, s.logger)
	r.Use(mw.AccessLog)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.ServiceProvider.metrics != nil {
		r.Handle("/metrics", s.ServiceProvider.metrics).Methods(http.MethodGet)
	}

	// public catalog routes go first, the submission subrouter guards all of /api
	challenges.
		NewChallengeHandler(s.ServiceProvider.assessmentService, s.ServiceProvider.cache, s.logger).
		RegisterRoutes(r, mw)
	submissions.
		NewSubmissionHandler(s.ServiceProvider.assessmentService, s.logger).
		RegisterRoutes(r, mw)

	s.router = r
	return nil
}

// Handler exposes the router, Init must have been called
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr, "service", s.cfg.ServiceName)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
}

// Stop waits for in-flight requests until ctx is done
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(s.ServiceProvider.checks))
	for name := range s.ServiceProvider.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	report := map[string]string{}
	for _, name := range names {
		if err := s.ServiceProvider.checks[name](ctx); err != nil {
			s.logger.Warn("Health check failed", "dependency", name, "error", err)
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	response.WriteJSON(w, status, map[string]interface{}{
		"service": s.cfg.ServiceName,
		"checks":  report,
	})
}
