package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apphandlers "consultorio-backend/application/commands/handlers"
	"consultorio-backend/application/session"
	appsync "consultorio-backend/application/sync"
	"consultorio-backend/application/transfer"
	"consultorio-backend/infrastructure/config"
	"consultorio-backend/interfaces/http/rest/handlers"
	"consultorio-backend/interfaces/http/rest/middleware"
	"consultorio-backend/pkg/observability"
	"consultorio-backend/pkg/ratelimit"
)

// Router creates and configures the HTTP router
type Router struct {
	config    *config.Config
	snapshots *session.Store
	handlers  *apphandlers.Set
	sync      *appsync.Engine
	transfer  *transfer.Service
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	snapshots *session.Store,
	handlerSet *apphandlers.Set,
	syncEngine *appsync.Engine,
	transferService *transfer.Service,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:    cfg,
		snapshots: snapshots,
		handlers:  handlerSet,
		sync:      syncEngine,
		transfer:  transferService,
		metrics:   metrics,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.config.RateLimitEnabled {
		limiter := ratelimit.NewTokenBucketLimiter(rt.config.RateLimitBurst, rt.config.RateLimitRefill)
		router.Use(middleware.RateLimit(limiter))
	}

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check and metrics
	router.Get("/health", rt.healthCheck)
	router.Handle("/metrics", rt.metrics.Handler())

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		stateHandler := handlers.NewStateHandler(rt.snapshots, rt.handlers, rt.sync, rt.transfer, rt.logger)
		r.Get("/state", stateHandler.GetState)
		r.Get("/stats", stateHandler.GetStats)

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", stateHandler.SyncStatus)
			r.Post("/pull", stateHandler.SyncPull)
		})

		r.Post("/preferences/dark-mode/toggle", stateHandler.ToggleDarkMode)
		r.Get("/export", stateHandler.Export)
		r.Post("/import", stateHandler.Import)

		// Patient endpoints
		r.Route("/patients", func(r chi.Router) {
			patientHandler := handlers.NewPatientHandler(rt.handlers, rt.logger)
			r.Post("/", patientHandler.Create)
			r.Delete("/{patientID}", patientHandler.Delete)

			// Attendance endpoints
			r.Route("/{patientID}/attendance", func(r chi.Router) {
				attendanceHandler := handlers.NewAttendanceHandler(rt.handlers, rt.logger)
				r.Post("/", attendanceHandler.Create)
				r.Delete("/{recordID}", attendanceHandler.Delete)
				r.Post("/{recordID}/advance", attendanceHandler.Advance)
				r.Put("/{recordID}/status", attendanceHandler.SetStatus)
				r.Put("/{recordID}/amount", attendanceHandler.SetAmount)
				r.Put("/{recordID}/date", attendanceHandler.SetDate)
				r.Post("/{recordID}/paid/toggle", attendanceHandler.TogglePaid)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
