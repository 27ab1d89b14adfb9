package rest

import (
	"net/http"

	"braindump/application/commands/bus"
	querybus "braindump/application/queries/bus"
	"braindump/interfaces/http/rest/handlers"
	"braindump/interfaces/http/rest/middleware"
	"braindump/pkg/auth"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the transport-level settings
type RouterConfig struct {
	AllowedOrigins []string
	EnableCORS     bool
	EnableMetrics  bool
	// AuthDisabled trusts X-User-ID instead of a bearer token
	AuthDisabled bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	validator  *auth.JWTValidator
	metrics    *observability.Collector
	errors     *pkgerrors.ErrorHandler
	cfg        RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance. validator may be nil only when
// cfg.AuthDisabled is set.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	errorHandler *pkgerrors.ErrorHandler,
	cfg RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		validator:  validator,
		metrics:    metrics,
		errors:     errorHandler,
		cfg:        cfg,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		origins := rt.cfg.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000", "http://localhost:5173"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	entries := handlers.NewEntryHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	nodes := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	edges := handlers.NewEdgeHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	synonyms := handlers.NewSynonymHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)

	router.Route("/api/v2", func(r chi.Router) {
		if rt.cfg.AuthDisabled {
			r.Use(middleware.NoAuth())
		} else {
			r.Use(middleware.Authenticate(rt.validator, rt.errors, rt.logger))
		}

		r.Get("/matches", synonyms.FindMatches)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entries.ListEntries)
			r.Post("/", entries.CreateEntry)

			r.Route("/{entryID}", func(r chi.Router) {
				r.Get("/", entries.GetEntry)
				r.Patch("/", entries.UpdateEntry)
				r.Delete("/", entries.DeleteEntry)
				r.Post("/save", entries.SaveEntry)
				r.Get("/status", entries.GetSaveStatus)
				r.Get("/graph", entries.GetVisibleGraph)
				r.Get("/layout", entries.PreviewLayout)
				r.Post("/layout", entries.ApplyLayout)

				r.Post("/matches", synonyms.MaterializeMatch)
				r.Post("/links", synonyms.CreateLinkNode)

				r.Route("/nodes", func(r chi.Router) {
					r.Post("/", nodes.AddNode)
					r.Route("/{nodeID}", func(r chi.Router) {
						r.Patch("/", nodes.UpdateNode)
						r.Delete("/", nodes.DeleteNode)
						r.Put("/position", nodes.MoveNode)
						r.Post("/collapse", nodes.ToggleCollapse)
						r.Put("/layout-mode", nodes.SetLayoutMode)
						r.Post("/children", nodes.AddChild)
						r.Post("/topic", nodes.ExtractTopic)
						r.Delete("/topic", nodes.DissolveTopic)
					})
				})

				r.Route("/edges", func(r chi.Router) {
					r.Post("/", edges.AddEdge)
					r.Delete("/{edgeID}", edges.DeleteEdge)
				})
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
