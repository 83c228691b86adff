// Package rest wires the HTTP surface: chi router, ambient middleware, and
// one handler group per resource, following the same
// chi-based middleware stack conventions used throughout the codebase.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"osintgraph/infrastructure/config"
	"osintgraph/infrastructure/di"
	"osintgraph/interfaces/http/rest/handlers"
	"osintgraph/interfaces/http/rest/middleware"
)

// Router builds the application's http.Handler from a wired Container.
type Router struct {
	container *di.Container
	cfg       *config.Config
	logger    *zap.Logger
}

func NewRouter(container *di.Container) *Router {
	return &Router{container: container, cfg: container.Config, logger: container.Logger}
}

// Setup configures every route and the ambient middleware stack.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.container.Metrics))
		router.Handle("/metrics", promhttp.HandlerFor(rt.container.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	investigationHandler := handlers.NewInvestigationHandler(rt.container.Investigation, rt.logger)
	entityHandler := handlers.NewEntityHandler(rt.container.EntityService, rt.logger)
	ingestHandler := handlers.NewIngestHandler(rt.container.IngestService, rt.container.EntityService, rt.container.ObjectStore, rt.container.Workflow, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.container.GraphStore, rt.logger)
	notebookHandler := handlers.NewNotebookHandler(rt.container.NotebookStore, rt.logger)
	schemaHandler := handlers.NewSchemaHandler(rt.container.Catalog, rt.logger)
	enrichHandler := handlers.NewEnrichHandler(rt.container.Enrichment, rt.logger)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.cfg, rt.logger))

		r.Route("/investigations", func(r chi.Router) {
			r.Post("/", investigationHandler.Create)
			r.Get("/", investigationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", investigationHandler.Get)
				r.Delete("/", investigationHandler.Delete)

				r.Route("/entities", func(r chi.Router) {
					r.Post("/", entityHandler.Create)
					r.Get("/", entityHandler.List)
					r.Get("/deduplicate/candidates", entityHandler.Duplicates)
					r.Post("/merge", entityHandler.Merge)

					r.Route("/{eid}", func(r chi.Router) {
						r.Get("/", entityHandler.Get)
						r.Put("/", entityHandler.Update)
						r.Delete("/", entityHandler.Delete)
						r.Get("/expand", entityHandler.Expand)
					})
				})

				r.Route("/ingest", func(r chi.Router) {
					r.Post("/", ingestHandler.Upload)
					r.Get("/{wfid}/status", ingestHandler.Status)
				})

				r.Get("/graph", graphHandler.Page)

				r.Route("/notebook", func(r chi.Router) {
					r.Get("/", notebookHandler.Get)
					r.Put("/", notebookHandler.Save)
				})
			})
		})

		r.Route("/schema", func(r chi.Router) {
			r.Get("/", schemaHandler.List)
			r.Get("/{name}", schemaHandler.Get)
		})

		r.Route("/enrich/yente", func(r chi.Router) {
			r.Get("/", enrichHandler.Search)
			r.Post("/link/{inv}/{eid}", enrichHandler.Link)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
