// Package httpapi assembles the HTTP surface of the service.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"scenecast/internal/config"
	"scenecast/internal/httpapi/handlers"
	"scenecast/internal/httpkit"
	"scenecast/internal/jobs"
	"scenecast/internal/pkg/logger"
	"scenecast/internal/pkg/middleware"
)

// Deps are the wired dependencies the router needs.
type Deps struct {
	Registry  *jobs.Registry
	Scheduler handlers.Scheduler
	Executor  handlers.Executor
	Prober    handlers.VersionProber
	Config    *config.Config
	Log       *logger.Logger
}

// NewRouter builds the service router with the standard middleware
// chain: request IDs, access logging, panic recovery and CORS.
func NewRouter(d Deps) http.Handler {
	h := handlers.New(d.Registry, d.Scheduler, d.Executor, d.Prober, d.Config, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   d.Config.Server.CORSAllowedOrigins,
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api/video", func(r chi.Router) {
		r.Post("/create", h.CreateEducational)
		r.Get("/status/{jobID}", h.Status)
		r.Get("/download/{jobID}", h.Download)
		r.Get("/stream/{jobID}", h.Stream)
		r.Delete("/{jobID}", h.Delete)
	})

	r.Post("/create-video", h.CreateFromScript)
	r.Get("/job/{jobID}", h.GetJob)
	r.Get("/videos/{jobID}", h.GetVideo)

	return r
}
