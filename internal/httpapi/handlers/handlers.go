// Package handlers implements the HTTP endpoints of the video
// rendering service.
package handlers

import (
	"context"
	"net/http"

	"scenecast/internal/config"
	"scenecast/internal/jobs"
	"scenecast/internal/pkg/logger"
	"scenecast/internal/render"
	"scenecast/internal/worker"
)

// Scheduler enqueues detached background work.
type Scheduler interface {
	Schedule(task worker.Task) error
}

// Executor runs one render job to a terminal state.
type Executor interface {
	Execute(ctx context.Context, req render.Request)
}

// VersionProber reports the installed renderer version.
type VersionProber interface {
	Version(ctx context.Context) (string, error)
}

// Handlers carries the dependencies shared by all endpoints.
type Handlers struct {
	registry  *jobs.Registry
	scheduler Scheduler
	executor  Executor
	prober    VersionProber
	cfg       *config.Config
	log       *logger.Logger
}

// New creates the handler set.
func New(registry *jobs.Registry, scheduler Scheduler, executor Executor, prober VersionProber, cfg *config.Config, log *logger.Logger) *Handlers {
	return &Handlers{
		registry:  registry,
		scheduler: scheduler,
		executor:  executor,
		prober:    prober,
		cfg:       cfg,
		log:       log.WithComponent("http"),
	}
}

// logFor returns a request-scoped logger.
func (h *Handlers) logFor(r *http.Request) *logger.Logger {
	return h.log.FromContext(r.Context())
}
