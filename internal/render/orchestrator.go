package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scenecast/internal/jobs"
	"scenecast/internal/pkg/errors"
	"scenecast/internal/pkg/logger"
)

// Request is one render job handed to the orchestrator.
type Request struct {
	JobID   string
	Script  string
	Quality string
	Format  string
	Scene   string
}

// Orchestrator drives a job from pending to a terminal state: it
// sanitizes the script, materializes it in a per-job scratch
// directory, supervises the render, locates the artifact and moves it
// to the output directory.
type Orchestrator struct {
	registry  *jobs.Registry
	renderer  *Renderer
	workDir   string
	outputDir string
	log       *logger.Logger
}

// NewOrchestrator wires the pipeline pieces together.
func NewOrchestrator(registry *jobs.Registry, renderer *Renderer, workDir, outputDir string, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		registry:  registry,
		renderer:  renderer,
		workDir:   workDir,
		outputDir: outputDir,
		log:       log.WithComponent("orchestrator"),
	}
}

// Execute runs one job to completion. It never returns an error:
// every failure is recorded on the job record, which is the only
// channel the caller observes. The per-job scratch directory is
// removed on every exit path.
func (o *Orchestrator) Execute(ctx context.Context, req Request) {
	log := o.log.WithJobID(req.JobID)
	start := time.Now()

	scratch := filepath.Join(o.workDir, req.JobID)
	defer o.cleanup(scratch, log)

	o.update(req.JobID, log, func(j *jobs.Job) {
		j.Status = jobs.StatusRendering
		j.Progress = 10
	})

	script, err := Sanitize(req.Script)
	if err != nil {
		o.fail(req.JobID, err, log)
		return
	}

	if err := os.MkdirAll(scratch, 0o755); err != nil {
		o.fail(req.JobID, errors.Wrap(err, "render.prepare", "create scratch directory"), log)
		return
	}
	scriptPath := filepath.Join(scratch, req.JobID+".py")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		o.fail(req.JobID, errors.Wrap(err, "render.prepare", "write scene script"), log)
		return
	}
	o.update(req.JobID, log, func(j *jobs.Job) { j.Progress = 30 })

	opts := Options{Quality: req.Quality, Format: req.Format, Scene: req.Scene}.withDefaults()
	o.update(req.JobID, log, func(j *jobs.Job) { j.Progress = 40 })

	if _, err := o.renderer.Render(ctx, scratch, scriptPath, opts); err != nil {
		o.fail(req.JobID, err, log)
		return
	}
	o.update(req.JobID, log, func(j *jobs.Job) { j.Progress = 80 })

	artifact, err := Locate(scratch, req.JobID, opts.Format)
	if err != nil {
		o.fail(req.JobID, err, log)
		return
	}

	finalPath := filepath.Join(o.outputDir, fmt.Sprintf("%s_final.%s", req.JobID, opts.Format))
	if err := moveFile(artifact, finalPath); err != nil {
		o.fail(req.JobID, errors.Wrap(err, "render.publish", "move artifact to output directory"), log)
		return
	}

	o.update(req.JobID, log, func(j *jobs.Job) {
		j.Status = jobs.StatusCompleted
		j.VideoPath = finalPath
		j.Progress = 100
	})
	log.Info("render completed",
		"video_path", finalPath,
		"duration_ms", time.Since(start).Milliseconds())
}

// update applies a job mutation. A missing record means the job was
// deleted mid-render, which is allowed; the render continues and the
// result is discarded with the record.
func (o *Orchestrator) update(id string, log *logger.Logger, mutate func(*jobs.Job)) {
	if err := o.registry.Update(id, mutate); err != nil {
		log.Warn("job record gone, continuing detached", "error", err.Error())
	}
}

func (o *Orchestrator) fail(id string, err error, log *logger.Logger) {
	log.Error("render failed", "error", err.Error())
	o.update(id, log, func(j *jobs.Job) {
		j.Status = jobs.StatusFailed
		j.Error = failureMessage(err)
	})
}

// cleanup removes the job's scratch tree: the scene script plus the
// renderer's media output. Idempotent; errors are logged and ignored.
func (o *Orchestrator) cleanup(scratch string, log *logger.Logger) {
	if err := os.RemoveAll(scratch); err != nil {
		log.Warn("scratch cleanup failed", "path", scratch, "error", err.Error())
	}
}

// failureMessage picks the text stored on the job record and surfaced
// by the status endpoint. Coded errors already carry a user-facing
// message; anything else is reported verbatim.
func failureMessage(err error) string {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
