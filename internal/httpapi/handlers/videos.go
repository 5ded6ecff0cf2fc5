package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"scenecast/internal/httpkit"
	"scenecast/internal/jobs"
	"scenecast/internal/pkg/errors"
	"scenecast/internal/pkg/logger"
	"scenecast/internal/render"
)

// EducationalVideoRequest is the body of POST /api/video/create.
type EducationalVideoRequest struct {
	Grade     int    `json:"grade"`
	Course    string `json:"course"`
	Topic     string `json:"topic"`
	VideoType string `json:"videoType"`
	Duration  string `json:"duration"`
	Prompt    string `json:"prompt"`
	Style     string `json:"style"`
	ManimCode string `json:"manimCode,omitempty"`
}

// ScriptVideoRequest is the body of POST /create-video.
type ScriptVideoRequest struct {
	Script  string `json:"script"`
	Title   string `json:"title"`
	Quality string `json:"quality"`
	Format  string `json:"format"`
}

var (
	validVideoTypes = map[string]bool{"explanation": true, "problem-solving": true, "concept": true}
	validDurations  = map[string]bool{"5-10sec": true, "10-15sec": true, "15-20sec": true}
	validStyles     = map[string]bool{"minimal": true, "colorful": true, "professional": true}
)

func (req *EducationalVideoRequest) validate() error {
	if req.Topic == "" {
		return errors.Validation("topic is required")
	}
	if !validVideoTypes[req.VideoType] {
		return errors.Validationf("invalid videoType: %q", req.VideoType)
	}
	if !validDurations[req.Duration] {
		return errors.Validationf("invalid duration: %q", req.Duration)
	}
	if !validStyles[req.Style] {
		return errors.Validationf("invalid style: %q", req.Style)
	}
	return nil
}

// CreateEducational handles POST /api/video/create: a structured
// request that either carries its own scene script or has one
// generated from the style template.
func (h *Handlers) CreateEducational(w http.ResponseWriter, r *http.Request) {
	var req EducationalVideoRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteError(w, errors.Validationf("invalid request body: %v", err))
		return
	}
	if err := req.validate(); err != nil {
		httpkit.WriteError(w, err)
		return
	}

	script := req.ManimCode
	if script == "" {
		script = render.BuildEducationalScene(render.TemplateParams{
			Topic:  req.Topic,
			Grade:  req.Grade,
			Course: req.Course,
			Style:  req.Style,
		})
	}

	jobID, err := h.startJob(r, render.Request{
		Script:  script,
		Quality: "medium",
		Format:  "mp4",
		Scene:   render.SceneEducational,
	})
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]string{
		"job_id": jobID,
		"status": "started",
	})
}

// CreateFromScript handles POST /create-video: a raw scene script with
// quality and format knobs.
func (h *Handlers) CreateFromScript(w http.ResponseWriter, r *http.Request) {
	var req ScriptVideoRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteError(w, errors.Validationf("invalid request body: %v", err))
		return
	}
	if req.Script == "" {
		httpkit.WriteError(w, errors.Validation("script is required"))
		return
	}
	if req.Quality == "" {
		req.Quality = "medium_quality"
	}
	if req.Format == "" {
		req.Format = "mp4"
	}

	jobID, err := h.startJob(r, render.Request{
		Script:  req.Script,
		Quality: req.Quality,
		Format:  req.Format,
		Scene:   render.SceneSolution,
	})
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]string{
		"job_id":    jobID,
		"status":    "processing",
		"video_url": "/videos/" + jobID,
		"message":   "video generation started",
	})
}

// startJob registers a pending job and hands it to the pool. If the
// pool refuses, the record is removed again so no orphaned pending
// job stays behind.
func (h *Handlers) startJob(r *http.Request, req render.Request) (string, error) {
	jobID := uuid.NewString()
	req.JobID = jobID
	h.registry.Create(jobID)

	err := h.scheduler.Schedule(func(ctx context.Context) {
		h.executor.Execute(logger.ContextWithJobID(ctx, jobID), req)
	})
	if err != nil {
		_, _ = h.registry.Delete(jobID)
		h.logFor(r).Warn("job refused", "error", err.Error())
		return "", err
	}

	h.logFor(r).WithJobID(jobID).Info("job accepted", "scene", req.Scene, "quality", req.Quality)
	return jobID, nil
}

// Status handles GET /api/video/status/{jobID}.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.registry.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, struct {
		JobID    string      `json:"job_id"`
		Status   jobs.Status `json:"status"`
		Progress int         `json:"progress"`
		Error    string      `json:"error,omitempty"`
	}{job.ID, job.Status, job.Progress, job.Error})
}

// GetJob handles GET /job/{jobID}: the full job record.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.registry.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, struct {
		JobID     string      `json:"job_id"`
		Status    jobs.Status `json:"status"`
		Progress  int         `json:"progress"`
		VideoPath string      `json:"video_path,omitempty"`
		Error     string      `json:"error,omitempty"`
		CreatedAt time.Time   `json:"created_at"`
	}{job.ID, job.Status, job.Progress, job.VideoPath, job.Error, job.CreatedAt})
}

// completedVideo resolves a job to its on-disk artifact, enforcing the
// ready-state preconditions shared by download and stream.
func (h *Handlers) completedVideo(jobID string) (*jobs.Job, error) {
	job, err := h.registry.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != jobs.StatusCompleted {
		return nil, errors.State("video not ready")
	}
	if job.VideoPath == "" {
		return nil, errors.NotFound("video file", jobID)
	}
	if _, err := os.Stat(job.VideoPath); err != nil {
		return nil, errors.NotFound("video file", jobID)
	}
	return job, nil
}

// Download handles GET /api/video/download/{jobID}: the artifact as an
// attachment.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.completedVideo(jobID)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	serveVideo(w, r, job.VideoPath, fmt.Sprintf("educational_video_%s.mp4", jobID))
}

// Stream handles GET /api/video/stream/{jobID}: the artifact inline
// for in-browser preview.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	job, err := h.completedVideo(chi.URLParam(r, "jobID"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, job.VideoPath)
}

// GetVideo handles GET /videos/{jobID}: the fetch counterpart of
// POST /create-video's video_url. Non-terminal jobs answer 202 so
// clients can poll the same URL until the video is ready.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.registry.Get(jobID)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	switch {
	case !job.Status.Terminal():
		httpkit.WriteJSON(w, http.StatusAccepted, map[string]string{
			"status":  "processing",
			"message": "video is still being generated",
		})
		return
	case job.Status == jobs.StatusFailed:
		httpkit.WriteErr(w, http.StatusInternalServerError, string(errors.CodeProcess),
			fmt.Sprintf("video generation failed: %s", job.Error), nil)
		return
	}

	if job.VideoPath == "" {
		httpkit.WriteError(w, errors.NotFound("video file", jobID))
		return
	}
	if _, err := os.Stat(job.VideoPath); err != nil {
		h.logFor(r).Error("artifact missing for completed job", "job_id", jobID, "video_path", job.VideoPath)
		httpkit.WriteError(w, errors.NotFound("video file", jobID))
		return
	}
	serveVideo(w, r, job.VideoPath, fmt.Sprintf("solution_video_%s.mp4", jobID))
}

// Delete handles DELETE /api/video/{jobID}: removes the record and the
// artifact. An in-flight render keeps running detached.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	removed, err := h.registry.Delete(jobID)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	if removed.VideoPath != "" {
		if err := os.Remove(removed.VideoPath); err != nil && !os.IsNotExist(err) {
			h.logFor(r).Warn("artifact delete failed", "job_id", jobID, "error", err.Error())
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "video deleted successfully",
	})
}

func serveVideo(w http.ResponseWriter, r *http.Request, path, filename string) {
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}
