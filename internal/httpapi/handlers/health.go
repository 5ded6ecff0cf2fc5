package handlers

import (
	"net/http"

	"scenecast/internal/httpkit"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	ManimInstalled bool   `json:"manim_installed"`
	ManimVersion   string `json:"manim_version"`
	TempDir        string `json:"temp_dir"`
	ActiveJobs     int    `json:"active_jobs"`
}

// Health handles GET /health. It probes the renderer binary on every
// call; a missing renderer degrades the status but the endpoint still
// answers 200 so orchestrators keep routing to the API.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "healthy",
		Service:    "scenecast",
		TempDir:    h.cfg.Paths.WorkDir,
		ActiveJobs: h.registry.Len(),
	}

	version, err := h.prober.Version(r.Context())
	if err != nil {
		h.logFor(r).Warn("renderer probe failed", "error", err.Error())
		resp.Status = "degraded"
		resp.ManimVersion = "not installed"
	} else {
		resp.ManimInstalled = true
		resp.ManimVersion = version
	}

	httpkit.WriteJSON(w, http.StatusOK, resp)
}
