package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenecast/internal/config"
	"scenecast/internal/jobs"
	"scenecast/internal/pkg/errors"
	"scenecast/internal/pkg/logger"
	"scenecast/internal/render"
	"scenecast/internal/worker"
)

// syncScheduler runs tasks inline so handlers can be tested without a
// real pool.
type syncScheduler struct {
	err error
}

func (s *syncScheduler) Schedule(task worker.Task) error {
	if s.err != nil {
		return s.err
	}
	task(context.Background())
	return nil
}

// recordingExecutor captures the render request and applies a scripted
// transition to the job record.
type recordingExecutor struct {
	registry *jobs.Registry
	last     render.Request
	finish   func(j *jobs.Job)
}

func (e *recordingExecutor) Execute(ctx context.Context, req render.Request) {
	e.last = req
	if e.finish != nil {
		_ = e.registry.Update(req.JobID, e.finish)
	}
}

type stubProber struct {
	version string
	err     error
}

func (p *stubProber) Version(ctx context.Context) (string, error) {
	return p.version, p.err
}

type env struct {
	registry *jobs.Registry
	sched    *syncScheduler
	exec     *recordingExecutor
	prober   *stubProber
	cfg      *config.Config
	router   http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()

	registry := jobs.NewRegistry()
	e := &env{
		registry: registry,
		sched:    &syncScheduler{},
		exec:     &recordingExecutor{registry: registry},
		prober:   &stubProber{version: "Manim Community v0.18.1"},
		cfg:      &cfg,
	}
	e.router = NewRouter(Deps{
		Registry:  registry,
		Scheduler: e.sched,
		Executor:  e.exec,
		Prober:    e.prober,
		Config:    &cfg,
		Log:       logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard}),
	})
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

const validEducational = `{
	"grade": 9,
	"course": "Geometry",
	"topic": "Pythagorean Theorem",
	"videoType": "explanation",
	"duration": "10-15sec",
	"prompt": "explain it",
	"style": "colorful"
}`

func TestCreateEducational(t *testing.T) {
	e := newEnv(t)
	e.exec.finish = func(j *jobs.Job) { j.Status = jobs.StatusCompleted; j.Progress = 100 }

	rec := e.do(t, http.MethodPost, "/api/video/create", validEducational)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["status"] != "started" {
		t.Errorf("status field = %v", body["status"])
	}
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatal("missing job_id")
	}

	if e.exec.last.Scene != render.SceneEducational {
		t.Errorf("scene = %q", e.exec.last.Scene)
	}
	if !strings.Contains(e.exec.last.Script, "Pythagorean Theorem") {
		t.Error("generated script should embed the topic")
	}
	if _, err := e.registry.Get(jobID); err != nil {
		t.Errorf("job not registered: %v", err)
	}
}

func TestCreateEducationalOwnScript(t *testing.T) {
	e := newEnv(t)
	body := strings.Replace(validEducational, `"style": "colorful"`,
		`"style": "colorful", "manimCode": "from manim import *\nclass EducationalVideo(Scene): pass"`, 1)

	rec := e.do(t, http.MethodPost, "/api/video/create", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(e.exec.last.Script, "class EducationalVideo(Scene): pass") {
		t.Error("submitted script must be used verbatim")
	}
}

func TestCreateEducationalValidation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		body string
	}{
		{"bad videoType", strings.Replace(validEducational, "explanation", "advert", 1)},
		{"bad duration", strings.Replace(validEducational, "10-15sec", "1h", 1)},
		{"bad style", strings.Replace(validEducational, "colorful", "neon", 1)},
		{"empty topic", strings.Replace(validEducational, "Pythagorean Theorem", "", 1)},
		{"malformed json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/video/create", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", rec.Code)
			}
		})
	}
	if e.registry.Len() != 0 {
		t.Error("rejected requests must not register jobs")
	}
}

func TestCreateQueueFull(t *testing.T) {
	e := newEnv(t)
	e.sched.err = errors.New(errors.CodeResourceExhaust, "render queue is full")

	rec := e.do(t, http.MethodPost, "/api/video/create", validEducational)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	if e.registry.Len() != 0 {
		t.Error("refused job must not leave a pending record behind")
	}
}

func TestCreateFromScript(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/create-video",
		`{"script": "class SolutionVideo(Scene): pass", "quality": "high_quality", "format": "mp4"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatal("missing job_id")
	}
	if body["status"] != "processing" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["video_url"] != "/videos/"+jobID {
		t.Errorf("video_url = %v", body["video_url"])
	}

	if e.exec.last.Scene != render.SceneSolution {
		t.Errorf("scene = %q", e.exec.last.Scene)
	}
	if e.exec.last.Quality != "high_quality" {
		t.Errorf("quality = %q", e.exec.last.Quality)
	}
}

func TestCreateFromScriptRequiresScript(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/create-video", `{"title": "solution"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	e := newEnv(t)
	e.registry.Create("job-1")
	_ = e.registry.Update("job-1", func(j *jobs.Job) {
		j.Status = jobs.StatusRendering
		j.Progress = 40
	})

	rec := e.do(t, http.MethodGet, "/api/video/status/job-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["job_id"] != "job-1" || body["status"] != "rendering" || body["progress"] != float64(40) {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestStatusUnknown(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/video/status/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestGetJob(t *testing.T) {
	e := newEnv(t)
	e.registry.Create("job-1")
	_ = e.registry.Update("job-1", func(j *jobs.Job) {
		j.Status = jobs.StatusFailed
		j.Error = "renderer exited with code 1"
	})

	rec := e.do(t, http.MethodGet, "/job/job-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "failed" || body["error"] != "renderer exited with code 1" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["created_at"] == nil {
		t.Error("created_at missing")
	}
}

// writeArtifact registers a completed job backed by a real file.
func writeArtifact(t *testing.T, e *env, jobID string) string {
	t.Helper()
	path := filepath.Join(e.cfg.Paths.OutputDir, jobID+"_final.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	e.registry.Create(jobID)
	_ = e.registry.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusCompleted
		j.Progress = 100
		j.VideoPath = path
	})
	return path
}

func TestDownload(t *testing.T) {
	e := newEnv(t)
	writeArtifact(t, e, "job-1")

	rec := e.do(t, http.MethodGet, "/api/video/download/job-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "educational_video_job-1.mp4") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "fake video bytes" {
		t.Error("body should be the artifact")
	}
}

func TestDownloadNotReady(t *testing.T) {
	e := newEnv(t)
	e.registry.Create("job-1")

	rec := e.do(t, http.MethodGet, "/api/video/download/job-1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestDownloadFileMissing(t *testing.T) {
	e := newEnv(t)
	path := writeArtifact(t, e, "job-1")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	rec := e.do(t, http.MethodGet, "/api/video/download/job-1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestStream(t *testing.T) {
	e := newEnv(t)
	writeArtifact(t, e, "job-1")

	rec := e.do(t, http.MethodGet, "/api/video/stream/job-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "" {
		t.Errorf("stream must not force a download: %q", got)
	}
}

func TestGetVideoLifecycle(t *testing.T) {
	e := newEnv(t)

	e.registry.Create("job-1")
	rec := e.do(t, http.MethodGet, "/videos/job-1", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("pending: status %d, want 202", rec.Code)
	}
	if decode(t, rec)["status"] != "processing" {
		t.Error("pending body should say processing")
	}

	_ = e.registry.Update("job-1", func(j *jobs.Job) {
		j.Status = jobs.StatusFailed
		j.Error = "rendering timeout (300 seconds exceeded)"
	})
	rec = e.do(t, http.MethodGet, "/videos/job-1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("failed: status %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rendering timeout") {
		t.Error("failure body should carry the job error")
	}

	writeArtifact(t, e, "job-2")
	rec = e.do(t, http.MethodGet, "/videos/job-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("completed: status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "solution_video_job-2.mp4") {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestGetVideoUnknown(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/videos/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	path := writeArtifact(t, e, "job-1")

	rec := e.do(t, http.MethodDelete, "/api/video/job-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("artifact should be removed")
	}
	if e.registry.Len() != 0 {
		t.Error("record should be removed")
	}

	rec = e.do(t, http.MethodDelete, "/api/video/job-1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	e.registry.Create("job-1")

	rec := e.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "healthy" || body["manim_installed"] != true {
		t.Errorf("unexpected body: %v", body)
	}
	if body["manim_version"] != "Manim Community v0.18.1" {
		t.Errorf("manim_version = %v", body["manim_version"])
	}
	if body["active_jobs"] != float64(1) {
		t.Errorf("active_jobs = %v", body["active_jobs"])
	}
}

func TestHealthDegraded(t *testing.T) {
	e := newEnv(t)
	e.prober.err = errors.Process("renderer exited with code 127")

	rec := e.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded health must still answer 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "degraded" || body["manim_installed"] != false {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/video/create", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("every response should carry a request ID")
	}
}
