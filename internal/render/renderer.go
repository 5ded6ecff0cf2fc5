package render

import (
	"context"
	"os"
	"strings"
	"time"

	"scenecast/internal/config"
)

// qualityFlags maps accepted request quality names onto renderer CLI
// flags. Both the short and the long spellings are accepted.
var qualityFlags = map[string]string{
	"low":                "-ql",
	"low_quality":        "-ql",
	"medium":             "-qm",
	"medium_quality":     "-qm",
	"high":               "-qh",
	"high_quality":       "-qh",
	"production_quality": "-qp",
}

// QualityFlag resolves a quality name to its CLI flag. Unknown or
// empty names fall back to medium.
func QualityFlag(name string) string {
	if flag, ok := qualityFlags[strings.ToLower(strings.TrimSpace(name))]; ok {
		return flag
	}
	return "-qm"
}

// Options selects how a script is rendered.
type Options struct {
	Quality string
	Format  string
	Scene   string
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = "mp4"
	}
	if o.Scene == "" {
		o.Scene = SceneSolution
	}
	return o
}

// Renderer builds renderer command lines and runs them through the
// supervisor.
type Renderer struct {
	binary    string
	extraPath []string
	timeout   time.Duration
	sup       *Supervisor
}

// NewRenderer wires renderer configuration to a supervisor.
func NewRenderer(cfg config.Render, sup *Supervisor) *Renderer {
	return &Renderer{
		binary:    cfg.Binary,
		extraPath: cfg.ExtraPath,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		sup:       sup,
	}
}

// Render runs the renderer over scriptPath from workDir, so the media
// tree lands inside workDir. Caching is always disabled: scratch trees
// are removed after every job, so cache entries would never be reused.
func (r *Renderer) Render(ctx context.Context, workDir, scriptPath string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	args := []string{
		QualityFlag(opts.Quality),
		"--disable_caching",
		"--format", opts.Format,
		scriptPath,
		opts.Scene,
	}
	return r.sup.Run(ctx, Command{
		Name:    r.binary,
		Args:    args,
		Dir:     workDir,
		Env:     buildEnv(r.extraPath),
		Timeout: r.timeout,
	})
}

// Version probes the renderer binary. Used by the health endpoint to
// report whether a renderer is installed at all.
func (r *Renderer) Version(ctx context.Context) (string, error) {
	res, err := r.sup.Run(ctx, Command{
		Name:    r.binary,
		Args:    []string{"--version"},
		Env:     buildEnv(r.extraPath),
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// buildEnv returns the current environment with extra directories
// prepended to PATH, so renderer installs outside the global PATH
// still resolve.
func buildEnv(extraPath []string) []string {
	env := os.Environ()
	if len(extraPath) == 0 {
		return env
	}
	prefix := strings.Join(extraPath, string(os.PathListSeparator))
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + prefix + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	return append(env, "PATH="+prefix)
}
