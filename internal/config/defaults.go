package config

import (
	"os"
	"path/filepath"
)

const (
	defaultBind          = "0.0.0.0:8001"
	defaultRenderBinary  = "manim"
	defaultRenderTimeout = 300
	defaultWorkerCount   = 4
	defaultQueueSize     = 64
	defaultLogLevel      = "info"
	defaultWorkspaceName = "scenecast"
	defaultOutputDirName = "videos"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://localhost:3001",
}

// Default returns a Config populated with repository defaults.
// OutputDir and LockFile are derived from WorkDir when left empty.
func Default() Config {
	workDir := filepath.Join(os.TempDir(), defaultWorkspaceName)
	return Config{
		Server: Server{
			Bind:               defaultBind,
			CORSAllowedOrigins: append([]string(nil), defaultCORSOrigins...),
		},
		Paths: Paths{
			WorkDir:   workDir,
			OutputDir: filepath.Join(workDir, defaultOutputDirName),
		},
		Render: Render{
			Binary:         defaultRenderBinary,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Worker: Worker{
			Count:     defaultWorkerCount,
			QueueSize: defaultQueueSize,
		},
		Log: Log{
			Level: defaultLogLevel,
		},
	}
}
