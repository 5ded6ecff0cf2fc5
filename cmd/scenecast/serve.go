package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"scenecast/internal/config"
	"scenecast/internal/httpapi"
	"scenecast/internal/jobs"
	"scenecast/internal/pkg/logger"
	"scenecast/internal/pkg/shutdown"
	"scenecast/internal/render"
	"scenecast/internal/worker"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rendering HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "scenecast",
	})
	log.Info("starting scenecast", "version", version, "bind", cfg.Server.Bind)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	// One instance per workspace: concurrent processes would race on
	// scratch directories and artifacts.
	lock := flock.New(cfg.Paths.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("workspace %s is in use by another scenecast instance", cfg.Paths.WorkDir)
	}

	sd := shutdown.NewManager(log, 30*time.Second)
	sd.Register("workspace-lock", func(ctx context.Context) error {
		return lock.Unlock()
	})

	registry := jobs.NewRegistry()
	supervisor := render.NewSupervisor(log)
	renderer := render.NewRenderer(cfg.Render, supervisor)
	orchestrator := render.NewOrchestrator(registry, renderer, cfg.Paths.WorkDir, cfg.Paths.OutputDir, log)

	pool := worker.NewPool(cfg.Worker.Count, cfg.Worker.QueueSize, log)
	pool.Start(context.Background())
	sd.Register("worker-pool", pool.Stop)

	server := &http.Server{
		Addr: cfg.Server.Bind,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Registry:  registry,
			Scheduler: pool,
			Executor:  orchestrator,
			Prober:    renderer,
			Config:    cfg,
			Log:       log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sd.Register("http-server", server.Shutdown)

	go func() {
		log.Info("listening", "addr", cfg.Server.Bind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogFatal("http server failed", err)
		}
	}()

	sd.Wait()
	return nil
}
