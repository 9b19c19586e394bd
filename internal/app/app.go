package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/vk/jobgrid/internal/builder"
	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/entry"
	"github.com/vk/jobgrid/internal/hcl"
	"github.com/vk/jobgrid/internal/registry"
	"github.com/vk/jobgrid/internal/sched"
)

// App encapsulates the application's dependencies, configuration and
// lifecycle: load the pipeline, build the graph, run it through the
// scheduler, wait on the foreground barriers, shut down.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry

	// graph and manager are populated by Run and exposed for tests.
	graph   *builder.Graph
	manager *sched.Manager
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func New(outW io.Writer, cfg *Config, reg *registry.Registry) *App {
	return &App{
		outW:     outW,
		logger:   newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		config:   cfg,
		registry: reg,
	}
}

// Graph returns the graph built by the last Run. This is primarily for
// testing.
func (a *App) Graph() *builder.Graph {
	return a.graph
}

// Run executes the configured pipeline to completion. A job failure does not
// abort the run — downstream work still proceeds per the dependency
// contract — but it is reflected in the returned error once every barrier
// has closed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Logger configured successfully.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	pipeline, err := hcl.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	table := entry.NewDependencyTable()
	graph, err := builder.Build(ctx, pipeline, a.registry, table)
	if err != nil {
		return err
	}
	a.graph = graph

	a.manager = sched.New(table, a.config.WorkerCount)
	a.manager.Start(ctx)

	// Deterministic submission order keeps FIFO scheduling of root jobs
	// reproducible across runs.
	ids := make([]string, 0, len(graph.Jobs))
	for id := range graph.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := a.manager.Submit(graph.Jobs[id]); err != nil {
			return err
		}
	}
	a.logger.Info("Pipeline submitted.", "jobs", len(ids), "workers", a.config.WorkerCount)

	// Block on every foreground barrier before tearing the pool down.
	for _, grp := range graph.WaitGroups {
		a.logger.Debug("Waiting on group.", "group", grp.ID())
		if err := grp.Wait(ctx); err != nil {
			return fmt.Errorf("waiting on %s: %w", grp.ID(), err)
		}
		a.logger.Debug("Group closed.", "group", grp.ID())
	}

	if err := a.manager.Close(ctx); err != nil {
		return err
	}

	return a.collectFailures(ids)
}

// collectFailures folds per-job error statuses into one run-level error.
func (a *App) collectFailures(ids []string) error {
	var failed []string
	var rootCause error
	for _, id := range ids {
		if err := a.graph.Jobs[id].Err(); err != nil {
			a.logger.Error("Job failed execution.", "job", id, "error", err)
			failed = append(failed, id)
			if rootCause == nil {
				rootCause = err
			}
		}
	}
	if rootCause == nil {
		return nil
	}
	return fmt.Errorf("execution failed for %d job(s) (first: %s): %w", len(failed), failed[0], rootCause)
}
