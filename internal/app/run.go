package app

import (
	"context"
	"fmt"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/executor"
	"github.com/vk/ocfltools/internal/inmemorystore"
	"github.com/vk/ocfltools/internal/ocfl"
	"github.com/vk/ocfltools/internal/pipeline"
	"github.com/vk/ocfltools/internal/search"
	"github.com/vk/ocfltools/internal/sidecar"
)

// Index runs the indexing pipeline over the repository, or over the single
// object with inventory id objectID when it is set. Failed packages are
// counted in the summary, not returned as errors.
func (a *App) Index(ctx context.Context, objectID string) (executor.Summary, error) {
	ctx = a.withRun(ctx)
	logger := ctxlog.FromContext(ctx)
	if err := a.config.validateIndex(); err != nil {
		return executor.Summary{}, err
	}

	sink, memory, err := a.newSink()
	if err != nil {
		return executor.Summary{}, err
	}
	p, err := a.newPipeline(sink)
	if err != nil {
		return executor.Summary{}, err
	}

	a.startHealthcheckServer(ctx)
	defer func() { _ = a.closeHealthcheckServer(ctx) }()

	repo := ocfl.NewRepository(a.config.Repository)
	exec := executor.New(repo, p, a.config.Workers)
	logger.Info("🚀 Starting indexing run.", "repository", repo.Root(), "workers", a.config.Workers, "dry_run", a.config.DryRun)

	var summary executor.Summary
	if objectID != "" {
		summary, err = exec.ExecuteOne(ctx, objectID)
	} else {
		summary, err = exec.Execute(ctx)
	}
	if err != nil {
		return summary, err
	}
	if memory != nil {
		logger.Info("Dry run finished.", "indices", memory.Indices(), "documents", memory.Count())
	}
	logger.Info("🏁 Indexing finished.", "packages", summary.Packages, "indexed", summary.Indexed, "invalid", summary.Invalid, "failed", summary.Failed)
	return summary, nil
}

// newSink returns the configured search sink. A dry run also returns the
// in-memory store behind it.
func (a *App) newSink() (search.Sink, *inmemorystore.Store, error) {
	if a.config.DryRun {
		s := inmemorystore.New()
		return s, s, nil
	}
	e, err := search.NewElastic(search.ElasticConfig{
		Host:     a.config.SearchHost,
		Username: a.config.SearchUsername,
		Password: a.config.SearchPassword,
	})
	if err != nil {
		return nil, nil, err
	}
	return e, nil, nil
}

// Validate resolves and validates the crate of the object at objectPath.
func (a *App) Validate(ctx context.Context, objectPath string) (*pipeline.Checked, error) {
	ctx = a.withRun(ctx)
	p, err := a.newPipeline(nil)
	if err != nil {
		return nil, err
	}
	obj := ocfl.NewObject(objectPath)
	checked, err := p.Check(ctxlog.With(ctx, "object", objectPath), obj)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", objectPath, err)
	}
	return checked, nil
}

// Stamp writes the sidecar metadata of an import into the crate in dir.
func (a *App) Stamp(ctx context.Context, dir string, m sidecar.Metadata) error {
	return sidecar.NewStamper().Stamp(a.withRun(ctx), dir, m)
}
