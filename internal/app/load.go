package app

import (
	"context"
	"fmt"

	"github.com/vk/ocfltools/internal/config"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/normalize"
	"github.com/vk/ocfltools/internal/pipeline"
	"github.com/vk/ocfltools/internal/resolve"
	"github.com/vk/ocfltools/internal/search"
	"github.com/vk/ocfltools/internal/validate"
)

// loadDefinitions reads the HCL domain definitions below path. No path
// means no definitions.
func loadDefinitions(ctx context.Context, loader config.Loader, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	if path == "" || loader == nil {
		logger.Debug("No domain definitions configured.")
		return config.NewModel(), nil
	}

	model, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain definitions: %w", err)
	}
	logger.Debug("Domain definitions loaded.", "path", path, "domains", len(model.Domains))
	return model, nil
}

// newPipeline builds the indexing pipeline over sink. The normalizer and
// the dispatcher are ready before the pipeline is returned.
func (a *App) newPipeline(sink search.Sink) (*pipeline.Pipeline, error) {
	n, err := normalize.New()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare normalizer: %w", err)
	}
	d, err := validate.New(a.catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation: %w", err)
	}
	return pipeline.New(pipeline.Deps{
		Expander:  n,
		Resolver:  resolve.New(resolve.WithCompactor(n)),
		Validator: d,
		Catalog:   a.catalog,
		Sink:      sink,
		Metrics:   a.metrics,
	}), nil
}
