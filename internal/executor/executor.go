// Package executor runs the indexing pipeline over a whole repository. The
// top-level directories of the storage root are partitioned into one chunk
// per worker; each worker discovers the objects of its chunk and processes
// them one after another. A failed package never stops its worker or the
// other workers.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/ocfl"
	"github.com/vk/ocfltools/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// ErrNotRepository is returned when the storage root lacks its marker file.
var ErrNotRepository = errors.New("not an OCFL repository")

// Processor indexes one package. *pipeline.Pipeline implements it.
type Processor interface {
	Process(ctx context.Context, obj *ocfl.Object) pipeline.Outcome
}

// Executor fans packages out to workers.
type Executor struct {
	repo    *ocfl.Repository
	proc    Processor
	workers int
}

// New returns an executor with the given number of workers. Fewer than one
// worker means one.
func New(repo *ocfl.Repository, proc Processor, workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{repo: repo, proc: proc, workers: workers}
}

// Execute processes every object of the repository.
func (e *Executor) Execute(ctx context.Context) (Summary, error) {
	logger := ctxlog.FromContext(ctx)
	if !e.repo.IsRepository() {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotRepository, e.repo.Root())
	}

	paths, err := e.repo.TopLevel()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list %s: %w", e.repo.Root(), err)
	}
	chunks := Partition(paths, e.workers)
	logger.Info("Starting workers.", "workers", len(chunks), "paths", len(paths))

	// Workers report through their summaries and never fail the group;
	// only ctx stops them.
	summaries := make([]Summary, len(chunks))
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			summaries[i] = e.worker(ctx, i, chunk)
			return nil
		})
	}
	_ = g.Wait()

	var total Summary
	for _, s := range summaries {
		total.Merge(s)
	}
	logger.Info("All workers finished.", "packages", total.Packages, "indexed", total.Indexed, "invalid", total.Invalid, "failed", total.Failed, "segments", total.Segments)
	return total, ctx.Err()
}

// ExecuteOne processes the single object whose inventory id is id.
func (e *Executor) ExecuteOne(ctx context.Context, id string) (Summary, error) {
	if !e.repo.IsRepository() {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotRepository, e.repo.Root())
	}
	obj, err := e.repo.FindObject(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	s.Add(e.proc.Process(ctx, obj))
	return s, nil
}
