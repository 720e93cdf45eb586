package executor

import (
	"context"

	"github.com/vk/ocfltools/internal/ctxlog"
)

// worker processes the objects below each path of its chunk sequentially.
func (e *Executor) worker(ctx context.Context, workerID int, paths []string) Summary {
	ctx = ctxlog.With(ctx, "worker", workerID)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "paths", len(paths))

	var s Summary
	for _, p := range paths {
		if ctx.Err() != nil {
			logger.Warn("Worker stopped early.", "error", ctx.Err())
			break
		}
		objects, err := e.repo.Discover(ctx, p)
		if err != nil {
			logger.Error("Failed to discover objects.", "path", p, "error", err)
			continue
		}
		for _, obj := range objects {
			if ctx.Err() != nil {
				break
			}
			s.Add(e.proc.Process(ctx, obj))
		}
	}

	logger.Debug("Worker finished.", "packages", s.Packages)
	return s
}
