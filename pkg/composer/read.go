package composer

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ctxpack/ctxpack-cli/pkg/files"
)

// ReadSnippets reads and renders the files behind keys on at most workers
// goroutines. A file that cannot be read becomes an empty snippet and a
// warning in the log; it never fails the batch. The only error returned is
// ctx's. Results are ordered by key.
func ReadSnippets(ctx context.Context, policy *files.IgnorePolicy, keys []string, workers int, logger *slog.Logger) ([]Snippet, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if workers < 1 {
		workers = 1
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	results := make([]Snippet, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, key := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(policy.Abs(key))
			if err != nil {
				logger.Warn("failed to read file, using empty content", "path", key, "error", err)
				data = nil
			}

			results[i] = RenderSnippet(key, key, string(data))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
