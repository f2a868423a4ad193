package bridge

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExtractFiles extracts every path concurrently, at most limit at a time
// (GOMAXPROCS when limit <= 0). Results keep the order of paths. The first
// failure cancels the files not yet started and is returned.
func ExtractFiles(ctx context.Context, paths []string, limit int) ([]*Bridge, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([][]*Bridge, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bridges, err := ExtractFile(path)
			if err != nil {
				return err
			}
			results[i] = bridges
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*Bridge
	for _, bridges := range results {
		out = append(out, bridges...)
	}
	return out, nil
}
