package source

import (
	"context"
	"fmt"
	"sync"
)

type assetResult[T any] struct {
	asset Asset
	value T
	err   error
}

// forEachAsset runs fn for every tracked asset concurrently and joins the
// results, keyed by asset id. The update is all-or-nothing: any single
// failure discards the whole batch, so mixed-freshness state is never
// written.
func forEachAsset[T any](ctx context.Context, assets []Asset, fn func(context.Context, Asset) (T, error)) (map[string]T, error) {
	results := make(chan assetResult[T], len(assets))

	var wg sync.WaitGroup
	for _, a := range assets {
		wg.Add(1)
		go func(a Asset) {
			defer wg.Done()
			v, err := fn(ctx, a)
			results <- assetResult[T]{asset: a, value: v, err: err}
		}(a)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]T, len(assets))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("[%s] %w", r.asset.Symbol, r.err)
			}
			continue
		}
		out[r.asset.ID] = r.value
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
