package extract

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/casewire/casewire/internal/fact"
)

// ScanCorpus extracts every document on a worker pool and folds the results
// into a single fact graph. Per-document extraction has no cross-document
// dependency, so documents fan out freely; the merge runs on exactly one
// goroutine. Merge commutativity makes the final graph independent of
// completion order.
func ScanCorpus(ctx context.Context, e *Extractor, docs []fact.SourceDocument, workers int) (*fact.Graph, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(docs) && len(docs) > 0 {
		workers = len(docs)
	}

	grp, gctx := errgroup.WithContext(ctx)
	docCh := make(chan fact.SourceDocument)
	resCh := make(chan fact.Result, workers)

	grp.Go(func() error {
		defer close(docCh)
		for _, d := range docs {
			select {
			case docCh <- d:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		grp.Go(func() error {
			for d := range docCh {
				select {
				case resCh <- e.Extract(d):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- grp.Wait()
		close(resCh)
	}()

	graph := fact.NewGraph()
	for r := range resCh {
		graph.Merge(r)
	}

	if err := <-done; err != nil {
		return nil, err
	}
	return graph, nil
}
