package report

import (
	"context"

	"github.com/nao1215/vvreport/internal/model"
	"golang.org/x/sync/errgroup"
)

// RenderAll renders rpt with every formatter and returns the documents in
// the order of formatters. At most concurrency formatters run at a time
// (unlimited when concurrency <= 0).
//
// Formatters only read the tree, so sharing one report between them is safe
// as long as nobody modifies it while RenderAll runs. The first error
// cancels the remaining work and is returned.
func RenderAll(ctx context.Context, rpt *model.Report, formatters []Formatter, concurrency int) ([]string, error) {
	docs := make([]string, len(formatters))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, f := range formatters {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			doc, err := f.Format(rpt)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
