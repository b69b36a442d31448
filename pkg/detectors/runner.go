package detectors

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

// Run executes the detectors concurrently over prog and returns their results
// in the same order as detectors. The program is shared read-only.
func Run(ctx context.Context, prog *models.Program, detectors []Detector) ([]Result, error) {
	results := make([]Result, len(detectors))

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = d.Detect(prog)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Detected filters results down to the detectors that reported something
func Detected(results []Result) []Result {
	var detected []Result
	for _, r := range results {
		if r.Detected {
			detected = append(detected, r)
		}
	}
	return detected
}
