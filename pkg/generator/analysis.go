package generator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/smith-xyz/cairo-flowscan/pkg/callgraph"
	"github.com/smith-xyz/cairo-flowscan/pkg/config"
	"github.com/smith-xyz/cairo-flowscan/pkg/detectors"
	"github.com/smith-xyz/cairo-flowscan/pkg/loader"
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/output"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
)

// Options controls a single analysis run
type Options struct {
	Include []string // detector keys; empty means all
	Exclude []string
	Verbose bool
}

// Analysis holds everything produced from one disassembly
type Analysis struct {
	Program *models.Program
	Results []detectors.Result
	Graph   *models.CallFlowGraph
	Report  *output.Report
}

// AnalyzeFile loads a disassembly dump and analyzes it
func AnalyzeFile(ctx context.Context, path string, cfg *config.Config, opts Options) (*Analysis, error) {
	prog, err := loader.NewLoader(opts.Verbose).LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, path, prog, cfg, opts)
}

// Analyze runs the selected detectors and the call-flow generator concurrently.
// Both only read prog.
func Analyze(ctx context.Context, source string, prog *models.Program, cfg *config.Config, opts Options) (*Analysis, error) {
	logger := utils.NewVerboseLogger(opts.Verbose)

	// Command-line includes replace the configured ones; excludes accumulate
	include := cfg.Detectors.Include
	if len(opts.Include) > 0 {
		include = opts.Include
	}
	exclude := append(append([]string{}, cfg.Detectors.Exclude...), opts.Exclude...)

	selected, err := detectors.Select(include, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to select detectors: %w", err)
	}
	logger.Logf("Running %d detectors over %d functions\n", len(selected), len(prog.Functions))

	analysis := &Analysis{Program: prog}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := detectors.Run(gctx, prog, selected)
		if err != nil {
			return fmt.Errorf("detector run failed: %w", err)
		}
		analysis.Results = results
		return nil
	})
	g.Go(func() error {
		analysis.Graph = callgraph.NewGenerator(cfg, opts.Verbose).Generate(prog.Functions)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := callgraph.Summarize(prog.Functions, analysis.Graph)
	analysis.Report = output.NewReport(source, analysis.Results, summary)

	return analysis, nil
}
