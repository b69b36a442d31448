package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/smith-xyz/cairo-flowscan/pkg/config"
	"github.com/smith-xyz/cairo-flowscan/pkg/detectors"
	"github.com/smith-xyz/cairo-flowscan/pkg/export"
	"github.com/smith-xyz/cairo-flowscan/pkg/generator"
	"github.com/smith-xyz/cairo-flowscan/pkg/output"
	"github.com/smith-xyz/cairo-flowscan/pkg/render"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
	"github.com/smith-xyz/cairo-flowscan/pkg/version"
)

func main() {
	var (
		inputFile     = flag.String("input", "", "Path to the disassembly dump (JSON or YAML)")
		configFile    = flag.String("config", "", "Path to a TOML configuration file (default: embedded config with local override)")
		include       = flag.String("detectors", "", "Comma-separated list of detectors to run (default: all)")
		exclude       = flag.String("exclude", "", "Comma-separated list of detectors to skip")
		reportFormat  = flag.String("format", output.FormatText, "Report format (text, json, yaml)")
		outputFile    = flag.String("o", "", "Write the report to this file instead of stdout")
		name          = flag.String("name", "", "Contract name used for the graph file and the Neo4j scope (default: derived from -input)")
		graph         = flag.Bool("graph", false, "Render the call-flow graph")
		graphFormat   = flag.String("graph-format", "", "Call-flow output format (gv, dot, pdf, png, svg); overrides config")
		graphDir      = flag.String("graph-dir", "", "Directory for call-flow output; overrides config")
		neo4jExport   = flag.Bool("neo4j", false, "Export the call-flow graph and findings to Neo4j")
		listDetectors = flag.Bool("list-detectors", false, "List available detectors and exit")
		verbose       = flag.Bool("v", false, "Verbose output")
		showVersion   = flag.Bool("version", false, "Show version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersionString())
		os.Exit(0)
	}

	if *listDetectors {
		printDetectors()
		os.Exit(0)
	}

	if *inputFile == "" {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Usage: cairo-flowscan [flags] -input <dump.json|dump.yaml>")
			flag.PrintDefaults()
			os.Exit(2)
		}
		*inputFile = flag.Arg(0)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *graphFormat != "" {
		cfg.CallFlow.Format = *graphFormat
	}
	if *graphDir != "" {
		cfg.CallFlow.Directory = *graphDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	instrumentation := utils.NewInstrumentation(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	tracker := instrumentation.NewPhaseTracker("cairo-flowscan")

	tracker.StartPhase("analyze")
	analysis, err := generator.AnalyzeFile(ctx, *inputFile, cfg, generator.Options{
		Include: utils.ParseArgumentKeys(*include),
		Exclude: utils.ParseArgumentKeys(*exclude),
		Verbose: *verbose,
	})
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	contract := *name
	if contract == "" {
		contract = contractName(*inputFile)
	}

	if *graph {
		tracker.StartPhase("render")
		path, err := render.NewRenderer(cfg.CallFlow, *verbose).Render(ctx, analysis.Graph, contract)
		switch {
		case errors.Is(err, render.ErrGraphvizNotFound):
			fmt.Fprintf(os.Stderr, "Warning: %v, graph source kept at %s\n", err, path)
			analysis.Report.GraphPath = path
		case err != nil:
			log.Fatalf("Failed to render call-flow graph: %v", err)
		default:
			analysis.Report.GraphPath = path
		}
	}

	if *neo4jExport {
		tracker.StartPhase("export")
		err := instrumentation.TimedOperation("neo4j-export", func() error {
			return exportToNeo4j(ctx, cfg.Neo4j, contract, analysis, *verbose)
		})
		if err != nil {
			log.Fatalf("Neo4j export failed: %v", err)
		}
	}

	tracker.StartPhase("report")
	if *outputFile != "" {
		err = writeReportToFile(analysis.Report, *outputFile, *reportFormat)
	} else {
		err = output.Write(os.Stdout, analysis.Report, *reportFormat)
	}
	if err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	tracker.Complete(len(analysis.Program.Functions))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig()
	}
	return config.LoadFromFile(path)
}

// genericDumpNames carry no contract identity; the parent directory names the contract instead
var genericDumpNames = map[string]bool{
	"dump":        true,
	"disassembly": true,
	"program":     true,
	"output":      true,
}

// contractName derives the graph and export name from the dump file name
func contractName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if !genericDumpNames[strings.ToLower(stem)] {
		return stem
	}

	parent := filepath.Base(filepath.Dir(filepath.Clean(path)))
	if parent == "." || parent == string(filepath.Separator) {
		return stem
	}
	return parent
}

func exportToNeo4j(ctx context.Context, cfg config.Neo4jConfig, contract string, analysis *generator.Analysis, verbose bool) error {
	exporter, err := export.NewNeo4jExporter(ctx, cfg.URI, cfg.User, cfg.Password, contract, verbose)
	if err != nil {
		return err
	}
	defer exporter.Close(ctx)

	return exporter.Export(ctx, analysis.Graph, analysis.Results)
}

// writeReportToFile writes a report to the specified file
func writeReportToFile(report *output.Report, filename, format string) error {
	file, err := utils.SafeCreateFile(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", filename, err)
	}
	defer file.Close()

	if err := output.Write(file, report, format); err != nil {
		return fmt.Errorf("failed to write report to file %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Report successfully written to: %s\n", filename)
	return nil
}

func printDetectors() {
	for _, d := range detectors.All() {
		fmt.Printf("%-16s %-14s %s\n", d.Argument(), d.Impact(), d.Help())
	}
}
