// Package export loads call-flow graphs and detector results into Neo4j.
package export

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/smith-xyz/cairo-flowscan/pkg/detectors"
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
)

// Neo4jExporter loads analysis results into a Neo4j database using batch UNWIND queries.
// Every node is scoped by contract so several contracts can share one database.
type Neo4jExporter struct {
	driver   neo4j.DriverWithContext
	contract string
	logger   *utils.VerboseLogger
}

// NewNeo4jExporter connects to Neo4j and verifies connectivity.
func NewNeo4jExporter(ctx context.Context, uri, user, password, contract string, verbose bool) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}
	return &Neo4jExporter{
		driver:   driver,
		contract: contract,
		logger:   utils.NewVerboseLogger(verbose),
	}, nil
}

// Close releases the underlying Neo4j driver resources.
func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

func (e *Neo4jExporter) runCypher(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, e.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// CreateIndexes ensures the required Neo4j indexes exist.
func (e *Neo4jExporter) CreateIndexes(ctx context.Context) error {
	e.logger.Log("Creating indexes...\n")
	indexes := []string{
		"CREATE INDEX cairo_func_key IF NOT EXISTS FOR (n:CairoFunction) ON (n.contract, n.offset)",
		"CREATE INDEX cairo_detector_key IF NOT EXISTS FOR (n:Detector) ON (n.contract, n.argument)",
	}
	for _, q := range indexes {
		if err := e.runCypher(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Clean removes previously exported data of this contract.
func (e *Neo4jExporter) Clean(ctx context.Context) error {
	e.logger.Logf("Cleaning existing data for contract %s...\n", e.contract)
	queries := []string{
		"MATCH (n:CairoFunction {contract: $contract}) DETACH DELETE n",
		"MATCH (n:Detector {contract: $contract}) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := e.runCypher(ctx, q, map[string]any{"contract": e.contract}); err != nil {
			return fmt.Errorf("failed to clean graph: %w", err)
		}
	}
	return nil
}

// LoadFunctions upserts one CairoFunction node per call-flow node.
func (e *Neo4jExporter) LoadFunctions(ctx context.Context, graph *models.CallFlowGraph) error {
	e.logger.Logf("Loading %d functions...\n", len(graph.Nodes))
	return e.runCypher(ctx,
		`UNWIND $batch AS row
		 MERGE (n:CairoFunction {contract: $contract, offset: row.offset})
		 SET n.name = row.name, n.label = row.label, n.shape = row.shape,
		     n.style = row.style, n.fillcolor = row.fillcolor`,
		map[string]any{"contract": e.contract, "batch": FunctionRows(graph)},
	)
}

// LoadCalls creates CALLS relationships carrying the call-site count.
// Dangling callees get a placeholder node flagged as unresolved.
func (e *Neo4jExporter) LoadCalls(ctx context.Context, graph *models.CallFlowGraph) error {
	e.logger.Logf("Loading %d calls...\n", len(graph.Edges))
	return e.runCypher(ctx,
		`UNWIND $batch AS row
		 MATCH (a:CairoFunction {contract: $contract, offset: row.caller})
		 MERGE (b:CairoFunction {contract: $contract, offset: row.callee})
		 ON CREATE SET b.unresolved = true
		 MERGE (a)-[r:CALLS]->(b)
		 SET r.count = row.count`,
		map[string]any{"contract": e.contract, "batch": CallRows(graph)},
	)
}

// LoadFindings upserts a Detector node per result with its findings.
func (e *Neo4jExporter) LoadFindings(ctx context.Context, results []detectors.Result) error {
	e.logger.Logf("Loading %d detector results...\n", len(results))
	return e.runCypher(ctx,
		`UNWIND $batch AS row
		 MERGE (d:Detector {contract: $contract, argument: row.argument})
		 SET d.name = row.name, d.impact = row.impact,
		     d.detected = row.detected, d.findings = row.findings`,
		map[string]any{"contract": e.contract, "batch": FindingRows(results)},
	)
}

// Export runs the full load sequence.
func (e *Neo4jExporter) Export(ctx context.Context, graph *models.CallFlowGraph, results []detectors.Result) error {
	steps := []func(context.Context) error{
		e.CreateIndexes,
		e.Clean,
		func(ctx context.Context) error { return e.LoadFunctions(ctx, graph) },
		func(ctx context.Context) error { return e.LoadCalls(ctx, graph) },
		func(ctx context.Context) error { return e.LoadFindings(ctx, results) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FunctionRows converts call-flow nodes into query parameters.
// Offsets are sent as int64, the only integer type Neo4j stores.
func FunctionRows(graph *models.CallFlowGraph) []map[string]any {
	batch := make([]map[string]any, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		batch = append(batch, map[string]any{
			"offset":    int64(n.Key),
			"name":      n.Name,
			"label":     n.Label,
			"shape":     n.Shape,
			"style":     n.Style,
			"fillcolor": n.FillColor,
		})
	}
	return batch
}

// CallRows converts call-flow edges into query parameters.
func CallRows(graph *models.CallFlowGraph) []map[string]any {
	batch := make([]map[string]any, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		batch = append(batch, map[string]any{
			"caller": int64(e.Caller),
			"callee": int64(e.Callee),
			"count":  int64(e.Count),
		})
	}
	return batch
}

// FindingRows converts detector results into query parameters.
func FindingRows(results []detectors.Result) []map[string]any {
	batch := make([]map[string]any, 0, len(results))
	for _, r := range results {
		findings := r.Findings
		if findings == nil {
			findings = []string{}
		}
		batch = append(batch, map[string]any{
			"argument": r.Argument,
			"name":     r.Name,
			"impact":   r.Impact.String(),
			"detected": r.Detected,
			"findings": findings,
		})
	}
	return batch
}
