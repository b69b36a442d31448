package callgraph

import (
	"strings"

	"github.com/smith-xyz/cairo-flowscan/pkg/config"
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
)

// IndirectCallMarker is appended to the label of functions performing indirect calls
const IndirectCallMarker = " **"

// decoratorLineBreak is Graphviz's left-justified line break
const decoratorLineBreak = `\l`

// Generator builds call-flow graphs from disassembled functions
type Generator struct {
	styles map[string]models.NodeStyle
	logger *utils.VerboseLogger
}

// NewGenerator creates a new call-flow generator using the style table of cfg.
// A nil cfg falls back to the default configuration.
func NewGenerator(cfg *config.Config, verbose bool) *Generator {
	if cfg == nil {
		var err error
		cfg, err = config.DefaultConfig()
		if err != nil {
			// Fallback to a basic config if default config fails to load
			cfg = &config.Config{}
		}
	}

	return &Generator{
		styles: cfg.CallFlow.Styles,
		logger: utils.NewVerboseLogger(verbose),
	}
}

// Generate creates the call-flow graph: one node per function and one edge
// per distinct caller -> callee pair.
func (g *Generator) Generate(functions []*models.Function) *models.CallFlowGraph {
	g.logger.Logf("Building call-flow graph for %d functions\n", len(functions))

	graph := &models.CallFlowGraph{
		Nodes: make([]models.CallFlowNode, 0, len(functions)),
	}
	for _, fn := range functions {
		graph.Nodes = append(graph.Nodes, g.Node(fn))
	}

	calls := CollectCalls(functions)
	graph.Edges = AggregateCalls(calls)

	g.logger.Logf("Collected %d call sites into %d edges\n", len(calls), len(graph.Edges))
	if g.logger.IsVerbose() {
		for _, e := range graph.Dangling() {
			g.logger.DebugLogf("edge %s -> %s points to an offset without a function\n", e.Caller, e.Callee)
		}
	}

	return graph
}

// Node classifies a single function. Later rules override earlier ones:
// default, then entry point, then import, then each recognized decorator in order.
// The shape is never changed by import or decorator rules.
func (g *Generator) Node(fn *models.Function) models.CallFlowNode {
	def := g.styles[config.RoleDefault]
	node := models.CallFlowNode{
		Key:       fn.OffsetStart,
		Name:      fn.Name,
		Shape:     def.Shape,
		Color:     def.Color,
		Style:     def.Style,
		FillColor: def.FillColor,
	}

	if fn.EntryPoint {
		entry := g.styles[config.RoleEntryPoint]
		node.Shape = entry.Shape
		node.Style = entry.Style
	}

	if fn.IsImport {
		imp := g.styles[config.RoleImport]
		node.Style = imp.Style
		node.FillColor = imp.FillColor
	}

	for _, decorator := range fn.Decorators {
		if !config.IsRecognizedDecorator(decorator) {
			continue
		}
		style := g.styles[decorator]
		node.Style = style.Style
		node.FillColor = style.FillColor
	}

	node.Label = Label(fn)
	return node
}

// Label builds the node label: the function name, the indirect call marker
// and the decorator list on its own line.
func Label(fn *models.Function) string {
	var sb strings.Builder
	sb.WriteString(fn.Name)

	if fn.HasIndirectCall() {
		sb.WriteString(IndirectCallMarker)
	}

	if len(fn.Decorators) > 0 {
		sb.WriteString(decoratorLineBreak)
		sb.WriteString(decoratorList(fn.Decorators))
	}

	return sb.String()
}

// decoratorList renders decorators as a quoted list, e.g. ['external', 'view'].
// A name containing a single quote is wrapped in double quotes instead.
func decoratorList(decorators []string) string {
	quoted := make([]string, len(decorators))
	for i, d := range decorators {
		if strings.Contains(d, "'") && !strings.Contains(d, `"`) {
			quoted[i] = `"` + d + `"`
		} else {
			quoted[i] = "'" + strings.ReplaceAll(d, "'", `\'`) + "'"
		}
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Call is a raw caller -> callee occurrence produced by one instruction
type Call struct {
	Caller models.Offset
	Callee models.Offset
}

// CollectCalls scans every instruction and records direct calls with a resolved target.
// Relative calls and indirect calls produce nothing: their target is unknown statically.
func CollectCalls(functions []*models.Function) []Call {
	var calls []Call
	for _, fn := range functions {
		for i := range fn.Instructions {
			callee, ok := fn.Instructions[i].Callee()
			if !ok {
				continue
			}
			calls = append(calls, Call{Caller: fn.OffsetStart, Callee: callee})
		}
	}
	return calls
}

// AggregateCalls collapses duplicate pairs into a single counted edge.
// Edges are emitted in order of first occurrence.
func AggregateCalls(calls []Call) []models.CallFlowEdge {
	index := make(map[Call]int, len(calls))
	edges := make([]models.CallFlowEdge, 0, len(calls))

	for _, c := range calls {
		if i, ok := index[c]; ok {
			edges[i].Count++
			continue
		}
		index[c] = len(edges)
		edges = append(edges, models.CallFlowEdge{Caller: c.Caller, Callee: c.Callee, Count: 1})
	}

	return edges
}

// Summarize computes call-flow statistics for reports
func Summarize(functions []*models.Function, graph *models.CallFlowGraph) models.CallFlowSummary {
	summary := models.CallFlowSummary{
		TotalFunctions: len(graph.Nodes),
		TotalEdges:     len(graph.Edges),
		DanglingEdges:  len(graph.Dangling()),
	}

	for _, fn := range functions {
		if fn.EntryPoint {
			summary.EntryPoints++
		}
		if fn.IsImport {
			summary.Imports++
		}
		if fn.HasIndirectCall() {
			summary.IndirectCallers++
		}
	}

	for _, e := range graph.Edges {
		summary.TotalCallSites += e.Count
		if e.Caller == e.Callee {
			summary.SelfCalls++
		}
	}

	return summary
}
