package callgraph

import (
	"reflect"
	"testing"

	"github.com/smith-xyz/cairo-flowscan/pkg/config"
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		CallFlow: config.CallFlowConfig{
			Styles: map[string]models.NodeStyle{
				config.RoleDefault:    {Shape: "oval", Color: "black", Style: "solid", FillColor: "white"},
				config.RoleEntryPoint: {Shape: "doubleoctagon", Style: "filled,solid"},
				config.RoleImport:     {Shape: "box", Style: "filled", FillColor: "lightcoral"},
				"constructor":         {Style: "filled", FillColor: "hotpink"},
				"l1_handler":          {Style: "filled", FillColor: "plum"},
				"external":            {Shape: "star", Style: "filled", FillColor: "lightskyblue"},
				"view":                {Style: "dashed", FillColor: "springgreen3"},
				"raw_input":           {Style: "filled", FillColor: "orange"},
				"raw_output":          {Style: "filled", FillColor: "gold"},
				"known_ap_change":     {Style: "filled", FillColor: "yellow"},
			},
		},
	}
}

func name(s string) *string {
	return &s
}

func directCall(callee models.Offset) models.Instruction {
	return models.Instruction{Opcode: "CALL", Call: models.CallDirect, CallOffset: callee, CallXrefFuncName: name("callee")}
}

func relativeCall(callee models.Offset) models.Instruction {
	return models.Instruction{Opcode: "CALL", Call: models.CallDirect, CallOffset: callee}
}

func indirectCall() models.Instruction {
	return models.Instruction{Opcode: "CALL", Call: models.CallIndirect}
}

func TestNodeDefaultStyle(t *testing.T) {
	g := NewGenerator(testConfig(), false)

	node := g.Node(&models.Function{Name: "__main__.helper", OffsetStart: 7})
	expected := models.CallFlowNode{
		Key:       7,
		Name:      "__main__.helper",
		Label:     "__main__.helper",
		Shape:     "oval",
		Color:     "black",
		Style:     "solid",
		FillColor: "white",
	}
	if node != expected {
		t.Errorf("Node() = %+v, want %+v", node, expected)
	}
}

func TestNodePrecedence(t *testing.T) {
	g := NewGenerator(testConfig(), false)

	tests := []struct {
		name      string
		fn        *models.Function
		shape     string
		style     string
		fillColor string
	}{
		{
			name:      "entry point overrides shape and style",
			fn:        &models.Function{Name: "f", EntryPoint: true},
			shape:     "doubleoctagon",
			style:     "filled,solid",
			fillColor: "white",
		},
		{
			name:      "import overrides style and fill but not shape",
			fn:        &models.Function{Name: "f", IsImport: true},
			shape:     "oval",
			style:     "filled",
			fillColor: "lightcoral",
		},
		{
			name:      "import overrides entry point style, keeps entry point shape",
			fn:        &models.Function{Name: "f", EntryPoint: true, IsImport: true},
			shape:     "doubleoctagon",
			style:     "filled",
			fillColor: "lightcoral",
		},
		{
			name:      "decorator overrides entry point style but never shape",
			fn:        &models.Function{Name: "f", EntryPoint: true, Decorators: []string{"external"}},
			shape:     "doubleoctagon",
			style:     "filled",
			fillColor: "lightskyblue",
		},
		{
			name:      "last recognized decorator wins",
			fn:        &models.Function{Name: "f", Decorators: []string{"external", "view"}},
			shape:     "oval",
			style:     "dashed",
			fillColor: "springgreen3",
		},
		{
			name:      "unrecognized decorators are ignored",
			fn:        &models.Function{Name: "f", Decorators: []string{"constructor", "storage_var"}},
			shape:     "oval",
			style:     "filled",
			fillColor: "hotpink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := g.Node(tt.fn)
			if node.Shape != tt.shape {
				t.Errorf("Shape = %q, want %q", node.Shape, tt.shape)
			}
			if node.Style != tt.style {
				t.Errorf("Style = %q, want %q", node.Style, tt.style)
			}
			if node.FillColor != tt.fillColor {
				t.Errorf("FillColor = %q, want %q", node.FillColor, tt.fillColor)
			}
			if node.Color != "black" {
				t.Errorf("Color = %q, want the default color", node.Color)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name     string
		fn       *models.Function
		expected string
	}{
		{"plain", &models.Function{Name: "__main__.f"}, "__main__.f"},
		{"indirect call", &models.Function{Name: "f", Instructions: []models.Instruction{directCall(1), indirectCall()}}, "f **"},
		{"decorators", &models.Function{Name: "f", Decorators: []string{"external", "view"}}, `f\l['external', 'view']`},
		{"indirect call and decorator", &models.Function{Name: "f", Decorators: []string{"view"}, Instructions: []models.Instruction{indirectCall()}}, `f **\l['view']`},
		{"quote in decorator", &models.Function{Name: "f", Decorators: []string{"it's"}}, `f\l["it's"]`},
		{"empty decorator list", &models.Function{Name: "f", Decorators: []string{}}, "f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.fn); got != tt.expected {
				t.Errorf("Label() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGenerateNodeInvariant(t *testing.T) {
	functions := []*models.Function{
		{Name: "a", OffsetStart: 0},
		{Name: "b", OffsetStart: 10},
		{Name: "c", OffsetStart: 20},
	}

	graph := NewGenerator(testConfig(), false).Generate(functions)
	if len(graph.Nodes) != len(functions) {
		t.Fatalf("Expected %d nodes, got %d", len(functions), len(graph.Nodes))
	}

	keys := make(map[models.Offset]bool)
	for i, n := range graph.Nodes {
		if keys[n.Key] {
			t.Errorf("Duplicate node key %s", n.Key)
		}
		keys[n.Key] = true
		if n.Key != functions[i].OffsetStart {
			t.Errorf("Node %d key = %s, want %s", i, n.Key, functions[i].OffsetStart)
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	graph := NewGenerator(testConfig(), false).Generate(nil)
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Errorf("Expected empty graph, got %d nodes and %d edges", len(graph.Nodes), len(graph.Edges))
	}
}

func TestGenerateEdges(t *testing.T) {
	tests := []struct {
		name      string
		functions []*models.Function
		edges     []models.CallFlowEdge
		labels    []string
	}{
		{
			name: "repeated call is counted once with a label",
			functions: []*models.Function{
				{Name: "A", OffsetStart: 1, Instructions: []models.Instruction{directCall(2), directCall(2), directCall(3)}},
				{Name: "B", OffsetStart: 2},
				{Name: "C", OffsetStart: 3},
			},
			edges:  []models.CallFlowEdge{{Caller: 1, Callee: 2, Count: 2}, {Caller: 1, Callee: 3, Count: 1}},
			labels: []string{"2", ""},
		},
		{
			name: "indirect calls produce no edge",
			functions: []*models.Function{
				{Name: "dispatch", OffsetStart: 5, Instructions: []models.Instruction{indirectCall()}},
			},
		},
		{
			name: "relative calls produce no edge",
			functions: []*models.Function{
				{Name: "f", OffsetStart: 5, Instructions: []models.Instruction{relativeCall(9), relativeCall(9)}},
			},
		},
		{
			name: "self and dangling edges are kept",
			functions: []*models.Function{
				{Name: "loop", OffsetStart: 4, Instructions: []models.Instruction{directCall(4), directCall(4), directCall(99)}},
			},
			edges:  []models.CallFlowEdge{{Caller: 4, Callee: 4, Count: 2}, {Caller: 4, Callee: 99, Count: 1}},
			labels: []string{"2", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := NewGenerator(testConfig(), false).Generate(tt.functions)
			if len(graph.Edges) != len(tt.edges) {
				t.Fatalf("Expected %d edges, got %v", len(tt.edges), graph.Edges)
			}
			for i, e := range graph.Edges {
				if e != tt.edges[i] {
					t.Errorf("Edge %d = %+v, want %+v", i, e, tt.edges[i])
				}
				if got := e.Label(); got != tt.labels[i] {
					t.Errorf("Edge %d label = %q, want %q", i, got, tt.labels[i])
				}
			}
		})
	}
}

func TestGenerateIndirectOnlyLabel(t *testing.T) {
	fn := &models.Function{Name: "dispatch", OffsetStart: 5, Instructions: []models.Instruction{indirectCall()}}

	graph := NewGenerator(testConfig(), false).Generate([]*models.Function{fn})
	if len(graph.Nodes) != 1 || graph.Nodes[0].Label != "dispatch **" {
		t.Errorf("Unexpected nodes %+v", graph.Nodes)
	}
}

func TestGenerateDangling(t *testing.T) {
	fn := &models.Function{Name: "loop", OffsetStart: 4, Instructions: []models.Instruction{directCall(4), directCall(99)}}

	// verbose mode reports dangling edges without changing the graph
	quiet := NewGenerator(testConfig(), false).Generate([]*models.Function{fn})
	verbose := NewGenerator(testConfig(), true).Generate([]*models.Function{fn})
	if !reflect.DeepEqual(quiet, verbose) {
		t.Errorf("Verbose generation differs: %+v vs %+v", quiet, verbose)
	}

	dangling := quiet.Dangling()
	if len(dangling) != 1 || dangling[0].Callee != 99 {
		t.Errorf("Expected one dangling edge to 99, got %v", dangling)
	}
}

func TestAggregateCallsOrderIndependent(t *testing.T) {
	calls := []Call{{1, 2}, {1, 3}, {1, 2}, {2, 3}, {1, 2}, {2, 3}}
	reversed := make([]Call, len(calls))
	for i, c := range calls {
		reversed[len(calls)-1-i] = c
	}

	asSet := func(edges []models.CallFlowEdge) map[Call]int {
		set := make(map[Call]int)
		for _, e := range edges {
			set[Call{e.Caller, e.Callee}] = e.Count
		}
		return set
	}

	forward := asSet(AggregateCalls(calls))
	backward := asSet(AggregateCalls(reversed))
	expected := map[Call]int{{1, 2}: 3, {1, 3}: 1, {2, 3}: 2}

	if !reflect.DeepEqual(forward, expected) {
		t.Errorf("AggregateCalls() = %v, want %v", forward, expected)
	}
	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("Aggregation depends on call order: %v vs %v", forward, backward)
	}
}

func TestGenerateIsRepeatable(t *testing.T) {
	functions := []*models.Function{
		{Name: "A", OffsetStart: 1, Instructions: []models.Instruction{directCall(2), directCall(2)}},
		{Name: "B", OffsetStart: 2, Instructions: []models.Instruction{directCall(1)}},
	}

	g := NewGenerator(testConfig(), false)
	if first, second := g.Generate(functions), g.Generate(functions); !reflect.DeepEqual(first, second) {
		t.Errorf("Generate() is not repeatable: %+v vs %+v", first, second)
	}
}

func TestSummarize(t *testing.T) {
	functions := []*models.Function{
		{Name: "A", OffsetStart: 1, EntryPoint: true, Instructions: []models.Instruction{directCall(1), directCall(2), directCall(2), indirectCall()}},
		{Name: "B", OffsetStart: 2, IsImport: true, Instructions: []models.Instruction{directCall(50)}},
	}

	graph := NewGenerator(testConfig(), false).Generate(functions)
	summary := Summarize(functions, graph)

	expected := models.CallFlowSummary{
		TotalFunctions:  2,
		EntryPoints:     1,
		Imports:         1,
		IndirectCallers: 1,
		TotalEdges:      3,
		TotalCallSites:  4,
		DanglingEdges:   1,
		SelfCalls:       1,
	}
	if summary != expected {
		t.Errorf("Summarize() = %+v, want %+v", summary, expected)
	}
}

func TestNewGeneratorDefaultConfig(t *testing.T) {
	g := NewGenerator(nil, false)
	if node := g.Node(&models.Function{Name: "f", EntryPoint: true}); node.Shape != "doubleoctagon" {
		t.Errorf("Shape = %q, want doubleoctagon from the embedded config", node.Shape)
	}
}
