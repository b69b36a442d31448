// Package render turns call-flow graphs into Graphviz documents.
//
// Drawing is delegated to the Graphviz `dot` binary; this package only
// produces DOT source and invokes the binary for image formats.
package render

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/smith-xyz/cairo-flowscan/pkg/config"
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
)

// ErrGraphvizNotFound is returned when an image format is requested but `dot` is not installed
var ErrGraphvizNotFound = errors.New("graphviz dot binary not found in PATH")

// sourceFormats are written as DOT source without invoking Graphviz
var sourceFormats = map[string]bool{"": true, "gv": true, "dot": true}

// Renderer writes call-flow graphs to disk
type Renderer struct {
	Format    string
	Directory string
	GraphAttr map[string]string
	NodeAttr  map[string]string
	EdgeAttr  map[string]string

	logger *utils.VerboseLogger
}

// NewRenderer creates a renderer from the call-flow section of the configuration
func NewRenderer(cfg config.CallFlowConfig, verbose bool) *Renderer {
	return &Renderer{
		Format:    cfg.Format,
		Directory: cfg.Directory,
		GraphAttr: cfg.GraphAttr,
		NodeAttr:  cfg.NodeAttr,
		EdgeAttr:  cfg.EdgeAttr,
		logger:    utils.NewVerboseLogger(verbose),
	}
}

// DOT returns the Graphviz source of graph.
// Edges to offsets without a node get a plain node keyed by the offset,
// which is what Graphviz does for undeclared node ids.
func (r *Renderer) DOT(graph *models.CallFlowGraph, name string) string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("comment", "Call flow graph of "+name)
	for _, k := range sortedKeys(r.GraphAttr) {
		g.Attr(k, r.GraphAttr[k])
	}
	g.NodeInitializer(func(n dot.Node) {
		for _, k := range sortedKeys(r.NodeAttr) {
			n.Attr(k, r.NodeAttr[k])
		}
	})
	g.EdgeInitializer(func(e dot.Edge) {
		for _, k := range sortedKeys(r.EdgeAttr) {
			e.Attr(k, r.EdgeAttr[k])
		}
	})

	// Graphviz ids stay the function offsets; dot otherwise numbers nodes itself
	keyed := func(key models.Offset) dot.Node {
		n := g.Node(key.String())
		n.Attr("id", key.String())
		return n
	}

	for _, node := range graph.Nodes {
		n := keyed(node.Key)
		n.Attr("label", quoteLabel(node.Label))
		setAttr(n, "shape", node.Shape)
		setAttr(n, "color", node.Color)
		setAttr(n, "style", node.Style)
		setAttr(n, "fillcolor", node.FillColor)
	}

	for _, edge := range graph.Edges {
		e := g.Edge(keyed(edge.Caller), keyed(edge.Callee))
		if label := edge.Label(); label != "" {
			e.Attr("label", label)
		}
	}

	return g.String()
}

// Render writes <directory>/<name>.gv and, for image formats, runs
// `dot -T<format>` next to it. It returns the path of the final artifact.
func (r *Renderer) Render(ctx context.Context, graph *models.CallFlowGraph, name string) (string, error) {
	sourcePath := filepath.Join(r.Directory, name+".gv")

	r.logger.Logf("Writing call-flow graph source to %s\n", sourcePath)
	if err := utils.SafeWriteFile(sourcePath, []byte(r.DOT(graph, name))); err != nil {
		return "", fmt.Errorf("failed to write graph source: %w", err)
	}

	format := strings.ToLower(r.Format)
	if sourceFormats[format] {
		return sourcePath, nil
	}

	if _, err := exec.LookPath("dot"); err != nil {
		return sourcePath, ErrGraphvizNotFound
	}

	outputPath := sourcePath + "." + format
	args := []string{"-T" + format, "-o", outputPath, sourcePath}
	r.logger.Logf("Executing dot %v\n", args)

	cmd := exec.CommandContext(ctx, "dot", args...) // #nosec G204 - format comes from configuration
	if output, err := cmd.CombinedOutput(); err != nil {
		return sourcePath, fmt.Errorf("dot failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return outputPath, nil
}

// setAttr skips empty values so Graphviz falls back to its own defaults
func setAttr(n dot.Node, key, value string) {
	if value != "" {
		n.Attr(key, value)
	}
}

// quoteLabel quotes a label while keeping Graphviz escape sequences such as \l intact
func quoteLabel(label string) dot.Literal {
	return dot.Literal(`"` + strings.ReplaceAll(label, `"`, `\"`) + `"`)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
