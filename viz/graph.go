// ABOUTME: Graphviz plumbing shared by the CRM graphs
// ABOUTME: Builds a graph through a callback and renders it as DOT or SVG
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/crmgrid/db"
)

// Output formats accepted by the graph generators.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

type GraphGenerator struct {
	client *db.Client
}

func NewGraphGenerator(client *db.Client) *GraphGenerator {
	return &GraphGenerator{client: client}
}

func graphvizFormat(format string) (graphviz.Format, error) {
	switch format {
	case "", FormatDOT:
		return graphviz.XDOT, nil
	case FormatSVG:
		return graphviz.SVG, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q", format)
	}
}

// render creates a graph, lets build populate it and renders it in format.
func render(ctx context.Context, format string, build func(*cgraph.Graph) error) (string, error) {
	gvFormat, err := graphvizFormat(format)
	if err != nil {
		return "", err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

func styledNode(g *cgraph.Graph, name, label, shape, fill string) (*cgraph.Node, error) {
	node, err := g.CreateNodeByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create node %s: %w", name, err)
	}
	node.SetLabel(label)
	node.SetShape(cgraph.Shape(shape))
	node.SetStyle("filled")
	node.SetFillColor(fill)
	return node, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
