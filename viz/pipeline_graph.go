// ABOUTME: GraphViz rendering of the lead pipeline
// ABOUTME: Stage nodes in pipeline order with each lead attached to its stage
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/fieldforce/models"
)

// PipelineGraph renders leads grouped by stage as DOT.
func PipelineGraph(ctx context.Context, leads []models.Lead) (*Rendered, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel("Lead Pipeline")

	groups := GroupByStage(leads)
	out := &Rendered{}

	var prev *cgraph.Node
	for i, group := range groups {
		stage, err := graph.CreateNodeByName(fmt.Sprintf("stage_%d", i))
		if err != nil {
			return nil, fmt.Errorf("failed to create stage node: %w", err)
		}
		stage.SetLabel(fmt.Sprintf("%s\n(%d)", group.Stage, len(group.Leads)))
		stage.SetShape("box")
		stage.SetStyle("filled")
		stage.SetFillColor("lightblue")
		out.Nodes++

		if prev != nil {
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("flow_%d", i), prev, stage)
			if err != nil {
				return nil, fmt.Errorf("failed to create stage edge: %w", err)
			}
			edge.SetStyle("bold")
			out.Edges++
		}
		prev = stage

		for j, lead := range group.Leads {
			node, err := graph.CreateNodeByName(fmt.Sprintf("lead_%d_%d", i, j))
			if err != nil {
				return nil, fmt.Errorf("failed to create lead node: %w", err)
			}
			label := lead.Name
			if lead.FabricatorName != "" {
				label += "\n" + lead.FabricatorName
			}
			node.SetLabel(label)
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")
			out.Nodes++

			edge, err := graph.CreateEdgeByName(fmt.Sprintf("in_%d_%d", i, j), stage, node)
			if err != nil {
				return nil, fmt.Errorf("failed to create lead edge: %w", err)
			}
			edge.SetStyle("dotted")
			edge.SetDir("none")
			out.Edges++
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	out.DOT = buf.String()
	return out, nil
}
