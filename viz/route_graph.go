// ABOUTME: GraphViz rendering of a travel's punch-in route
// ABOUTME: One node per punch-in, edges labelled with the leg distance in km
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/fieldforce/models"
)

var punchColors = map[string]string{
	models.PunchStart:      "lightgreen",
	models.PunchArrival:    "lightblue",
	models.PunchDeparture:  "lightyellow",
	models.PunchCheckpoint: "white",
	models.PunchStop:       "lightpink",
}

// Rendered is a graph in DOT form with its size.
type Rendered struct {
	DOT   string
	Nodes int
	Edges int
}

// RouteGraph renders travel as DOT. Legs between punch-ins that both carry
// coordinates are labelled with their great-circle distance.
func RouteGraph(ctx context.Context, travel *models.Travel) (*Rendered, error) {
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
	graph.SetLabel(fmt.Sprintf("%s (%s, %.1f km)", travel.Title, travel.Status, travel.DistanceKM()))

	out := &Rendered{}
	var prev *cgraph.Node
	var prevPunch *models.PunchIn
	for i := range travel.PunchIns {
		p := &travel.PunchIns[i]

		node, err := graph.CreateNodeByName(fmt.Sprintf("punch_%d", i))
		if err != nil {
			return nil, fmt.Errorf("failed to create punch node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s %s", p.Location, strings.ToUpper(p.Kind), p.At.Local().Format("15:04")))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(punchColor(p.Kind))
		out.Nodes++

		if prev != nil {
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("leg_%d", i), prev, node)
			if err != nil {
				return nil, fmt.Errorf("failed to create leg edge: %w", err)
			}
			out.Edges++
			if prevPunch.HasCoordinates() && p.HasCoordinates() {
				km := models.HaversineKM(*prevPunch.Latitude, *prevPunch.Longitude, *p.Latitude, *p.Longitude)
				edge.SetLabel(fmt.Sprintf("%.1f km", km))
			} else {
				edge.SetStyle("dashed")
			}
		}
		prev, prevPunch = node, p
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	out.DOT = buf.String()
	return out, nil
}

func punchColor(kind string) string {
	if c, ok := punchColors[kind]; ok {
		return c
	}
	return "white"
}
