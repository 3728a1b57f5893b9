// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool for travel routes and the lead pipeline
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
	"github.com/harperreed/fieldforce/viz"
)

type VizHandlers struct {
	svc *fieldops.Service
}

func NewVizHandlers(svc *fieldops.Service) *VizHandlers {
	return &VizHandlers{svc: svc}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: route or pipeline"`
	EntityID string `json:"entity_id,omitempty" jsonschema:"Travel UUID for route graphs (defaults to the active travel)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	var graph *viz.Rendered
	var err error

	switch input.Type {
	case "":
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")

	case "route":
		travel, travelErr := h.routeTravel(input.EntityID)
		if travelErr != nil {
			return nil, GenerateGraphOutput{}, travelErr
		}
		graph, err = viz.RouteGraph(ctx, travel)

	case "pipeline":
		leads, leadsErr := h.svc.Leads(ctx, "")
		if leadsErr != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to fetch leads: %w", leadsErr)
		}
		graph, err = viz.PipelineGraph(ctx, leads)

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: route, pipeline)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: graph.DOT,
		NodeCount: graph.Nodes,
		EdgeCount: graph.Edges,
	}, nil
}

func (h *VizHandlers) routeTravel(rawID string) (*models.Travel, error) {
	if rawID != "" {
		id, err := parseID("travel", rawID)
		if err != nil {
			return nil, err
		}
		return h.svc.Travel(id)
	}
	travel, err := h.svc.ActiveTravel()
	if err != nil {
		return nil, err
	}
	if travel == nil {
		return nil, fmt.Errorf("no travel in progress: pass entity_id")
	}
	return travel, nil
}
