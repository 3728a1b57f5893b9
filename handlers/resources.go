// ABOUTME: MCP resource handlers for exposing field data
// ABOUTME: Provides read-only JSON views of the dashboard, leads, visits, and travels
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
)

const resourceScheme = "fieldforce://"

type ResourceHandlers struct {
	svc *fieldops.Service
}

func NewResourceHandlers(svc *fieldops.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// Resources lists the static resources served by ReadResource.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: resourceScheme + "dashboard", Name: "dashboard", Description: "Visit, travel, and lead totals for today and this month", MIMEType: "application/json"},
		{URI: resourceScheme + "leads", Name: "leads", Description: "Open opportunities owned by the agent", MIMEType: "application/json"},
		{URI: resourceScheme + "visits", Name: "visits", Description: "Scheduled and completed client visits", MIMEType: "application/json"},
		{URI: resourceScheme + "travels", Name: "travels", Description: "Recent conveyance travels with punch-ins", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	var (
		v   any
		err error
	)
	switch strings.TrimPrefix(uri, resourceScheme) {
	case "dashboard":
		v, err = h.svc.Dashboard(ctx)
	case "leads":
		v, err = h.svc.Leads(ctx, "")
	case "visits":
		v, err = h.svc.Visits("")
	case "travels":
		v, err = h.svc.Travels(10)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
