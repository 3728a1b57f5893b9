// ABOUTME: Lead MCP tool handlers
// ABOUTME: Implements dashboard, list_leads, get_lead, and assign_fabricator tools
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

type LeadHandlers struct {
	svc *fieldops.Service
}

func NewLeadHandlers(svc *fieldops.Service) *LeadHandlers {
	return &LeadHandlers{svc: svc}
}

type DashboardInput struct{}

func (h *LeadHandlers) Dashboard(ctx context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, models.DashboardStats, error) {
	stats, err := h.svc.Dashboard(ctx)
	if err != nil {
		return nil, models.DashboardStats{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return nil, *stats, nil
}

type ListLeadsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive substring of the lead name"`
}

type ListLeadsOutput struct {
	Leads []models.Lead `json:"leads"`
	Count int           `json:"count"`
}

func (h *LeadHandlers) ListLeads(ctx context.Context, request *mcp.CallToolRequest, input ListLeadsInput) (*mcp.CallToolResult, ListLeadsOutput, error) {
	leads, err := h.svc.Leads(ctx, input.Query)
	if err != nil {
		return nil, ListLeadsOutput{}, fmt.Errorf("failed to list leads: %w", err)
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	return nil, ListLeadsOutput{Leads: leads, Count: len(leads)}, nil
}

type GetLeadInput struct {
	ID string `json:"id" jsonschema:"Opportunity ID (required)"`
}

func (h *LeadHandlers) GetLead(ctx context.Context, request *mcp.CallToolRequest, input GetLeadInput) (*mcp.CallToolResult, models.Lead, error) {
	if input.ID == "" {
		return nil, models.Lead{}, fmt.Errorf("id is required")
	}
	lead, err := h.svc.Lead(ctx, input.ID)
	if err != nil {
		return nil, models.Lead{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return nil, *lead, nil
}

type AssignFabricatorInput struct {
	ID         string `json:"id" jsonschema:"Opportunity ID (required)"`
	Fabricator string `json:"fabricator" jsonschema:"Fabricator name from the approved list (required)"`
}

type NoticeOutput struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func noticeOutput(n fieldops.Notice) NoticeOutput {
	return NoticeOutput{Title: n.Title, Message: n.Message}
}

func (h *LeadHandlers) AssignFabricator(ctx context.Context, request *mcp.CallToolRequest, input AssignFabricatorInput) (*mcp.CallToolResult, NoticeOutput, error) {
	if input.ID == "" {
		return nil, NoticeOutput{}, fmt.Errorf("id is required")
	}
	if err := h.svc.AssignFabricator(ctx, input.ID, input.Fabricator); err != nil {
		return nil, NoticeOutput{}, err
	}
	return nil, noticeOutput(fieldops.NoticeFabricatorAssigned), nil
}
