// ABOUTME: MCP prompt handlers for field sales workflows
// ABOUTME: Builds visit briefings, lead summaries, and a daily plan from live data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

type PromptHandlers struct {
	svc *fieldops.Service
}

func NewPromptHandlers(svc *fieldops.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// Prompts lists the prompts served by GetPrompt.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "visit-briefing",
			Description: "Prepare for a client visit",
			Arguments:   []*mcp.PromptArgument{{Name: "visit_id", Description: "Visit ID", Required: true}},
		},
		{
			Name:        "lead-summary",
			Description: "Summarize an opportunity and suggest next steps",
			Arguments:   []*mcp.PromptArgument{{Name: "lead_id", Description: "Opportunity ID", Required: true}},
		},
		{
			Name:        "daily-plan",
			Description: "Plan the day from pending visits and open leads",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "visit-briefing":
		return h.visitBriefing(args)
	case "lead-summary":
		return h.leadSummary(ctx, args)
	case "daily-plan":
		return h.dailyPlan(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (h *PromptHandlers) visitBriefing(args map[string]string) (*mcp.GetPromptResult, error) {
	raw, ok := args["visit_id"]
	if !ok {
		return nil, fmt.Errorf("visit_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid visit_id: %w", err)
	}
	visit, err := h.svc.Visit(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visit: %w", err)
	}

	var b strings.Builder
	b.WriteString("Help me prepare for this client visit:\n\n")
	fmt.Fprintf(&b, "Client: %s\n", visit.ClientName)
	fmt.Fprintf(&b, "Address: %s\n", visit.Address)
	fmt.Fprintf(&b, "Purpose: %s\n", visit.Type)
	fmt.Fprintf(&b, "Scheduled: %s\n", visit.ScheduledAt.Format("Mon Jan 2 15:04"))
	if visit.ContactPerson != "" {
		fmt.Fprintf(&b, "Contact: %s %s\n", visit.ContactPerson, visit.Phone)
	}
	fmt.Fprintf(&b, "Status: %s\n", visit.Status)
	if visit.Notes != "" {
		fmt.Fprintf(&b, "\nPrevious notes: %s\n", visit.Notes)
	}
	b.WriteString("\nSuggest talking points and which door products to bring up.")

	return userPrompt(fmt.Sprintf("Briefing for visit: %s", visit.ClientName), b.String()), nil
}

func (h *PromptHandlers) leadSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["lead_id"]
	if !ok {
		return nil, fmt.Errorf("lead_id is required")
	}
	lead, err := h.svc.Lead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lead: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please summarize this opportunity:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Stage: %s\n", lead.StageName)
	if lead.AccountName != "" {
		fmt.Fprintf(&b, "Account: %s\n", lead.AccountName)
	}
	if addr := lead.Address.String(); addr != "" {
		fmt.Fprintf(&b, "Address: %s\n", addr)
	}
	if lead.FabricatorName != "" {
		fmt.Fprintf(&b, "Fabricator: %s\n", lead.FabricatorName)
	} else {
		b.WriteString("Fabricator: not assigned\n")
	}
	for _, item := range lead.LineItems {
		fmt.Fprintf(&b, "- %s x%.0f at %.2f\n", item.ProductName, item.Quantity, item.UnitPrice)
	}
	if len(lead.LineItems) > 0 {
		fmt.Fprintf(&b, "Total: %.2f\n", lead.LineItemsTotal())
	}
	b.WriteString("\nRecommend the next step to move this lead forward.")

	return userPrompt(fmt.Sprintf("Summary for lead: %s", lead.Name), b.String()), nil
}

func (h *PromptHandlers) dailyPlan(ctx context.Context) (*mcp.GetPromptResult, error) {
	visits, err := h.svc.Visits(models.VisitPending)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visits: %w", err)
	}
	leads, err := h.svc.Leads(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	var b strings.Builder
	b.WriteString("Plan my field day.\n\nPending visits:\n")
	if len(visits) == 0 {
		b.WriteString("(none)\n")
	}
	for _, v := range visits {
		fmt.Fprintf(&b, "- %s, %s at %s\n", v.ClientName, v.Address, v.ScheduledAt.Format("Jan 2 15:04"))
	}
	b.WriteString("\nLeads:\n")
	for _, l := range leads {
		fmt.Fprintf(&b, "- %s (%s)\n", l.Name, l.StageName)
	}
	b.WriteString("\nSuggest a visit order and which leads need follow-up.")

	return userPrompt("Daily field plan", b.String()), nil
}
