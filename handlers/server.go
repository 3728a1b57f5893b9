// ABOUTME: Builds the MCP server with every field and graph tool, resource, and prompt
// ABOUTME: Shared by the stdio command and the handler tests
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
)

// NewServer registers the field sales tools on a new MCP server.
func NewServer(svc *fieldops.Service, version string) *mcp.Server {
	leadHandlers := NewLeadHandlers(svc)
	visitHandlers := NewVisitHandlers(svc)
	travelHandlers := NewTravelHandlers(svc)
	resourceHandlers := NewResourceHandlers(svc)
	promptHandlers := NewPromptHandlers(svc)
	vizHandlers := NewVizHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "fieldforce",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Show visit counts, completion rate, today's travel distance, and open leads",
	}, leadHandlers.Dashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List the agent's opportunities, optionally filtered by name",
	}, leadHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_lead",
		Description: "Get an opportunity with its contacts and products",
	}, leadHandlers.GetLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assign_fabricator",
		Description: "Assign an approved fabricator to an opportunity",
	}, leadHandlers.AssignFabricator)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_visits",
		Description: "List client visits, optionally by status",
	}, visitHandlers.ListVisits)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_in_visit",
		Description: "Check in to a pending visit on arrival",
	}, visitHandlers.CheckInVisit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_visit",
		Description: "Complete a checked-in visit with a reason, notes, and quoted products",
	}, visitHandlers.CompleteVisit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_attendance",
		Description: "Capture today's attendance with transport details",
	}, visitHandlers.MarkAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_travel",
		Description: "Start a conveyance travel from the current location",
	}, travelHandlers.StartTravel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "punch_in",
		Description: "Record the current location on the active travel",
	}, travelHandlers.PunchIn)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_travel",
		Description: "Complete the active travel",
	}, travelHandlers.StopTravel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_travels",
		Description: "List recent travels with distance and punch-ins",
	}, travelHandlers.ListTravels)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render a travel route or the lead pipeline as GraphViz DOT",
	}, vizHandlers.GenerateGraph)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
