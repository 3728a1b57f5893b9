// ABOUTME: Tests for route and pipeline graphs and the terminal dashboard
// ABOUTME: Checks grouping order, graph sizes, and rendered dashboard text
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/models"
)

func coord(f float64) *float64 { return &f }

func TestGroupByStage(t *testing.T) {
	leads := []models.Lead{
		{Name: "B", StageName: "Closed Won"},
		{Name: "A", StageName: "Prospecting", LineItems: []models.LineItem{{TotalPrice: 5000}}},
		{Name: "C", StageName: "Site Survey"},
		{Name: "D"},
		{Name: "E", StageName: "Prospecting"},
	}

	groups := GroupByStage(leads)
	var stages []string
	for _, g := range groups {
		stages = append(stages, g.Stage)
	}
	assert.Equal(t, []string{"Prospecting", "Closed Won", "Site Survey", "Unknown"}, stages)
	assert.Len(t, groups[0].Leads, 2)
	assert.InDelta(t, 5000, groups[0].LineSum, 0.001)

	assert.Empty(t, GroupByStage(nil))
}

func TestRouteGraph(t *testing.T) {
	at := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	travel := &models.Travel{
		Title:  "Client Visit - Ramesh Construction",
		Status: models.TravelCompleted,
		PunchIns: []models.PunchIn{
			{At: at, Location: "Office - Banjara Hills", Latitude: coord(17.4126), Longitude: coord(78.4482), Kind: models.PunchStart},
			{At: at.Add(45 * time.Minute), Location: "Client Site - Kondapur", Latitude: coord(17.4699), Longitude: coord(78.3578), Kind: models.PunchArrival},
			{At: at.Add(2 * time.Hour), Location: "Tea stall", Kind: models.PunchCheckpoint},
		},
	}

	graph, err := RouteGraph(context.Background(), travel)
	require.NoError(t, err)
	assert.Equal(t, 3, graph.Nodes)
	assert.Equal(t, 2, graph.Edges)
	assert.Contains(t, graph.DOT, "Client Site - Kondapur")
	assert.Contains(t, graph.DOT, "km")
}

func TestPipelineGraph(t *testing.T) {
	graph, err := PipelineGraph(context.Background(), crm.SampleLeads())
	require.NoError(t, err)

	// five stages chained together, each with one lead
	assert.Equal(t, 10, graph.Nodes)
	assert.Equal(t, 9, graph.Edges)
	assert.Contains(t, graph.DOT, "Lead Pipeline")
}

func TestRenderDashboard(t *testing.T) {
	stats := &models.DashboardStats{
		AgentName:       "Sai Kiran",
		AgentTitle:      "Field Sales Executive",
		TotalVisits:     5,
		CompletedVisits: 3,
		PendingVisits:   2,
		MonthlyTarget:   30,
		CompletionRate:  60,
		TodayVisits:     2,
		TodayTravels:    2,
		TodayDistanceKM: 11.54,
		OpenLeads:       4,
	}

	out := RenderDashboard(stats, crm.SampleLeads())
	assert.Contains(t, out, "SAI KIRAN")
	assert.Contains(t, out, "3 of 5 visits completed (60%)")
	assert.Contains(t, out, "2 travels, 11.5 km")
	assert.Contains(t, out, "attendance not marked")
	assert.Contains(t, out, "4 open leads")

	prospecting := strings.Index(out, "Prospecting")
	closedWon := strings.Index(out, "Closed Won")
	require.Positive(t, prospecting)
	assert.Less(t, prospecting, closedWon)
	assert.Contains(t, out, "(₹252K)")

	assert.Contains(t, RenderDashboard(stats, nil), "no leads")
}
