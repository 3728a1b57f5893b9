// ABOUTME: Terminal dashboard rendering
// ABOUTME: Provides an ASCII overview of visits, travel, attendance, and the lead pipeline
package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/harperreed/fieldforce/models"
)

// StageOrder is the CRM's standard opportunity stage sequence.
var StageOrder = []string{
	"Prospecting",
	"Qualification",
	"Needs Analysis",
	"Value Proposition",
	"Proposal/Price Quote",
	"Negotiation/Review",
	"Closed Won",
	"Closed Lost",
}

// StageGroup is the leads sitting in one stage.
type StageGroup struct {
	Stage   string
	Leads   []models.Lead
	LineSum float64
}

// GroupByStage buckets leads by stage. Known stages come first in StageOrder,
// then any other stage alphabetically. Empty stages are omitted.
func GroupByStage(leads []models.Lead) []StageGroup {
	byStage := make(map[string]*StageGroup)
	for _, lead := range leads {
		stage := lead.StageName
		if stage == "" {
			stage = "Unknown"
		}
		g, ok := byStage[stage]
		if !ok {
			g = &StageGroup{Stage: stage}
			byStage[stage] = g
		}
		g.Leads = append(g.Leads, lead)
		g.LineSum += lead.LineItemsTotal()
	}

	groups := make([]StageGroup, 0, len(byStage))
	for _, stage := range StageOrder {
		if g, ok := byStage[stage]; ok {
			groups = append(groups, *g)
			delete(byStage, stage)
		}
	}
	rest := make([]string, 0, len(byStage))
	for stage := range byStage {
		rest = append(rest, stage)
	}
	slices.Sort(rest)
	for _, stage := range rest {
		groups = append(groups, *byStage[stage])
	}
	return groups
}

// RenderDashboard formats the dashboard stats and pipeline for a terminal.
func RenderDashboard(stats *models.DashboardStats, leads []models.Lead) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&out, "  %s\n", strings.ToUpper(stats.AgentName))
	fmt.Fprintf(&out, "  %s\n", stats.AgentTitle)
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("THIS MONTH\n")
	fmt.Fprintf(&out, "  %d of %d visits completed (%d%%)  %d pending  target %d\n\n",
		stats.CompletedVisits, stats.TotalVisits, stats.CompletionRate, stats.PendingVisits, stats.MonthlyTarget)

	out.WriteString("TODAY\n")
	attendance := "not marked"
	if stats.AttendanceToday {
		attendance = "marked"
	}
	fmt.Fprintf(&out, "  📍 %d visits  🚗 %d travels, %.1f km  ✅ attendance %s\n\n",
		stats.TodayVisits, stats.TodayTravels, stats.TodayDistanceKM, attendance)

	out.WriteString("PIPELINE\n")
	renderPipeline(&out, GroupByStage(leads))
	fmt.Fprintf(&out, "\n  %d open leads\n", stats.OpenLeads)

	return out.String()
}

func renderPipeline(out *strings.Builder, groups []StageGroup) {
	if len(groups) == 0 {
		out.WriteString("  no leads\n")
		return
	}

	maxCount := 1
	for _, g := range groups {
		maxCount = max(maxCount, len(g.Leads))
	}

	for _, g := range groups {
		barLength := (len(g.Leads) * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		fmt.Fprintf(out, "  %-22s %s  %2d (₹%.0fK)\n", g.Stage, bar, len(g.Leads), g.LineSum/1000)
	}
}
