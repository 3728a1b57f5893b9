package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/fieldforce/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DETAIL VIEW"))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	switch m.tab {
	case TabLeads:
		s.WriteString(m.renderLeadDetail())
	case TabVisits:
		s.WriteString(m.renderVisitDetail())
	case TabTravels:
		s.WriteString(m.renderTravelDetail())
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Esc: Back • q: Quit"))

	return s.String()
}

func (m Model) renderLeadDetail() string {
	lead := m.detailLead
	if lead == nil {
		return "Lead not found"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Name", lead.Name))
	s.WriteString(m.renderField("Stage", lead.StageName))
	s.WriteString(m.renderField("Account", lead.AccountName))
	s.WriteString(m.renderField("Address", lead.Address.Short()))
	s.WriteString(m.renderField("Source", lead.LeadSource))
	s.WriteString(m.renderField("Type", lead.Type))
	s.WriteString(m.renderField("Fabricator", lead.FabricatorName))
	if lead.Quantity > 0 {
		s.WriteString(m.renderField("Quantity", fmt.Sprintf("%g", lead.Quantity)))
	}
	if lead.Length != "" || lead.Breadth != "" || lead.Depth != "" {
		s.WriteString(m.renderField("Size", fmt.Sprintf("%s x %s x %s", lead.Length, lead.Breadth, lead.Depth)))
	}

	if len(lead.Contacts) > 0 {
		s.WriteString("\n")
		s.WriteString(sectionStyle.Render("CONTACTS"))
		s.WriteString("\n")
		for _, c := range lead.Contacts {
			s.WriteString(fmt.Sprintf("  • %s %s %s\n", c.Name, c.Phone, c.Email))
		}
	}

	if len(lead.LineItems) > 0 {
		s.WriteString("\n")
		s.WriteString(sectionStyle.Render("PRODUCTS"))
		s.WriteString("\n")
		for _, item := range lead.LineItems {
			s.WriteString(fmt.Sprintf("  • %s x%g @ ₹%.2f = ₹%.2f\n", item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice))
		}
		s.WriteString(fmt.Sprintf("  Total: ₹%.2f\n", lead.LineItemsTotal()))
	}

	return s.String()
}

func (m Model) renderVisitDetail() string {
	visits := m.filteredVisits()
	if m.selectedRow >= len(visits) {
		return "Visit not found"
	}
	v := visits[m.selectedRow]

	var s strings.Builder
	s.WriteString(m.renderField("Client", v.ClientName))
	s.WriteString(m.renderField("Address", v.Address))
	s.WriteString(m.renderField("Type", v.Type))
	s.WriteString(m.renderField("Status", v.Status))
	s.WriteString(m.renderField("Scheduled", v.ScheduledAt.Local().Format("2006-01-02 15:04")))
	s.WriteString(m.renderField("Contact", v.ContactPerson))
	s.WriteString(m.renderField("Phone", v.Phone))
	if v.CheckedInAt != nil {
		s.WriteString(m.renderField("Checked In", v.CheckedInAt.Local().Format("2006-01-02 15:04")))
	}
	if v.CompletedAt != nil {
		s.WriteString(m.renderField("Completed", v.CompletedAt.Local().Format("2006-01-02 15:04")))
		s.WriteString(m.renderField("Reason", models.ReasonLabel(v.Reason)))
		s.WriteString(m.renderField("Notes", v.Notes))
	}
	if len(v.Products) > 0 {
		s.WriteString("\n")
		s.WriteString(sectionStyle.Render("PRODUCTS"))
		s.WriteString("\n")
		for _, p := range v.Products {
			s.WriteString(fmt.Sprintf("  • %s x%d\n", p.Name, p.Quantity))
		}
	}
	return s.String()
}

func (m Model) renderTravelDetail() string {
	travels := m.filteredTravels()
	if m.selectedRow >= len(travels) {
		return "Travel not found"
	}
	t := travels[m.selectedRow]

	var s strings.Builder
	s.WriteString(m.renderField("Title", t.Title))
	s.WriteString(m.renderField("Status", t.Status))
	s.WriteString(m.renderField("Started", t.StartedAt.Local().Format("2006-01-02 15:04")))
	if t.EndedAt != nil {
		s.WriteString(m.renderField("Ended", t.EndedAt.Local().Format("2006-01-02 15:04")))
	}
	s.WriteString(m.renderField("Distance", fmt.Sprintf("%.1f km", t.DistanceKM())))

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("PUNCH-INS"))
	s.WriteString("\n")
	for _, p := range t.PunchIns {
		s.WriteString(fmt.Sprintf("  • [%s] %s (%s)\n", p.At.Local().Format("15:04"), p.Location, p.Kind))
	}
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
		m.detailLead = nil
		m.err = nil
	}
	return m, nil
}
