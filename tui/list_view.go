package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/fieldforce/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FIELD FORCE"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	} else if m.searchQuery != "" {
		s.WriteString(helpStyle.Render(fmt.Sprintf("Filter: %q (esc to clear)", m.searchQuery)))
		s.WriteString("\n\n")
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	if m.tab == TabSync {
		s.WriteString(m.renderSyncView())
	} else {
		s.WriteString(m.renderTable())
		s.WriteString("\n\n")
		s.WriteString(m.renderListHelp())
	}

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// matchesName reports whether name contains query, ignoring case.
func matchesName(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(query)))
}

func (m Model) filteredLeads() []models.Lead {
	return models.FilterLeads(m.leads, m.searchQuery)
}

func (m Model) filteredVisits() []models.Visit {
	var out []models.Visit
	for _, v := range m.visits {
		if matchesName(v.ClientName, m.searchQuery) {
			out = append(out, v)
		}
	}
	return out
}

func (m Model) filteredTravels() []models.Travel {
	var out []models.Travel
	for _, t := range m.travels {
		if matchesName(t.Title, m.searchQuery) {
			out = append(out, t)
		}
	}
	return out
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabLeads:
		return len(m.filteredLeads())
	case TabVisits:
		return len(m.filteredVisits())
	case TabTravels:
		return len(m.filteredTravels())
	}
	return 0
}

func (m Model) renderTable() string {
	if m.loading {
		return helpStyle.Render("Loading...")
	}

	var columns []table.Column
	var rows []table.Row

	switch m.tab {
	case TabLeads:
		columns = []table.Column{
			{Title: "Name", Width: 36},
			{Title: "Stage", Width: 20},
			{Title: "Fabricator", Width: 16},
		}
		for _, lead := range m.filteredLeads() {
			rows = append(rows, table.Row{lead.Name, lead.StageName, lead.FabricatorName})
		}
	case TabVisits:
		columns = []table.Column{
			{Title: "Client", Width: 26},
			{Title: "Type", Width: 18},
			{Title: "Status", Width: 11},
			{Title: "Scheduled", Width: 17},
		}
		for _, v := range m.filteredVisits() {
			rows = append(rows, table.Row{v.ClientName, v.Type, v.Status, v.ScheduledAt.Local().Format("Jan 02 15:04")})
		}
	case TabTravels:
		columns = []table.Column{
			{Title: "Title", Width: 36},
			{Title: "Status", Width: 10},
			{Title: "Started", Width: 14},
			{Title: "Distance", Width: 10},
		}
		for _, t := range m.filteredTravels() {
			rows = append(rows, table.Row{t.Title, t.Status, t.StartedAt.Local().Format("Jan 02 15:04"), fmt.Sprintf("%.1f km", t.DistanceKM())})
		}
	}

	if len(rows) == 0 {
		if m.searchQuery != "" {
			return helpStyle.Render("No matches.")
		}
		return helpStyle.Render("Nothing here yet.")
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-12)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"/: Search",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	m.tab = tab
	m.selectedRow = 0
	m.searchQuery = ""
	m.search.SetValue("")
	m.err = nil
	m.loading = true
	return m, m.loadTab(tab)
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tab == TabSync {
		switch msg.String() {
		case "tab", "shift+tab":
		default:
			return m.handleSyncKeys(msg)
		}
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		return m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case "shift+tab":
		return m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case "r":
		m.loading = true
		return m, m.loadTab(m.tab)
	case "esc":
		m.searchQuery = ""
		m.search.SetValue("")
		m.selectedRow = 0
	case "/":
		m.searching = true
		m.search.SetValue(m.searchQuery)
		return m, m.search.Focus()
	case "enter":
		return m.openDetail()
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.searching = false
		m.searchQuery = strings.TrimSpace(m.search.Value())
		m.selectedRow = 0
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.searchQuery = strings.TrimSpace(m.search.Value())
	m.selectedRow = 0
	return m, cmd
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	if m.selectedRow >= m.rowCount() {
		return m, nil
	}
	m.viewMode = ViewDetail
	if m.tab == TabLeads {
		lead := m.filteredLeads()[m.selectedRow]
		m.detailLead = &lead
		return m, m.loadLead(lead.ID)
	}
	return m, nil
}
