// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Provides tabbed lead, visit, travel, and sync screens with search and detail views
package tui

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
	"github.com/harperreed/fieldforce/sync"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Tab is one of the top-level lists.
type Tab int

const (
	TabLeads Tab = iota
	TabVisits
	TabTravels
	TabSync
)

var tabNames = []string{"Leads", "Visits", "Travels", "Sync"}

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	svc    *fieldops.Service
	db     *sql.DB
	worker *sync.Worker

	viewMode ViewMode
	tab      Tab

	leads   []models.Lead
	visits  []models.Visit
	travels []models.Travel
	status  *sync.Status
	loading bool

	// List view state
	selectedRow int
	searching   bool
	search      textinput.Model
	searchQuery string

	// Detail view state
	detailLead *models.Lead

	syncInProgress bool
	message        string

	width  int
	height int
	err    error
}

// NewModel creates a new TUI model. worker may be nil, which disables manual sync.
func NewModel(ctx context.Context, svc *fieldops.Service, database *sql.DB, worker *sync.Worker) Model {
	search := textinput.New()
	search.Placeholder = "search by name"
	search.Prompt = "/ "

	return Model{
		ctx:      ctx,
		svc:      svc,
		db:       database,
		worker:   worker,
		viewMode: ViewList,
		tab:      TabLeads,
		search:   search,
		loading:  true,
		width:    80,
		height:   24,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, svc *fieldops.Service, database *sql.DB, worker *sync.Worker) error {
	p := tea.NewProgram(NewModel(ctx, svc, database, worker), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadTab(TabLeads)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case leadsLoadedMsg:
		m.loading = false
		m.leads, m.err = msg.leads, msg.err
		return m, nil
	case leadLoadedMsg:
		m.detailLead, m.err = msg.lead, msg.err
		return m, nil
	case visitsLoadedMsg:
		m.loading = false
		m.visits, m.err = msg.visits, msg.err
		return m, nil
	case travelsLoadedMsg:
		m.loading = false
		m.travels, m.err = msg.travels, msg.err
		return m, nil
	case syncStatusMsg:
		m.loading = false
		m.status, m.err = msg.status, msg.err
		return m, nil
	case SyncCompleteMsg:
		return m.handleSyncComplete(msg)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	}

	return m, nil
}

type leadsLoadedMsg struct {
	leads []models.Lead
	err   error
}

type leadLoadedMsg struct {
	lead *models.Lead
	err  error
}

type visitsLoadedMsg struct {
	visits []models.Visit
	err    error
}

type travelsLoadedMsg struct {
	travels []models.Travel
	err     error
}

type syncStatusMsg struct {
	status *sync.Status
	err    error
}

// loadTab fetches the rows for tab in the background.
func (m Model) loadTab(tab Tab) tea.Cmd {
	ctx, svc, database := m.ctx, m.svc, m.db
	switch tab {
	case TabLeads:
		return func() tea.Msg {
			leads, err := svc.Leads(ctx, "")
			return leadsLoadedMsg{leads: leads, err: err}
		}
	case TabVisits:
		return func() tea.Msg {
			visits, err := svc.Visits("")
			return visitsLoadedMsg{visits: visits, err: err}
		}
	case TabTravels:
		return func() tea.Msg {
			travels, err := svc.Travels(50)
			return travelsLoadedMsg{travels: travels, err: err}
		}
	case TabSync:
		return func() tea.Msg {
			status, err := sync.GetStatus(database)
			return syncStatusMsg{status: status, err: err}
		}
	}
	return nil
}

func (m Model) loadLead(id string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		lead, err := svc.Lead(ctx, id)
		return leadLoadedMsg{lead: lead, err: err}
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
