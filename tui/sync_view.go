// ABOUTME: TUI view for CRM outbox delivery status and controls
// ABOUTME: Shows queued visit notes by status and triggers a manual delivery pass
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/sync"
)

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncCompleteMsg is sent when a manual delivery pass completes.
type SyncCompleteMsg struct {
	Result sync.Result
	Error  error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(syncHeaderStyle.Render("CRM Delivery"))
	s.WriteString("\n\n")

	row := syncServiceStyle.Render("CRM")
	switch {
	case m.syncInProgress:
		row += syncSyncingStyle.Render("  ⟳ Syncing...")
	case m.status == nil || m.status.State == nil:
		row += syncMessageStyle.Render("  Not synced yet")
	case m.status.State.Status == db.SyncError:
		row += syncErrorStyle.Render("  ✗ Error")
		if m.status.State.ErrorMessage != nil {
			row += syncErrorStyle.Render(": " + *m.status.State.ErrorMessage)
		}
	default:
		row += syncIdleStyle.Render("  ✓ Idle")
		if m.status.State.LastSyncTime != nil {
			row += syncMessageStyle.Render("  last sync " + m.status.State.LastSyncTime.Local().Format("Jan 02 15:04"))
		}
	}
	s.WriteString(row)
	s.WriteString("\n\n")

	s.WriteString(syncHeaderStyle.Render("Outbox"))
	s.WriteString("\n\n")
	for _, status := range []string{db.OutboxPending, db.OutboxSending, db.OutboxSent, db.OutboxFailed} {
		count := 0
		if m.status != nil {
			count = m.status.Counts[status]
		}
		s.WriteString(fmt.Sprintf("  %s %d\n", syncServiceStyle.Render(status), count))
	}

	if m.message != "" {
		s.WriteString("\n")
		s.WriteString(syncMessageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	help := []string{"Tab: Switch tabs", "r: Refresh", "q: Quit"}
	if m.worker != nil {
		help = append([]string{"s: Sync now"}, help...)
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.loading = true
		return m, m.loadTab(TabSync)
	case "s":
		if m.worker == nil || m.syncInProgress {
			return m, nil
		}
		m.syncInProgress = true
		m.message = ""
		ctx, worker := m.ctx, m.worker
		return m, func() tea.Msg {
			result, err := worker.Drain(ctx)
			return SyncCompleteMsg{Result: result, Error: err}
		}
	}
	return m, nil
}

func (m Model) handleSyncComplete(msg SyncCompleteMsg) (tea.Model, tea.Cmd) {
	m.syncInProgress = false
	if msg.Error != nil {
		m.message = fmt.Sprintf("Sync failed: %v", msg.Error)
	} else {
		m.message = fmt.Sprintf("Sent %d, retrying %d, failed %d", msg.Result.Sent, msg.Result.Retried, msg.Result.Failed)
	}
	return m, m.loadTab(TabSync)
}
