// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key presses and load messages through Update without a terminal
package tui

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/fieldforce/config"
	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/sync"
)

var testNow = time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC)

func setupModel(t *testing.T) (Model, *sql.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := db.Seed(database, testNow); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	cfg := config.Default()
	source := crm.NewMockSource()
	svc := fieldops.NewService(database, source, cfg)
	svc.SetClock(func() time.Time { return testNow })
	worker := sync.NewWorker(database, source, cfg.Sync)

	m := NewModel(context.Background(), svc, database, worker)
	return runCmd(t, m, m.Init()), database
}

// runCmd executes cmd synchronously and feeds its message back into the model.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, string(r))
	}
	return m
}

func TestLeadsTabLoadsOnInit(t *testing.T) {
	m, _ := setupModel(t)

	if m.loading {
		t.Fatal("Model should finish loading after Init")
	}
	if len(m.leads) != 4 {
		t.Fatalf("Expected 4 leads for the configured owner, got %d", len(m.leads))
	}

	view := m.View()
	if !strings.Contains(view, "FIELD FORCE") {
		t.Error("List view should contain title")
	}
	if !strings.Contains(view, "Ramesh Construction - Villa Doors") {
		t.Error("List view should show lead names")
	}
}

func TestSearchFiltersByName(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(t, m, "/")
	if !m.searching {
		t.Fatal("'/' should enter search mode")
	}
	m = typeText(t, m, "VIJAY")
	m, _ = press(t, m, "enter")

	if m.searching {
		t.Error("Enter should leave search mode")
	}
	if m.searchQuery != "VIJAY" {
		t.Errorf("Expected query VIJAY, got %q", m.searchQuery)
	}
	leads := m.filteredLeads()
	if len(leads) != 1 || leads[0].Name != "Vijay Constructions Showroom" {
		t.Errorf("Expected only Vijay lead, got %+v", leads)
	}

	m, _ = press(t, m, "esc")
	if m.searchQuery != "" || len(m.filteredLeads()) != 4 {
		t.Error("Esc in list view should clear the filter")
	}
}

func TestQuitKeyOnlyOutsideSearch(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(t, m, "/")
	m, _ = press(t, m, "q")
	if !m.searching {
		t.Fatal("'q' while searching should type, not quit")
	}
	if m.search.Value() != "q" {
		t.Errorf("Expected search text 'q', got %q", m.search.Value())
	}

	m, _ = press(t, m, "esc")
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("'q' should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' should quit")
	}
}

func TestLeadDetailAndBack(t *testing.T) {
	m, _ := setupModel(t)

	m, cmd := press(t, m, "enter")
	if m.viewMode != ViewDetail {
		t.Fatal("Enter should open the detail view")
	}
	m = runCmd(t, m, cmd)

	view := m.View()
	if !strings.Contains(view, "DETAIL VIEW") {
		t.Error("Detail view should contain title")
	}
	if !strings.Contains(view, m.leads[0].Name) {
		t.Error("Detail view should show the selected lead")
	}

	m, _ = press(t, m, "esc")
	if m.viewMode != ViewList {
		t.Error("Esc should return to the list")
	}
}

func TestTabsCycleThroughLists(t *testing.T) {
	m, _ := setupModel(t)

	m, cmd := press(t, m, "tab")
	m = runCmd(t, m, cmd)
	if m.tab != TabVisits || len(m.visits) != 5 {
		t.Fatalf("Expected visits tab with 5 visits, got tab %d with %d", m.tab, len(m.visits))
	}

	m, cmd = press(t, m, "tab")
	m = runCmd(t, m, cmd)
	if m.tab != TabTravels || len(m.travels) != 2 {
		t.Fatalf("Expected travels tab with 2 travels, got tab %d with %d", m.tab, len(m.travels))
	}
	if !strings.Contains(m.View(), "11.5 km") {
		t.Error("Travels table should show distance")
	}

	m, _ = press(t, m, "down")
	m, _ = press(t, m, "enter")
	if !strings.Contains(m.View(), "PUNCH-INS") {
		t.Error("Travel detail should list punch-ins")
	}
}

func TestSyncTabDrainsOutbox(t *testing.T) {
	m, database := setupModel(t)

	entry, err := db.NewOutboxEntry(db.KindVisitNote, crm.VisitNote{VisitID: "v1", ClientName: "Ramesh Construction", Reason: "demo"})
	if err != nil {
		t.Fatalf("Failed to build entry: %v", err)
	}
	if err := db.EnqueueOutbox(database, entry); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	for m.tab != TabSync {
		var cmd tea.Cmd
		m, cmd = press(t, m, "tab")
		m = runCmd(t, m, cmd)
	}
	if m.status == nil || m.status.Counts[db.OutboxPending] != 1 {
		t.Fatalf("Expected one pending entry, got %+v", m.status)
	}
	if !strings.Contains(m.View(), "Not synced yet") {
		t.Error("Sync view should show the never-synced state")
	}

	m, cmd := press(t, m, "s")
	if !m.syncInProgress {
		t.Fatal("'s' should start a delivery pass")
	}
	updated, reload := m.Update(cmd())
	m = runCmd(t, updated.(Model), reload)

	if m.syncInProgress {
		t.Error("Sync should be finished")
	}
	if !strings.Contains(m.message, "Sent 1") {
		t.Errorf("Expected sent summary, got %q", m.message)
	}
	if m.status.Counts[db.OutboxSent] != 1 {
		t.Errorf("Expected one sent entry, got %+v", m.status.Counts)
	}
}
