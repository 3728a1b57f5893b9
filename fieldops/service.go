// ABOUTME: Field sales operations shared by the web, MCP, TUI, and CLI surfaces
// ABOUTME: Validates forms, persists visits, attendance, and travels, and queues CRM writes
package fieldops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldforce/config"
	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/models"
)

var (
	// ErrTravelActive is returned when starting a travel while another is in progress.
	ErrTravelActive = errors.New("a travel is already in progress")
	// ErrTravelNotActive is returned when punching or stopping a completed travel.
	ErrTravelNotActive = errors.New("travel is not in progress")
)

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound) || errors.Is(err, crm.ErrNotFound) || errors.Is(err, crm.ErrInvalidID)
}

type Service struct {
	db     *sql.DB
	source crm.Source
	cfg    *config.Config
	now    func() time.Time
}

func NewService(database *sql.DB, source crm.Source, cfg *config.Config) *Service {
	return &Service{db: database, source: source, cfg: cfg, now: time.Now}
}

// SetClock replaces the time source. Tests use it to pin "today".
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

// Fabricators lists the names a lead may be assigned to.
func (s *Service) Fabricators() []string {
	return s.cfg.Fabricators
}

// ProductSheet returns a zero-quantity line for every configured product.
func (s *Service) ProductSheet() []models.ProductQuantity {
	return models.NewProductSheet(s.cfg.Products)
}

// Leads fetches the configured owner's leads and filters them by name.
func (s *Service) Leads(ctx context.Context, term string) ([]models.Lead, error) {
	leads, err := s.source.ListLeads(ctx, s.cfg.CRM.Owner)
	if err != nil {
		return nil, err
	}
	return models.FilterLeads(leads, term), nil
}

func (s *Service) Lead(ctx context.Context, id string) (*models.Lead, error) {
	return s.source.GetLead(ctx, id)
}

// AssignFabricator validates the choice against the configured list and writes it to the CRM.
func (s *Service) AssignFabricator(ctx context.Context, leadID, fabricator string) error {
	if err := models.ValidateFabricator(fabricator, s.cfg.Fabricators); err != nil {
		return err
	}
	if err := s.source.AssignFabricator(ctx, leadID, fabricator); err != nil {
		return err
	}
	logging.Info("fabricator assigned", "lead_id", leadID, "fabricator", fabricator)
	return nil
}

// Visits lists visits, optionally by status.
func (s *Service) Visits(status string) ([]models.Visit, error) {
	return db.ListVisits(s.db, status)
}

func (s *Service) Visit(id uuid.UUID) (*models.Visit, error) {
	return db.GetVisit(s.db, id)
}

// CheckIn marks a pending visit as checked in.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	visit, err := db.GetVisit(s.db, id)
	if err != nil {
		return nil, err
	}

	switch visit.Status {
	case models.VisitCompleted:
		return nil, &models.ValidationError{Field: "status", Title: "Visit Already Completed", Message: "This visit has already been completed."}
	case models.VisitCheckedIn:
		return nil, &models.ValidationError{Field: "status", Title: "Already Checked In", Message: "You have already checked in to this visit."}
	}

	if err := db.CheckInVisit(s.db, id, s.now()); err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}
	logging.Info("visit checked in", "visit_id", id, "client", visit.ClientName)
	return db.GetVisit(s.db, id)
}

// CompleteVisit validates the completion form, stores it, and queues the
// visit note for delivery to the CRM.
func (s *Service) CompleteVisit(ctx context.Context, id uuid.UUID, completion *models.VisitCompletion) (*models.Visit, error) {
	visit, err := db.GetVisit(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateCompletion(visit, completion); err != nil {
		return nil, err
	}

	completedAt := s.now()
	note := crm.VisitNote{
		VisitID:     visit.ID.String(),
		RecordID:    visit.CRMID,
		ClientName:  visit.ClientName,
		Reason:      completion.Reason,
		Notes:       completion.Notes,
		Products:    completion.Products,
		CompletedAt: completedAt.UTC(),
	}
	entry, err := db.NewOutboxEntry(db.KindVisitNote, note)
	if err != nil {
		return nil, err
	}

	if err := db.CompleteVisit(s.db, id, completion, completedAt, entry); err != nil {
		return nil, fmt.Errorf("failed to complete visit: %w", err)
	}
	logging.Info("visit completed", "visit_id", id, "reason", completion.Reason, "outbox_id", entry.ID)
	return db.GetVisit(s.db, id)
}

// MarkAttendance validates and stores one attendance capture.
func (s *Service) MarkAttendance(ctx context.Context, a *models.Attendance) error {
	if err := models.ValidateAttendance(a); err != nil {
		return err
	}
	a.ID = uuid.Nil
	a.CapturedAt = s.now()
	if err := db.CreateAttendance(s.db, a); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	logging.Info("attendance captured", "transport", a.TransportMode, "vehicle", a.VehicleType)
	return nil
}

func (s *Service) Attendance(limit int) ([]models.Attendance, error) {
	return db.ListAttendance(s.db, limit)
}

// TodayAttendance returns today's latest attendance, or nil if none was captured.
func (s *Service) TodayAttendance() (*models.Attendance, error) {
	start, _ := dayBounds(s.now())
	a, err := db.LatestAttendanceSince(s.db, start)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// StartTravel opens a travel with its first punch at location.
func (s *Service) StartTravel(ctx context.Context, title string, start models.PunchIn) (*models.Travel, error) {
	if err := models.ValidateTravelStart(title, start.Location); err != nil {
		return nil, err
	}
	start.Kind = models.PunchCheckpoint
	if err := models.ValidatePunch(&start); err != nil {
		return nil, err
	}

	if _, err := db.GetActiveTravel(s.db); err == nil {
		return nil, ErrTravelActive
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	start.Kind = models.PunchStart
	start.At = now
	travel := &models.Travel{
		Title:     title,
		Status:    models.TravelActive,
		StartedAt: now,
		PunchIns:  []models.PunchIn{start},
	}
	if err := db.CreateTravel(s.db, travel); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrTravelActive
		}
		return nil, fmt.Errorf("failed to start travel: %w", err)
	}
	logging.Info("travel started", "travel_id", travel.ID, "title", title)
	return db.GetTravel(s.db, travel.ID)
}

// PunchIn records the agent's current location on an active travel.
func (s *Service) PunchIn(ctx context.Context, travelID uuid.UUID, punch models.PunchIn) (*models.Travel, error) {
	if err := models.ValidatePunch(&punch); err != nil {
		return nil, err
	}
	if err := s.requireActive(travelID); err != nil {
		return nil, err
	}

	punch.ID = uuid.Nil
	punch.TravelID = travelID
	punch.At = s.now()
	if err := db.AddPunchIn(s.db, &punch); err != nil {
		return nil, fmt.Errorf("failed to punch in: %w", err)
	}
	logging.Debug("location punched", "travel_id", travelID, "kind", punch.Kind, "location", punch.Location)
	return db.GetTravel(s.db, travelID)
}

// StopTravel completes an active travel. A non-empty final.Location is
// recorded as the stop punch.
func (s *Service) StopTravel(ctx context.Context, travelID uuid.UUID, final models.PunchIn) (*models.Travel, error) {
	if err := s.requireActive(travelID); err != nil {
		return nil, err
	}

	now := s.now()
	var stop *models.PunchIn
	if final.Location != "" {
		final.Kind = models.PunchCheckpoint
		if err := models.ValidatePunch(&final); err != nil {
			return nil, err
		}
		final.Kind = models.PunchStop
		final.At = now
		stop = &final
	}

	if err := db.StopTravel(s.db, travelID, now, stop); err != nil {
		return nil, fmt.Errorf("failed to stop travel: %w", err)
	}

	travel, err := db.GetTravel(s.db, travelID)
	if err != nil {
		return nil, err
	}
	logging.Info("travel completed", "travel_id", travelID, "distance_km", fmt.Sprintf("%.1f", travel.DistanceKM()))
	return travel, nil
}

func (s *Service) requireActive(travelID uuid.UUID) error {
	travel, err := db.GetTravel(s.db, travelID)
	if err != nil {
		return err
	}
	if travel.Status != models.TravelActive {
		return ErrTravelNotActive
	}
	return nil
}

func (s *Service) Travel(id uuid.UUID) (*models.Travel, error) {
	return db.GetTravel(s.db, id)
}

func (s *Service) Travels(limit int) ([]models.Travel, error) {
	return db.ListTravels(s.db, limit)
}

// ActiveTravel returns the travel in progress, or nil.
func (s *Service) ActiveTravel() (*models.Travel, error) {
	t, err := db.GetActiveTravel(s.db)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
