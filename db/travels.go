// ABOUTME: Travel and punch-in database operations
// ABOUTME: Handles conveyance sessions, the single active travel, and location punches
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldforce/models"
)

// CreateTravel inserts a travel and any punch-ins it already carries.
// A second active travel fails with ErrConflict.
func CreateTravel(db *sql.DB, travel *models.Travel) error {
	if travel.ID == uuid.Nil {
		travel.ID = uuid.New()
	}
	if travel.Status == "" {
		travel.Status = models.TravelActive
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO travels (id, title, status, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?)
	`, travel.ID.String(), travel.Title, travel.Status, travel.StartedAt.UTC(), nullTime(travel.EndedAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert travel: %w", err)
	}

	for i := range travel.PunchIns {
		travel.PunchIns[i].TravelID = travel.ID
		if err := insertPunchIn(tx, &travel.PunchIns[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func GetTravel(db *sql.DB, id uuid.UUID) (*models.Travel, error) {
	travel, err := scanTravel(db.QueryRow(`
		SELECT id, title, status, started_at, ended_at FROM travels WHERE id = ?
	`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get travel: %w", err)
	}

	if travel.PunchIns, err = listPunchIns(db, travel.ID); err != nil {
		return nil, err
	}
	return travel, nil
}

// GetActiveTravel returns the travel in progress, or ErrNotFound.
func GetActiveTravel(db *sql.DB) (*models.Travel, error) {
	var id uuid.UUID
	err := db.QueryRow(`SELECT id FROM travels WHERE status = ?`, models.TravelActive).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active travel: %w", err)
	}
	return GetTravel(db, id)
}

// ListTravels returns travels newest first, each with its punch-ins.
func ListTravels(db *sql.DB, limit int) ([]models.Travel, error) {
	if limit <= 0 {
		limit = 20
	}
	return queryTravels(db, `
		SELECT id, title, status, started_at, ended_at
		FROM travels
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
}

// ListTravelsStartedBetween returns travels started in [from, to), newest first.
func ListTravelsStartedBetween(db *sql.DB, from, to time.Time) ([]models.Travel, error) {
	return queryTravels(db, `
		SELECT id, title, status, started_at, ended_at
		FROM travels
		WHERE started_at >= ? AND started_at < ?
		ORDER BY started_at DESC
	`, from.UTC(), to.UTC())
}

// AddPunchIn appends a punch to an active travel.
func AddPunchIn(db *sql.DB, punch *models.PunchIn) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRow(`SELECT status FROM travels WHERE id = ?`, punch.TravelID.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && status != models.TravelActive) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up travel: %w", err)
	}

	if err := insertPunchIn(tx, punch); err != nil {
		return err
	}
	return tx.Commit()
}

// StopTravel completes an active travel, recording final as its last punch when non-nil.
func StopTravel(db *sql.DB, id uuid.UUID, at time.Time, final *models.PunchIn) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE travels SET status = ?, ended_at = ?
		WHERE id = ? AND status = ?
	`, models.TravelCompleted, at.UTC(), id.String(), models.TravelActive)
	if err != nil {
		return fmt.Errorf("failed to stop travel: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}

	if final != nil {
		final.TravelID = id
		if err := insertPunchIn(tx, final); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func queryTravels(db *sql.DB, query string, args ...any) ([]models.Travel, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query travels: %w", err)
	}

	var travels []models.Travel
	for rows.Next() {
		t, err := scanTravel(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan travel: %w", err)
		}
		travels = append(travels, *t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating travels: %w", err)
	}
	// Close before the punch-in queries; the pool holds a single connection.
	_ = rows.Close()

	for i := range travels {
		if travels[i].PunchIns, err = listPunchIns(db, travels[i].ID); err != nil {
			return nil, err
		}
	}
	return travels, nil
}

func scanTravel(row rowScanner) (*models.Travel, error) {
	var t models.Travel
	var ended sql.NullTime
	if err := row.Scan(&t.ID, &t.Title, &t.Status, &t.StartedAt, &ended); err != nil {
		return nil, err
	}
	t.EndedAt = timePtr(ended)
	return &t, nil
}

func insertPunchIn(tx *sql.Tx, p *models.PunchIn) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.At.IsZero() {
		p.At = time.Now()
	}

	_, err := tx.Exec(`
		INSERT INTO punch_ins (id, travel_id, at, location, latitude, longitude, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID.String(), p.TravelID.String(), p.At.UTC(), p.Location, nullFloat(p.Latitude), nullFloat(p.Longitude), p.Kind)
	if err != nil {
		return fmt.Errorf("failed to insert punch-in: %w", err)
	}
	return nil
}

func listPunchIns(db *sql.DB, travelID uuid.UUID) ([]models.PunchIn, error) {
	rows, err := db.Query(`
		SELECT id, travel_id, at, location, latitude, longitude, kind
		FROM punch_ins
		WHERE travel_id = ?
		ORDER BY at, rowid
	`, travelID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query punch-ins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	punches := []models.PunchIn{}
	for rows.Next() {
		var p models.PunchIn
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.TravelID, &p.At, &p.Location, &lat, &lng, &p.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan punch-in: %w", err)
		}
		p.Latitude = floatPtr(lat)
		p.Longitude = floatPtr(lng)
		punches = append(punches, p)
	}
	return punches, rows.Err()
}
