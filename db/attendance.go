// ABOUTME: Attendance database operations
// ABOUTME: Stores daily attendance captures and looks up the latest one
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldforce/models"
)

const attendanceColumns = `id, transport_mode, vehicle_type, public_transport, odometer_reading, odometer_km,
	odometer_photo, latitude, longitude, location_captured, captured_at`

func CreateAttendance(db *sql.DB, a *models.Attendance) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CapturedAt.IsZero() {
		a.CapturedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID.String(), a.TransportMode, nullString(a.VehicleType), nullString(a.PublicTransport),
		nullString(a.OdometerReading), nullFloat(a.OdometerKM), nullString(a.OdometerPhoto),
		a.Latitude, a.Longitude, a.LocationCaptured, a.CapturedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert attendance: %w", err)
	}
	return nil
}

func scanAttendance(row rowScanner) (*models.Attendance, error) {
	var a models.Attendance
	var vehicle, public, reading, photo sql.NullString
	var km sql.NullFloat64

	err := row.Scan(
		&a.ID,
		&a.TransportMode,
		&vehicle,
		&public,
		&reading,
		&km,
		&photo,
		&a.Latitude,
		&a.Longitude,
		&a.LocationCaptured,
		&a.CapturedAt,
	)
	if err != nil {
		return nil, err
	}

	a.VehicleType = vehicle.String
	a.PublicTransport = public.String
	a.OdometerReading = reading.String
	a.OdometerKM = floatPtr(km)
	a.OdometerPhoto = photo.String
	return &a, nil
}

// ListAttendance returns attendance records newest first.
func ListAttendance(db *sql.DB, limit int) ([]models.Attendance, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := db.Query(`
		SELECT `+attendanceColumns+`
		FROM attendance
		ORDER BY captured_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}
	return records, nil
}

// LatestAttendanceSince returns the newest record captured at or after since.
func LatestAttendanceSince(db *sql.DB, since time.Time) (*models.Attendance, error) {
	a, err := scanAttendance(db.QueryRow(`
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE captured_at >= ?
		ORDER BY captured_at DESC
		LIMIT 1
	`, since.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}
