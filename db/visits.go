// ABOUTME: Visit database operations
// ABOUTME: Handles the visit schedule, check-in, completion with quoted products, and counts
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldforce/models"
)

const visitColumns = `id, crm_id, client_name, address, visit_type, status, scheduled_at, contact_person, phone,
	latitude, longitude, checked_in_at, completed_at, reason, notes, created_at, updated_at`

func CreateVisit(db *sql.DB, visit *models.Visit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	if visit.Status == "" {
		visit.Status = models.VisitPending
	}
	now := time.Now().UTC()
	visit.CreatedAt = now
	visit.UpdatedAt = now

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO visits (`+visitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, visit.ID.String(), nullString(visit.CRMID), visit.ClientName, visit.Address, visit.Type, visit.Status,
		visit.ScheduledAt.UTC(), nullString(visit.ContactPerson), nullString(visit.Phone),
		visit.Latitude, visit.Longitude, nullTime(visit.CheckedInAt), nullTime(visit.CompletedAt),
		nullString(visit.Reason), nullString(visit.Notes), visit.CreatedAt, visit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}

	if err := insertVisitProducts(tx, visit.ID, visit.Products); err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*models.Visit, error) {
	var v models.Visit
	var crmID, contact, phone, reason, notes, address sql.NullString
	var checkedIn, completed sql.NullTime

	err := row.Scan(
		&v.ID,
		&crmID,
		&v.ClientName,
		&address,
		&v.Type,
		&v.Status,
		&v.ScheduledAt,
		&contact,
		&phone,
		&v.Latitude,
		&v.Longitude,
		&checkedIn,
		&completed,
		&reason,
		&notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.CRMID = crmID.String
	v.Address = address.String
	v.ContactPerson = contact.String
	v.Phone = phone.String
	v.Reason = reason.String
	v.Notes = notes.String
	v.CheckedInAt = timePtr(checkedIn)
	v.CompletedAt = timePtr(completed)
	return &v, nil
}

func GetVisit(db *sql.DB, id uuid.UUID) (*models.Visit, error) {
	visit, err := scanVisit(db.QueryRow(`SELECT `+visitColumns+` FROM visits WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	products, err := listVisitProducts(db, id)
	if err != nil {
		return nil, err
	}
	visit.Products = products
	return visit, nil
}

// ListVisits returns visits most recently scheduled first. An empty status returns all.
func ListVisits(db *sql.DB, status string) ([]models.Visit, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.Query(`
			SELECT `+visitColumns+`
			FROM visits
			WHERE status = ?
			ORDER BY scheduled_at DESC
		`, status)
	} else {
		rows, err = db.Query(`
			SELECT ` + visitColumns + `
			FROM visits
			ORDER BY scheduled_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var visits []models.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}
	return visits, nil
}

// CheckInVisit moves a pending visit to checked_in.
func CheckInVisit(db *sql.DB, id uuid.UUID, at time.Time) error {
	res, err := db.Exec(`
		UPDATE visits
		SET status = ?, checked_in_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.VisitCheckedIn, at.UTC(), time.Now().UTC(), id.String(), models.VisitPending)
	if err != nil {
		return fmt.Errorf("failed to check in visit: %w", err)
	}
	return requireOneRow(res)
}

// CompleteVisit stores the completion form and, when entry is non-nil, queues it
// in the outbox within the same transaction.
func CompleteVisit(db *sql.DB, id uuid.UUID, completion *models.VisitCompletion, at time.Time, entry *OutboxEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE visits
		SET status = ?, completed_at = ?, reason = ?, notes = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.VisitCompleted, at.UTC(), completion.Reason, nullString(completion.Notes), time.Now().UTC(),
		id.String(), models.VisitCheckedIn)
	if err != nil {
		return fmt.Errorf("failed to complete visit: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM visit_products WHERE visit_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to clear visit products: %w", err)
	}
	if err := insertVisitProducts(tx, id, completion.Products); err != nil {
		return err
	}

	if entry != nil {
		if err := insertOutbox(tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// VisitCounts tallies visits by status.
type VisitCounts struct {
	Total     int
	Completed int
	Pending   int
}

// CountVisits counts visits scheduled in [from, to).
func CountVisits(db *sql.DB, from, to time.Time) (VisitCounts, error) {
	var counts VisitCounts
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM visits
		WHERE scheduled_at >= ? AND scheduled_at < ?
	`, from.UTC(), to.UTC()).Scan(&counts.Total, &counts.Completed)
	if err != nil {
		return counts, fmt.Errorf("failed to count visits: %w", err)
	}
	counts.Pending = counts.Total - counts.Completed
	return counts, nil
}

func insertVisitProducts(tx *sql.Tx, visitID uuid.UUID, products []models.ProductQuantity) error {
	for i, p := range products {
		_, err := tx.Exec(`
			INSERT INTO visit_products (visit_id, position, name, quantity)
			VALUES (?, ?, ?, ?)
		`, visitID.String(), i, p.Name, p.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert visit product: %w", err)
		}
	}
	return nil
}

func listVisitProducts(db *sql.DB, visitID uuid.UUID) ([]models.ProductQuantity, error) {
	rows, err := db.Query(`
		SELECT name, quantity FROM visit_products
		WHERE visit_id = ?
		ORDER BY position
	`, visitID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query visit products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []models.ProductQuantity
	for rows.Next() {
		var p models.ProductQuantity
		if err := rows.Scan(&p.Name, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan visit product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
