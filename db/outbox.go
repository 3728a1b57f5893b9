// ABOUTME: Outbox queue for CRM writes awaiting delivery
// ABOUTME: Handles enqueue, claiming batches, and recording delivery success or failure
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outbox status constants.
const (
	OutboxPending = "pending"
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Outbox entry kinds.
const (
	KindVisitNote = "visit_note"
)

type OutboxEntry struct {
	ID        string
	Kind      string
	Payload   json.RawMessage
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
	SentAt    *time.Time
}

// NewOutboxEntry encodes payload as JSON under a time-ordered id.
func NewOutboxEntry(kind string, payload any) (*OutboxEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outbox payload: %w", err)
	}
	return &OutboxEntry{
		ID:      ulid.Make().String(),
		Kind:    kind,
		Payload: data,
		Status:  OutboxPending,
	}, nil
}

func EnqueueOutbox(db *sql.DB, entry *OutboxEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertOutbox(tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func insertOutbox(tx *sql.Tx, entry *OutboxEntry) error {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.Status == "" {
		entry.Status = OutboxPending
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := tx.Exec(`
		INSERT INTO outbox (id, kind, payload, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Kind, string(entry.Payload), entry.Status, entry.Attempts, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}
	return nil
}

// ClaimOutbox marks up to limit pending entries as sending, oldest first,
// counts the attempt, and returns them.
func ClaimOutbox(db *sql.DB, limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entries, err := queryOutbox(tx, `
		SELECT id, kind, payload, status, attempts, last_error, created_at, updated_at, sent_at
		FROM outbox
		WHERE status = ?
		ORDER BY id
		LIMIT ?
	`, OutboxPending, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range entries {
		_, err := tx.Exec(`
			UPDATE outbox SET status = ?, attempts = attempts + 1, updated_at = ?
			WHERE id = ?
		`, OutboxSending, now, entries[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to claim outbox entry: %w", err)
		}
		entries[i].Status = OutboxSending
		entries[i].Attempts++
		entries[i].UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return entries, nil
}

func MarkOutboxSent(db *sql.DB, id string, at time.Time) error {
	res, err := db.Exec(`
		UPDATE outbox SET status = ?, last_error = NULL, sent_at = ?, updated_at = ?
		WHERE id = ?
	`, OutboxSent, at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry sent: %w", err)
	}
	return requireOneRow(res)
}

// MarkOutboxError records a failed delivery. The entry goes back to pending
// until it has used maxAttempts, then it is failed. Returns the new status.
func MarkOutboxError(db *sql.DB, id, message string, maxAttempts int) (string, error) {
	var attempts int
	if err := db.QueryRow(`SELECT attempts FROM outbox WHERE id = ?`, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read outbox attempts: %w", err)
	}

	status := OutboxPending
	if attempts >= maxAttempts {
		status = OutboxFailed
	}

	_, err := db.Exec(`
		UPDATE outbox SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, status, message, time.Now().UTC(), id)
	if err != nil {
		return "", fmt.Errorf("failed to mark outbox entry error: %w", err)
	}
	return status, nil
}

// ReleaseOutbox returns claimed entries to pending and takes back the attempt
// ClaimOutbox counted, for deliveries that were never tried.
func ReleaseOutbox(db *sql.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, id := range ids {
		_, err := tx.Exec(`
			UPDATE outbox SET status = ?, attempts = MAX(attempts - 1, 0), updated_at = ?
			WHERE id = ? AND status = ?
		`, OutboxPending, now, id, OutboxSending)
		if err != nil {
			return fmt.Errorf("failed to release outbox entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

// StaleSendingAfter is how long an entry may sit in sending before another
// process treats its delivery as abandoned.
const StaleSendingAfter = 10 * time.Minute

// RequeueOutbox returns sending entries last touched at or before staleBefore
// to pending. With includeFailed, failed entries are also requeued with their
// attempts reset.
func RequeueOutbox(db *sql.DB, staleBefore time.Time, includeFailed bool) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sending, err := queryOutbox(tx, `
		SELECT id, kind, payload, status, attempts, last_error, created_at, updated_at, sent_at
		FROM outbox
		WHERE status = ?
	`, OutboxSending)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var n int64
	for _, e := range sending {
		if e.UpdatedAt.After(staleBefore) {
			continue
		}
		if _, err := tx.Exec(`UPDATE outbox SET status = ?, updated_at = ? WHERE id = ?`, OutboxPending, now, e.ID); err != nil {
			return 0, fmt.Errorf("failed to requeue outbox: %w", err)
		}
		n++
	}

	if includeFailed {
		res, err := tx.Exec(`
			UPDATE outbox SET status = ?, attempts = 0, updated_at = ?
			WHERE status = ?
		`, OutboxPending, now, OutboxFailed)
		if err != nil {
			return 0, fmt.Errorf("failed to requeue failed outbox entries: %w", err)
		}
		m, _ := res.RowsAffected()
		n += m
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit requeue: %w", err)
	}
	return n, nil
}

// ListOutbox returns entries newest first. An empty status returns all.
func ListOutbox(db *sql.DB, status string, limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if status == "" {
		return queryOutbox(db, `
			SELECT id, kind, payload, status, attempts, last_error, created_at, updated_at, sent_at
			FROM outbox ORDER BY id DESC LIMIT ?
		`, limit)
	}
	return queryOutbox(db, `
		SELECT id, kind, payload, status, attempts, last_error, created_at, updated_at, sent_at
		FROM outbox WHERE status = ? ORDER BY id DESC LIMIT ?
	`, status, limit)
}

// CountOutbox returns the number of entries per status.
func CountOutbox(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outbox count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryOutbox(q querier, query string, args ...any) ([]OutboxEntry, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var payload string
		var lastError sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &e.Status, &e.Attempts, &lastError, &e.CreatedAt, &e.UpdatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		e.LastError = lastError.String
		e.SentAt = timePtr(sentAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox: %w", err)
	}
	return entries, nil
}
