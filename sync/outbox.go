// ABOUTME: Background delivery of queued CRM writes
// ABOUTME: Polls the outbox, pushes visit notes to the CRM, and records sync state
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/fieldforce/config"
	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/logging"
)

// ServiceCRM is the sync_state key for outbox delivery.
const ServiceCRM = "crm"

// Worker delivers outbox entries to the CRM.
type Worker struct {
	db     *sql.DB
	source crm.Source
	cfg    config.SyncConfig
	now    func() time.Time
}

func NewWorker(database *sql.DB, source crm.Source, cfg config.SyncConfig) *Worker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 20
	}
	return &Worker{db: database, source: source, cfg: cfg, now: time.Now}
}

// Result summarises one delivery pass.
type Result struct {
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
}

// Run requeues entries left mid-delivery by a previous process, then drains
// the outbox every interval until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if n, err := db.RequeueOutbox(w.db, w.now(), false); err != nil {
		return err
	} else if n > 0 {
		logging.Info("requeued interrupted outbox entries", "count", n)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if res, err := w.Drain(ctx); err != nil {
			logging.Error("outbox drain failed", "err", err)
		} else if res.Sent+res.Retried+res.Failed > 0 {
			logging.Info("outbox drained", "sent", res.Sent, "retried", res.Retried, "failed", res.Failed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Drain delivers pending entries batch by batch. It stops at the first batch
// with a delivery error so retries wait for the next pass. When ctx is
// cancelled mid-batch the undelivered entries go back to pending unchanged.
func (w *Worker) Drain(ctx context.Context) (Result, error) {
	var res Result
	if err := db.UpdateSyncStatus(w.db, ServiceCRM, db.SyncSyncing, nil); err != nil {
		return res, err
	}

	var lastSent, lastErr string
	for ctx.Err() == nil {
		entries, err := db.ClaimOutbox(w.db, w.cfg.BatchSize)
		if err != nil {
			return res, w.fail(err)
		}
		if len(entries) == 0 {
			break
		}

		batchFailed := false
		for i, entry := range entries {
			if ctx.Err() != nil {
				return res, w.interrupt(entries[i:], lastSent, lastErr)
			}
			if err := w.deliver(ctx, &entry); err != nil {
				if ctx.Err() != nil {
					return res, w.interrupt(entries[i:], lastSent, lastErr)
				}
				batchFailed = true
				lastErr = err.Error()
				status, markErr := db.MarkOutboxError(w.db, entry.ID, lastErr, w.cfg.MaxAttempts)
				if markErr != nil {
					return res, w.fail(markErr)
				}
				if status == db.OutboxFailed {
					res.Failed++
					logging.Error("outbox entry failed permanently", "id", entry.ID, "attempts", entry.Attempts, "err", err)
				} else {
					res.Retried++
					logging.Warn("outbox delivery failed, will retry", "id", entry.ID, "attempts", entry.Attempts, "err", err)
				}
				continue
			}

			if err := db.MarkOutboxSent(w.db, entry.ID, w.now()); err != nil {
				return res, w.fail(err)
			}
			res.Sent++
			lastSent = entry.ID
		}

		if batchFailed || len(entries) < w.cfg.BatchSize {
			break
		}
	}

	if lastErr != "" {
		return res, db.UpdateSyncStatus(w.db, ServiceCRM, db.SyncError, &lastErr)
	}
	return res, db.MarkSynced(w.db, ServiceCRM, lastSent, w.now())
}

// interrupt puts undelivered claimed entries back to pending after ctx is
// cancelled and records the state reached so far.
func (w *Worker) interrupt(entries []db.OutboxEntry, lastSent, lastErr string) error {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	if err := db.ReleaseOutbox(w.db, ids); err != nil {
		return w.fail(err)
	}
	logging.Info("outbox drain interrupted", "released", len(ids))

	if lastErr != "" {
		return db.UpdateSyncStatus(w.db, ServiceCRM, db.SyncError, &lastErr)
	}
	if lastSent != "" {
		return db.MarkSynced(w.db, ServiceCRM, lastSent, w.now())
	}
	return db.UpdateSyncStatus(w.db, ServiceCRM, db.SyncIdle, nil)
}

func (w *Worker) fail(err error) error {
	msg := err.Error()
	_ = db.UpdateSyncStatus(w.db, ServiceCRM, db.SyncError, &msg)
	return err
}

func (w *Worker) deliver(ctx context.Context, entry *db.OutboxEntry) error {
	switch entry.Kind {
	case db.KindVisitNote:
		var note crm.VisitNote
		if err := json.Unmarshal(entry.Payload, &note); err != nil {
			return fmt.Errorf("failed to decode visit note: %w", err)
		}
		return w.source.PushVisitNotes(ctx, note)
	default:
		return fmt.Errorf("unknown outbox entry kind %q", entry.Kind)
	}
}

// Status is the delivery state shown by `sync status`.
type Status struct {
	State  *db.SyncState
	Counts map[string]int
}

// GetStatus returns the CRM sync state (nil before the first pass) and outbox counts.
func GetStatus(database *sql.DB) (*Status, error) {
	counts, err := db.CountOutbox(database)
	if err != nil {
		return nil, err
	}
	state, err := db.GetSyncState(database, ServiceCRM)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	return &Status{State: state, Counts: counts}, nil
}
