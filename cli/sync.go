// ABOUTME: CRM outbox CLI commands
// ABOUTME: Delivers queued visit notes, shows delivery status, and requeues failures
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/sync"
)

// SyncCommand dispatches `sync now|status|retry`.
func SyncCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("sync requires a subcommand: now, status, retry")
	}
	switch args[0] {
	case "now":
		return syncNow(ctx, app)
	case "status":
		return syncStatus(app)
	case "retry":
		return syncRetry(ctx, app)
	default:
		return fmt.Errorf("unknown sync command: %s", args[0])
	}
}

func syncNow(ctx context.Context, app *App) error {
	result, err := app.Worker.Drain(ctx)
	app.printf("Sent: %d  Retrying: %d  Failed: %d\n", result.Sent, result.Retried, result.Failed)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	app.printf("✓ Sync complete\n")
	return nil
}

func syncStatus(app *App) error {
	status, err := sync.GetStatus(app.DB)
	if err != nil {
		return err
	}

	app.printf("CRM MODE: %s\n\n", app.Config.CRM.Mode)
	if status.State == nil {
		app.printf("Status: never synced\n")
	} else {
		app.printf("Status: %s\n", status.State.Status)
		if status.State.LastSyncTime != nil {
			app.printf("Last sync: %s\n", status.State.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
		}
		if status.State.ErrorMessage != nil {
			app.printf("Last error: %s\n", *status.State.ErrorMessage)
		}
	}

	app.printf("\nOutbox:\n")
	for _, s := range []string{db.OutboxPending, db.OutboxSending, db.OutboxSent, db.OutboxFailed} {
		app.printf("  %-8s %d\n", s, status.Counts[s])
	}

	failed, err := db.ListOutbox(app.DB, db.OutboxFailed, 10)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		app.printf("\nFailed deliveries:\n")
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "  ID\tKIND\tATTEMPTS\tERROR")
		for _, e := range failed {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", e.ID, e.Kind, e.Attempts, e.LastError)
		}
		_ = w.Flush()
		app.printf("\nRun 'fieldforce sync retry' to queue them again.\n")
	}
	return nil
}

func syncRetry(ctx context.Context, app *App) error {
	n, err := db.RequeueOutbox(app.DB, time.Now().Add(-db.StaleSendingAfter), true)
	if err != nil {
		return err
	}
	app.printf("Requeued %d entr(ies)\n", n)
	if n == 0 {
		return nil
	}
	return syncNow(ctx, app)
}
