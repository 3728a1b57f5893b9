// ABOUTME: Web server subcommand
// ABOUTME: Runs the mobile web UI and, when enabled, the background outbox worker
package cli

import (
	"context"
	"flag"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/web"
)

// ServeCommand serves the web UI until ctx is cancelled.
func ServeCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", app.Config.ListenAddr, "Listen address")
	noSync := fs.Bool("no-sync", false, "Disable the background CRM outbox worker")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(app.Service)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if interval := app.Config.Sync.Interval; interval > 0 && !*noSync {
		g.Go(func() error {
			logging.Info("outbox worker started", "interval", interval)
			return app.Worker.Run(ctx, interval)
		})
	}
	g.Go(func() error {
		app.printf("Field Force running at http://%s\n", *addr)
		return server.Start(ctx, *addr)
	})
	return g.Wait()
}
