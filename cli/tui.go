// ABOUTME: Terminal UI subcommand
// ABOUTME: Starts the full-screen browser when stdout is a terminal
package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/harperreed/fieldforce/tui"
)

// TUICommand runs the interactive terminal UI.
func TUICommand(ctx context.Context, app *App) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal")
	}
	return tui.Run(ctx, app.Service, app.DB, app.Worker)
}
