// ABOUTME: Configuration CLI commands
// ABOUTME: Writes a starter config file and prints the effective settings
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/fieldforce/config"
)

// ConfigCommand dispatches `config init|show|path`. It needs no database.
func ConfigCommand(out io.Writer, cfg *config.Config, path string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("config requires a subcommand: init, show, path")
	}
	switch args[0] {
	case "init":
		return configInit(out, path, args[1:])
	case "show":
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "# %s\n%s", path, data)
		return nil
	case "path":
		_, _ = fmt.Fprintln(out, path)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func configInit(out io.Writer, path string, args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config: %w", err)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Wrote default config to %s\n", path)
	_, _ = fmt.Fprintln(out, "Set crm.mode to live and add your CRM credentials to connect to a real instance.")
	return nil
}
