// ABOUTME: Entry point for the fieldforce web app, MCP server, TUI and CLI
// ABOUTME: Loads config, sets up logging and routes to the requested command
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/fieldforce/cli"
	"github.com/harperreed/fieldforce/config"
	"github.com/harperreed/fieldforce/logging"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file path (default: ~/.config/fieldforce/config.yaml)")
	dbPath := flag.String("db-path", "", "Database path (overrides config)")
	debug := flag.Bool("debug", false, "Log debug output to stderr")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("fieldforce version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Error: %v", err)
	}

	path := *configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *debug {
		cfg.Debug = true
	}

	if err := logging.Init(logging.Config{Debug: cfg.Debug, LogDir: cfg.LogDir}); err != nil {
		log.Fatalf("Failed to initialise logging: %v", err)
	}

	command := args[0]
	commandArgs := args[1:]

	// config works without a database
	if command == "config" {
		if err := cli.ConfigCommand(os.Stdout, cfg, path, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, command, commandArgs); err != nil {
		logging.Error("command failed", "command", command, "error", err)
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "serve", "mcp", "tui", "leads", "visits", "attendance", "travel", "sync", "viz":
	case "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	logging.Debug("starting", "command", command, "crm_mode", cfg.CRM.Mode, "db", cfg.DatabasePath)

	switch command {
	case "serve":
		return cli.ServeCommand(ctx, app, args)
	case "mcp":
		return cli.MCPCommand(ctx, app, version)
	case "tui":
		return cli.TUICommand(ctx, app)
	case "leads":
		return cli.LeadsCommand(ctx, app, args)
	case "visits":
		return cli.VisitsCommand(ctx, app, args)
	case "attendance":
		return cli.AttendanceCommand(ctx, app, args)
	case "travel":
		return cli.TravelCommand(ctx, app, args)
	case "viz":
		return cli.VizCommand(ctx, app, args)
	default:
		return cli.SyncCommand(ctx, app, args)
	}
}

func printUsage() {
	fmt.Printf(`fieldforce v%s - Field sales companion

USAGE:
  fieldforce [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/fieldforce/config.yaml)
  --db-path <path>       Database path (default: ~/.local/share/fieldforce/fieldforce.db)
  --debug                Mirror debug logs to stderr

COMMANDS:
  serve                  Run the web app and background CRM sync
    --addr <host:port>     Listen address (default from config)
    --no-sync              Do not run the sync worker

  mcp                    Start MCP server on stdio
  tui                    Interactive terminal UI

  leads list             List leads
    --query <text>         Filter by name
  leads show <id>        Show lead detail
  leads assign <id>      Assign a fabricator
    --fabricator <name>    Fabricator name (required)

  visits list            List visits
    --status <status>      pending, checked_in or completed
  visits check-in <id>   Check in to a visit
  visits complete <id>   Complete a checked-in visit
    --reason <reason>      inspection, service, quote, demo, follow-up
    --notes <text>         Visit notes
    --products <list>      Quote products as "Name=qty,Name=qty"

  attendance mark        Mark today's attendance
    --mode <mode>          private or public
    --vehicle <type>       car or bike (private)
    --public <type>        bus or train (public)
    --odometer <km>        Odometer reading (car or bike)
    --photo <path>         Odometer photo reference
    --lat/--lng <deg>      Current location
  attendance list        Recent attendance
    --limit <n>            Max rows (default: 10)

  travel start           Start a travel
    --title <text>         Travel title
    --location <text>      Start location
    --lat/--lng <deg>      Start coordinates
  travel punch [id]      Punch in on the active travel
    --kind <kind>          arrival, departure or checkpoint
  travel stop [id]       Stop the active travel
  travel list            Recent travels
    --limit <n>            Max rows (default: 10)
    -v                     Show punch-ins

  sync now               Push pending visit notes to the CRM
  sync status            Outbox counts and failures
  sync retry             Requeue failed entries and push

  viz dashboard          Terminal dashboard with the lead pipeline
  viz graph route [id]   GraphViz DOT of a travel route (default: active travel)
  viz graph pipeline     GraphViz DOT of leads by stage
    --output <file>        Write to file instead of stdout

  config init            Write a starter config file
    --force                Overwrite an existing file
  config show            Print effective config (secrets redacted)
  config path            Print the config file path

ENVIRONMENT:
  FIELDFORCE_CRM_MODE, FIELDFORCE_CRM_URL, FIELDFORCE_CRM_CLIENT_ID,
  FIELDFORCE_CRM_CLIENT_SECRET, FIELDFORCE_DB and other FIELDFORCE_* variables
  override the config file.
  A .env file in the working directory is loaded first.
`, version)
}
