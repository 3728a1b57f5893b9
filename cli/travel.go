// ABOUTME: Conveyance CLI commands
// ABOUTME: Starts, punches, stops, and lists travels
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

// TravelCommand dispatches `travel start|punch|stop|list`.
func TravelCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("travel requires a subcommand: start, punch, stop, list")
	}
	switch args[0] {
	case "start":
		return startTravel(ctx, app, args[1:])
	case "punch":
		return punchTravel(ctx, app, args[1:])
	case "stop":
		return stopTravel(ctx, app, args[1:])
	case "list":
		return listTravels(app, args[1:])
	default:
		return fmt.Errorf("unknown travel command: %s", args[0])
	}
}

type punchFlags struct {
	location *string
	lat      *string
	lng      *string
}

func addPunchFlags(fs *flag.FlagSet) punchFlags {
	return punchFlags{
		location: fs.String("location", "", "Current location"),
		lat:      fs.String("lat", "", "Latitude"),
		lng:      fs.String("lng", "", "Longitude"),
	}
}

func (p punchFlags) punch() (models.PunchIn, error) {
	lat, lng, err := parseCoordinates(*p.lat, *p.lng)
	if err != nil {
		return models.PunchIn{}, err
	}
	return models.PunchIn{Location: *p.location, Latitude: lat, Longitude: lng}, nil
}

func startTravel(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("travel start", flag.ContinueOnError)
	title := fs.String("title", "", "What the trip is for (required)")
	pf := addPunchFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	start, err := pf.punch()
	if err != nil {
		return err
	}

	travel, err := app.Service.StartTravel(ctx, *title, start)
	if err != nil {
		return err
	}
	app.printf("✓ %s: %s\n", fieldops.NoticeTravelStarted.Title, travel.Title)
	app.printf("ID: %s\n", travel.ID)
	return nil
}

// activeOrArg resolves the travel from the first positional argument, or the active travel.
func activeOrArg(app *App, fs *flag.FlagSet) (*models.Travel, error) {
	if fs.NArg() > 0 {
		id, err := parseUUIDArg(fs, "")
		if err != nil {
			return nil, err
		}
		return app.Service.Travel(id)
	}
	travel, err := app.Service.ActiveTravel()
	if err != nil {
		return nil, err
	}
	if travel == nil {
		return nil, fieldops.ErrTravelNotActive
	}
	return travel, nil
}

func punchTravel(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("travel punch", flag.ContinueOnError)
	kind := fs.String("kind", models.PunchCheckpoint, "arrival, departure, or checkpoint")
	pf := addPunchFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	punch, err := pf.punch()
	if err != nil {
		return err
	}
	punch.Kind = *kind

	travel, err := activeOrArg(app, fs)
	if err != nil {
		return err
	}
	travel, err = app.Service.PunchIn(ctx, travel.ID, punch)
	if err != nil {
		return err
	}
	app.printf("✓ %s: %s (%.1f km so far)\n", fieldops.NoticeLocationPunched.Title, punch.Location, travel.DistanceKM())
	return nil
}

func stopTravel(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("travel stop", flag.ContinueOnError)
	pf := addPunchFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	final, err := pf.punch()
	if err != nil {
		return err
	}

	travel, err := activeOrArg(app, fs)
	if err != nil {
		return err
	}
	travel, err = app.Service.StopTravel(ctx, travel.ID, final)
	if err != nil {
		return err
	}
	app.printf("✓ %s: %s, %.1f km\n", fieldops.NoticeTravelCompleted.Title, travel.Title, travel.DistanceKM())
	return nil
}

func listTravels(app *App, args []string) error {
	fs := flag.NewFlagSet("travel list", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "Maximum number of travels")
	verbose := fs.Bool("v", false, "Show punch-ins")
	if err := fs.Parse(args); err != nil {
		return err
	}

	travels, err := app.Service.Travels(*limit)
	if err != nil {
		return fmt.Errorf("failed to list travels: %w", err)
	}
	if len(travels) == 0 {
		app.printf("No travels recorded\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tSTATUS\tSTARTED\tDISTANCE\tPUNCHES\tID")
	_, _ = fmt.Fprintln(w, "-----\t------\t-------\t--------\t-------\t--")
	for _, t := range travels {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f km\t%d\t%s\n",
			t.Title, t.Status, t.StartedAt.Local().Format("2006-01-02 15:04"), t.DistanceKM(), len(t.PunchIns), t.ID)
		if *verbose {
			for _, p := range t.PunchIns {
				_, _ = fmt.Fprintf(w, "  %s %s\t%s\t\t\t\t\n", p.At.Local().Format("15:04"), p.Location, strings.ToUpper(p.Kind))
			}
		}
	}
	_ = w.Flush()
	return nil
}
