// ABOUTME: Visit and attendance CLI commands
// ABOUTME: Lists visits, checks in, completes with notes, and captures attendance
package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

// VisitsCommand dispatches `visits list|check-in|complete`.
func VisitsCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("visits requires a subcommand: list, check-in, complete")
	}
	switch args[0] {
	case "list":
		return listVisits(app, args[1:])
	case "check-in":
		return checkInVisit(ctx, app, args[1:])
	case "complete":
		return completeVisit(ctx, app, args[1:])
	default:
		return fmt.Errorf("unknown visits command: %s", args[0])
	}
}

func listVisits(app *App, args []string) error {
	fs := flag.NewFlagSet("visits list", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by status (pending, checked_in, completed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *status != "" && !models.IsVisitStatus(*status) {
		return fmt.Errorf("invalid status: %s (valid: pending, checked_in, completed)", *status)
	}

	visits, err := app.Service.Visits(*status)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}
	if len(visits) == 0 {
		app.printf("No visits found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CLIENT\tTYPE\tSTATUS\tSCHEDULED\tID")
	_, _ = fmt.Fprintln(w, "------\t----\t------\t---------\t--")
	for _, v := range visits {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.ClientName, v.Type, v.Status, v.ScheduledAt.Local().Format("2006-01-02 15:04"), v.ID)
	}
	_ = w.Flush()

	app.printf("\nTotal: %d visit(s)\n", len(visits))
	return nil
}

func parseUUIDArg(fs *flag.FlagSet, usage string) (uuid.UUID, error) {
	if fs.NArg() == 0 {
		return uuid.Nil, fmt.Errorf("usage: %s", usage)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func checkInVisit(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("visits check-in", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseUUIDArg(fs, "visits check-in <id>")
	if err != nil {
		return err
	}

	visit, err := app.Service.CheckIn(ctx, id)
	if err != nil {
		return err
	}
	app.printf("✓ %s: %s\n", fieldops.NoticeCheckedIn.Title, visit.ClientName)
	return nil
}

// parseProducts reads "Name=qty" pairs separated by commas.
func parseProducts(raw string) ([]models.ProductQuantity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var products []models.ProductQuantity
	for _, part := range strings.Split(raw, ",") {
		name, qty, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid product %q: expected name=quantity", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity for %s: %w", strings.TrimSpace(name), err)
		}
		products = append(products, models.ProductQuantity{Name: strings.TrimSpace(name), Quantity: n})
	}
	return products, nil
}

func completeVisit(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("visits complete", flag.ContinueOnError)
	reason := fs.String("reason", "", "Visit reason: inspection, service, quote, demo, follow-up (required)")
	notes := fs.String("notes", "", "Visit notes")
	products := fs.String("products", "", `Quoted products, e.g. "French Door=2,Sliding Door=1"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseUUIDArg(fs, "visits complete --reason <reason> <id>")
	if err != nil {
		return err
	}
	quoted, err := parseProducts(*products)
	if err != nil {
		return err
	}

	visit, err := app.Service.CompleteVisit(ctx, id, &models.VisitCompletion{
		Reason:   *reason,
		Notes:    *notes,
		Products: quoted,
	})
	if err != nil {
		return err
	}
	app.printf("✓ %s: %s (%s)\n", fieldops.NoticeVisitCompleted.Title, visit.ClientName, models.ReasonLabel(visit.Reason))
	return nil
}

// AttendanceCommand dispatches `attendance mark|list`.
func AttendanceCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("attendance requires a subcommand: mark, list")
	}
	switch args[0] {
	case "mark":
		return markAttendance(ctx, app, args[1:])
	case "list":
		return listAttendance(app, args[1:])
	default:
		return fmt.Errorf("unknown attendance command: %s", args[0])
	}
}

func markAttendance(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("attendance mark", flag.ContinueOnError)
	mode := fs.String("mode", "", "Transport mode: private or public (required)")
	vehicle := fs.String("vehicle", "", "Vehicle type for private transport: car or bike")
	public := fs.String("public", "", "Public transport: bus or train")
	odometer := fs.String("odometer", "", "Odometer reading in km (car or bike)")
	photo := fs.String("photo", "", "Odometer photo reference")
	lat := fs.String("lat", "", "Latitude")
	lng := fs.String("lng", "", "Longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a := &models.Attendance{
		TransportMode:   *mode,
		VehicleType:     *vehicle,
		PublicTransport: *public,
		OdometerReading: *odometer,
		OdometerPhoto:   *photo,
	}
	latitude, longitude, err := parseCoordinates(*lat, *lng)
	if err != nil {
		return err
	}
	if latitude != nil {
		a.Latitude, a.Longitude = *latitude, *longitude
		a.LocationCaptured = true
	}

	if err := app.Service.MarkAttendance(ctx, a); err != nil {
		return err
	}
	app.printf("✓ %s at %s\n", fieldops.NoticeAttendance.Title, a.CapturedAt.Local().Format("15:04"))
	return nil
}

func listAttendance(app *App, args []string) error {
	fs := flag.NewFlagSet("attendance list", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "Maximum number of records")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := app.Service.Attendance(*limit)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}
	if len(records) == 0 {
		app.printf("No attendance recorded\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CAPTURED\tMODE\tVEHICLE\tODOMETER\tLOCATION")
	_, _ = fmt.Fprintln(w, "--------\t----\t-------\t--------\t--------")
	for _, a := range records {
		vehicle := a.VehicleType
		if vehicle == "" {
			vehicle = a.PublicTransport
		}
		odometer := "-"
		if a.OdometerKM != nil {
			odometer = fmt.Sprintf("%.1f", *a.OdometerKM)
		}
		location := "-"
		if a.LocationCaptured {
			location = fmt.Sprintf("%.4f,%.4f", a.Latitude, a.Longitude)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.CapturedAt.Local().Format("2006-01-02 15:04"), a.TransportMode, dash(vehicle), odometer, location)
	}
	_ = w.Flush()
	return nil
}

// parseCoordinates returns nil, nil when both are empty.
func parseCoordinates(lat, lng string) (*float64, *float64, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" && lng == "" {
		return nil, nil, nil
	}
	if lat == "" || lng == "" {
		return nil, nil, fmt.Errorf("--lat and --lng must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid longitude: %w", err)
	}
	return &la, &lo, nil
}
