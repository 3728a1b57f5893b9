// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the terminal dashboard and route/pipeline graph generation
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/fieldforce/viz"
)

// VizCommand dispatches `viz dashboard|graph`.
func VizCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("viz requires a subcommand: dashboard, graph")
	}
	switch args[0] {
	case "dashboard":
		return vizDashboard(ctx, app)
	case "graph":
		return vizGraph(ctx, app, args[1:])
	default:
		return fmt.Errorf("unknown viz command: %s", args[0])
	}
}

func vizDashboard(ctx context.Context, app *App) error {
	stats, err := app.Service.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}
	leads, err := app.Service.Leads(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to fetch leads: %w", err)
	}

	app.printf("%s", viz.RenderDashboard(stats, leads))
	return nil
}

// vizGraph handles `viz graph route [travel-id]` and `viz graph pipeline`.
func vizGraph(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("viz graph requires a type: route, pipeline")
	}
	kind := args[0]

	fs := flag.NewFlagSet("viz graph "+kind, flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var graph *viz.Rendered
	var err error
	switch kind {
	case "route":
		travel, travelErr := activeOrArg(app, fs)
		if travelErr != nil {
			return travelErr
		}
		graph, err = viz.RouteGraph(ctx, travel)
	case "pipeline":
		leads, leadsErr := app.Service.Leads(ctx, "")
		if leadsErr != nil {
			return fmt.Errorf("failed to fetch leads: %w", leadsErr)
		}
		graph, err = viz.PipelineGraph(ctx, leads)
	default:
		return fmt.Errorf("unknown graph type: %s (valid types: route, pipeline)", kind)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(graph.DOT), 0644); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
		app.printf("✓ Wrote %d nodes and %d edges to %s\n", graph.Nodes, graph.Edges, *output)
		return nil
	}

	app.printf("%s\n", graph.DOT)
	return nil
}
