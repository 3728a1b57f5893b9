// ABOUTME: Lead CLI commands
// ABOUTME: Lists, shows, and assigns fabricators to CRM opportunities
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/fieldforce/fieldops"
)

// LeadsCommand dispatches `leads list|show|assign`.
func LeadsCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("leads requires a subcommand: list, show, assign")
	}
	switch args[0] {
	case "list":
		return listLeads(ctx, app, args[1:])
	case "show":
		return showLead(ctx, app, args[1:])
	case "assign":
		return assignFabricator(ctx, app, args[1:])
	default:
		return fmt.Errorf("unknown leads command: %s", args[0])
	}
}

func listLeads(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("leads list", flag.ContinueOnError)
	query := fs.String("query", "", "Filter by lead name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	leads, err := app.Service.Leads(ctx, *query)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}
	if len(leads) == 0 {
		app.printf("No leads found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTAGE\tACCOUNT\tFABRICATOR\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-------\t----------\t--")
	for _, lead := range leads {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			lead.Name, lead.StageName, dash(lead.AccountName), dash(lead.FabricatorName), lead.ID)
	}
	_ = w.Flush()

	app.printf("\nTotal: %d lead(s)\n", len(leads))
	return nil
}

func showLead(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: leads show <id>")
	}

	lead, err := app.Service.Lead(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}

	app.printf("%s\n", lead.Name)
	app.printf("  Stage:      %s\n", lead.StageName)
	app.printf("  Account:    %s\n", dash(lead.AccountName))
	app.printf("  Address:    %s\n", dash(lead.Address.String()))
	app.printf("  Source:     %s\n", dash(lead.LeadSource))
	app.printf("  Type:       %s\n", dash(lead.Type))
	app.printf("  Fabricator: %s\n", dash(lead.FabricatorName))
	if lead.Quantity > 0 {
		app.printf("  Quantity:   %g\n", lead.Quantity)
	}
	for _, c := range lead.Contacts {
		app.printf("  Contact:    %s %s %s\n", c.Name, c.Phone, c.Email)
	}
	if len(lead.LineItems) > 0 {
		app.printf("\nProducts:\n")
		for _, item := range lead.LineItems {
			app.printf("  %s x%g @ %.2f = %.2f\n", item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice)
		}
		app.printf("  Total: %.2f\n", lead.LineItemsTotal())
	}
	return nil
}

func assignFabricator(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("leads assign", flag.ContinueOnError)
	fabricator := fs.String("fabricator", "", "Fabricator name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: leads assign --fabricator <name> <id>")
	}

	if err := app.Service.AssignFabricator(ctx, fs.Arg(0), *fabricator); err != nil {
		return err
	}
	app.printf("✓ %s\n", fieldops.NoticeFabricatorAssigned.Title)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
