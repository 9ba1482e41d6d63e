// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/crmgrid/viz"
)

// VizCommand runs `crmgrid viz <dashboard|graph>`.
func VizCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return VizDashboardCommand(ctx, app)
	}
	switch args[0] {
	case "dashboard":
		return VizDashboardCommand(ctx, app)
	case "graph":
		return VizGraphCommand(ctx, app, args[1:])
	}
	return fmt.Errorf("unknown viz command: %s", args[0])
}

// VizGraphCommand generates a pipeline, accounts or contact graph.
func VizGraphCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("viz graph requires a type (pipeline, accounts, or contact)")
	}
	graphType := args[0]

	fs := flag.NewFlagSet("viz graph "+graphType, flag.ContinueOnError)
	fs.SetOutput(app.Out)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", viz.FormatDOT, "Output format: dot or svg")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	generator := viz.NewGraphGenerator(app.Client)
	var graph string
	var err error
	switch graphType {
	case "pipeline":
		graph, err = generator.PipelineGraph(ctx, *format)
	case "accounts":
		graph, err = generator.AccountGraph(ctx, *format)
	case "contact":
		if fs.NArg() < 1 {
			return fmt.Errorf("contact ID required")
		}
		graph, err = generator.ContactGraph(ctx, fs.Arg(0), *format)
	default:
		return fmt.Errorf("unknown graph type: %s", graphType)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(graph), 0644)
	}

	_, _ = fmt.Fprintln(app.Out, graph)
	return nil
}

func VizDashboardCommand(ctx context.Context, app *App) error {
	stats, err := viz.GenerateDashboardStats(ctx, app.Client, time.Now())
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}
