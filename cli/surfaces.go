// ABOUTME: Interactive surface subcommands: terminal UI and web server
// ABOUTME: The TUI logs to a file since stderr would corrupt the screen
package cli

import (
	"context"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/crmgrid/applog"
	"github.com/harperreed/crmgrid/config"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/sync"
	"github.com/harperreed/crmgrid/tui"
	"github.com/harperreed/crmgrid/web"
)

// TUICommand runs the terminal UI until the user quits.
func TUICommand(ctx context.Context, app *App) error {
	logger, closeLog, err := applog.File(config.StateDir(), "tui.log", app.Config.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	tuiApp := *app
	tuiApp.Logger = logger

	rec := &grid.Recorder{}
	opts := tui.Options{
		Debounce: app.Config.SearchDebounce,
		Logger:   logger,
	}
	if _, err := sync.LoadToken(sync.TokenPath()); err == nil {
		opts.Sync = tuiApp.Syncer()
	}

	model := tui.NewModel(ctx, tuiApp.registry(rec), rec, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}

// WebCommand serves the web UI until ctx is cancelled.
func WebCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	port := fs.Int("port", app.Config.WebPort, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(app.Client, web.Options{
		Prefs:  app.Prefs,
		Owner:  app.Config.Owner,
		Logger: app.Logger,
	})
	if err != nil {
		return err
	}
	return server.Start(ctx, *port)
}
