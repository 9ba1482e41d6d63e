// ABOUTME: Google sync CLI commands
// ABOUTME: Handles OAuth setup, calendar and contacts imports, and sync status
package cli

import (
	"context"
	"flag"
	"fmt"
	"os/exec"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/sync"
)

// SyncCommand runs `crmgrid sync <init|calendar|contacts|status>`.
func SyncCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return SyncStatusCommand(ctx, app)
	}
	switch args[0] {
	case "init":
		return SyncInitCommand(ctx, app)
	case "calendar":
		fs := flag.NewFlagSet("sync calendar", flag.ContinueOnError)
		fs.SetOutput(app.Out)
		initial := fs.Bool("initial", false, "Full import of the last six months")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return app.runSync(ctx, "calendar", *initial)
	case "contacts":
		return app.runSync(ctx, "contacts", false)
	case "status":
		return SyncStatusCommand(ctx, app)
	}
	return fmt.Errorf("unknown sync command: %s", args[0])
}

// SyncInitCommand handles OAuth setup
func SyncInitCommand(ctx context.Context, app *App) error {
	config, err := sync.OAuthConfig()
	if err != nil {
		return err
	}

	token, err := sync.Authorize(ctx, config, func(url string) error {
		_, _ = fmt.Fprintln(app.Out, "Opening browser for Google OAuth...")
		_, _ = fmt.Fprintf(app.Out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", url)
		_ = openBrowser(url)
		return nil
	})
	if err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	if err := sync.SaveToken(sync.TokenPath(), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	_, _ = fmt.Fprintf(app.Out, "\n✓ Authenticated successfully\n")
	_, _ = fmt.Fprintf(app.Out, "✓ Tokens saved to %s\n\n", sync.TokenPath())
	_, _ = fmt.Fprintln(app.Out, "Ready to sync! Run 'crmgrid sync contacts' to import contacts.")
	return nil
}

// SyncStatusCommand prints the stored state of each service.
func SyncStatusCommand(ctx context.Context, app *App) error {
	states, err := db.GetAllSyncStates(ctx, app.Client.DB)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		_, _ = fmt.Fprintln(app.Out, "Nothing synced yet. Run 'crmgrid sync init' first.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tSTATUS\tLAST SYNC\tERROR")
	for _, s := range states {
		last, errMsg := "never", ""
		if s.LastSyncTime != nil {
			last = s.LastSyncTime.Local().Format(time.DateTime)
		}
		if s.ErrorMessage != nil {
			errMsg = *s.ErrorMessage
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Service, s.Status, last, errMsg)
	}
	return w.Flush()
}

func (a *App) runSync(ctx context.Context, service string, initial bool) error {
	_, _ = fmt.Fprintf(a.Out, "Syncing Google %s...\n", service)
	summary, err := a.syncService(ctx, service, initial)
	if err != nil {
		return fmt.Errorf("%s sync failed: %w", service, err)
	}
	_, _ = fmt.Fprintf(a.Out, "✓ %s\n", summary)
	return nil
}

func (a *App) syncService(ctx context.Context, service string, initial bool) (string, error) {
	token, err := sync.LoadToken(sync.TokenPath())
	if err != nil {
		return "", fmt.Errorf("no authentication token found. Run 'crmgrid sync init' first: %w", err)
	}

	importer := sync.NewImporter(a.Client, a.Logger, a.Config.Owner)
	var stats sync.Stats
	switch service {
	case "calendar":
		svc, err := sync.NewCalendarClient(ctx, token)
		if err != nil {
			return "", err
		}
		stats, err = importer.ImportCalendar(ctx, sync.CalendarEvents{Service: svc}, initial)
		if err != nil {
			return "", err
		}
	case "contacts":
		svc, err := sync.NewPeopleClient(ctx, token)
		if err != nil {
			return "", err
		}
		stats, err = importer.ImportContacts(ctx, sync.PeopleConnections{Service: svc})
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown sync service: %s", service)
	}
	return stats.String(), nil
}

// Syncer adapts the importers for the TUI sync view.
func (a *App) Syncer() func(ctx context.Context, service string) (string, error) {
	return func(ctx context.Context, service string) (string, error) {
		return a.syncService(ctx, service, false)
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
