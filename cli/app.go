// ABOUTME: Shared dependencies of the CLI commands
// ABOUTME: Builds per-command registries and prints controller notices
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/harperreed/crmgrid/config"
	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/prefs"
)

// App carries what every command needs. Prefs may be nil when the
// preferences store could not be opened.
type App struct {
	Client *db.Client
	Prefs  prefs.Store
	Config config.Config
	Logger *log.Logger
	Out    io.Writer
	In     io.Reader

	// ConfigPath is the file `config set` writes; empty means config.Path().
	ConfigPath string

	// Interactive reports whether In is a terminal. Nil means check os.Stdin.
	Interactive func() bool
}

func (a *App) registry(rec *grid.Recorder) *crm.Registry {
	opts := crm.Options{
		Notifier: rec,
		Owner:    a.Config.Owner,
		PageSize: a.Config.PageSize,
		Logger:   a.Logger,
	}
	if a.Prefs != nil {
		opts.Prefs = a.Prefs
	}
	return crm.NewRegistry(a.Client, opts)
}

// list loads module through a fresh registry.
func (a *App) list(ctx context.Context, module string, rec *grid.Recorder) (crm.List, *crm.Registry, error) {
	reg := a.registry(rec)
	l, err := reg.List(module)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (valid modules: %s)", err, strings.Join(crm.Modules, ", "))
	}
	if err := l.Reload(ctx); err != nil {
		return nil, nil, err
	}
	return l, reg, nil
}

func (a *App) printNotices(rec *grid.Recorder) {
	for _, n := range rec.Drain() {
		prefix := "•"
		switch n.Level {
		case grid.LevelSuccess:
			prefix = "✓"
		case grid.LevelWarn:
			prefix = "!"
		case grid.LevelError:
			prefix = "✗"
		}
		_, _ = fmt.Fprintf(a.Out, "%s %s\n", prefix, n.Message)
	}
}

func (a *App) interactive() bool {
	if a.Interactive != nil {
		return a.Interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question on a terminal. Off a terminal it refuses
// so scripts must pass --yes.
func (a *App) confirm(question string) bool {
	if !a.interactive() {
		return false
	}
	_, _ = fmt.Fprintf(a.Out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(a.In).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// parseAssignments reads key=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		values[key] = value
	}
	return values, nil
}
