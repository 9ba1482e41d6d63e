// ABOUTME: Config CLI command: show, get and set persisted settings
// ABOUTME: set edits the JSON file only, so environment overrides are never saved
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/crmgrid/config"
)

// ConfigCommand runs `crmgrid config [show|path|get <key>|set <key> <value>]`.
func ConfigCommand(ctx context.Context, app *App, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	path := app.ConfigPath
	if path == "" {
		path = config.Path()
	}

	switch sub {
	case "show":
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		for _, key := range config.Keys {
			v, err := app.Config.Get(key)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\n", key, v)
		}
		return w.Flush()

	case "path":
		_, _ = fmt.Fprintln(app.Out, path)
		return nil

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: crmgrid config get <key>")
		}
		v, err := app.Config.Get(args[1])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(app.Out, v)
		return nil

	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: crmgrid config set <key> <value>")
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[1], args[2]); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		_, _ = fmt.Fprintf(app.Out, "✓ %s = %s (saved to %s)\n", args[1], args[2], path)
		return nil
	}
	return fmt.Errorf("unknown config command: %s", sub)
}
