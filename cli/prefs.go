// ABOUTME: Column preference and saved view CLI commands
// ABOUTME: Both persist through the Charm-backed preferences store
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/prefs"
)

var errNoPrefs = errors.New("preferences store unavailable; check 'crmgrid charm status'")

// ColumnsCommand shows or edits the column layout of a module:
//
//	crmgrid columns <module> [show|toggle <field>|move <field> <delta>|reset]
func ColumnsCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid columns <module> [show|toggle|move|reset]")
	if err != nil {
		return err
	}
	sub := "show"
	if len(rest) > 0 {
		sub = rest[0]
	}
	if app.Prefs == nil && sub != "show" {
		return errNoPrefs
	}

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}
	switch sub {
	case "show":
	case "toggle":
		if len(rest) != 2 {
			return fmt.Errorf("usage: crmgrid columns <module> toggle <field>")
		}
		err = l.ToggleColumn(rest[1])
	case "move":
		if len(rest) != 3 {
			return fmt.Errorf("usage: crmgrid columns <module> move <field> <delta>")
		}
		delta, perr := strconv.Atoi(rest[2])
		if perr != nil {
			return fmt.Errorf("invalid delta %q", rest[2])
		}
		err = l.MoveColumn(rest[1], delta)
	case "reset":
		err = l.ResetColumns()
	default:
		return fmt.Errorf("unknown columns command: %s", sub)
	}
	if err != nil {
		return err
	}

	for i, c := range l.Columns() {
		mark := "[ ]"
		if c.Visible {
			mark = "[x]"
		}
		_, _ = fmt.Fprintf(app.Out, "%2d %s %-16s %s\n", i+1, mark, c.Field, c.Label)
	}
	return nil
}

// ViewsCommand manages saved views:
//
//	crmgrid views <module> [list|save <name> key=value...|delete <id>]
func ViewsCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid views <module> [list|save|delete]")
	if err != nil {
		return err
	}
	if app.Prefs == nil {
		return errNoPrefs
	}
	// validates the module name
	if _, err := app.registry(&grid.Recorder{}).List(module); err != nil {
		return err
	}

	sub := "list"
	if len(rest) > 0 {
		sub = rest[0]
	}
	switch sub {
	case "list":
		views, err := app.Prefs.Views(module)
		if err != nil {
			return err
		}
		if len(views) == 0 {
			_, _ = fmt.Fprintf(app.Out, "No saved views for %s\n", module)
			return nil
		}
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tQUERY")
		for _, v := range views {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.Name, assignFlag(v.Query).String())
		}
		return w.Flush()

	case "save":
		if len(rest) < 2 {
			return fmt.Errorf("usage: crmgrid views <module> save <name> key=value...")
		}
		query, err := parseAssignments(rest[2:])
		if err != nil {
			return err
		}
		view, err := app.Prefs.SaveView(prefs.SavedView{Module: module, Name: rest[1], Query: query})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(app.Out, "✓ Saved view %q (ID: %s)\n", view.Name, view.ID)
		return nil

	case "delete":
		if len(rest) != 2 {
			return fmt.Errorf("usage: crmgrid views <module> delete <id>")
		}
		if err := app.Prefs.DeleteView(rest[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(app.Out, "✓ View deleted")
		return nil
	}
	return fmt.Errorf("unknown views command: %s", sub)
}
