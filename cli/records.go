// ABOUTME: Record CLI commands: list, add, update, delete and row actions
// ABOUTME: Each command drives the module's list controller like the other surfaces
package cli

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmgrid/grid"
)

// assignFlag collects repeated key=value flags.
type assignFlag map[string]string

func (f assignFlag) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (f assignFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[key] = value
	return nil
}

func requireModule(args []string, usage string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("usage: %s", usage)
	}
	return args[0], args[1:], nil
}

// ListCommand prints one page of a module.
func ListCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid list <module> [flags]")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	query := fs.String("query", "", "Free-text search")
	filters := assignFlag{}
	fs.Var(filters, "filter", "Filter as key=value (repeatable)")
	from := fs.String("from", "", "Date range start (YYYY-MM-DD)")
	to := fs.String("to", "", "Date range end (YYYY-MM-DD)")
	sortKey := fs.String("sort", "", "Column to sort by")
	desc := fs.Bool("desc", false, "Sort descending")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size (10, 25, 50, 100)")
	view := fs.String("view", "", "Saved view ID")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	setIf := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setIf("q", *query)
	setIf("from", *from)
	setIf("to", *to)
	setIf("sort", *sortKey)
	setIf("viewId", *view)
	if *desc {
		q.Set("dir", "desc")
	}
	if *page > 0 {
		q.Set("page", strconv.Itoa(*page))
	}
	if *size > 0 {
		q.Set("size", strconv.Itoa(*size))
	}

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}
	var views grid.ViewLoader
	if app.Prefs != nil {
		views = app.Prefs
	}
	seed, err := grid.ResolveSeed(q, views)
	if err != nil {
		rec.Notify(grid.Notice{Level: grid.LevelWarn, Message: err.Error()})
	}
	l.Apply(seed)

	rows := l.Rows()
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(app.Out, "No %s found\n", l.Module())
		app.printNotices(rec)
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	header := []string{"ID"}
	activeKey, dir := l.Sort()
	for _, c := range l.Header() {
		label := strings.ToUpper(c.Label)
		if c.Field == activeKey {
			switch dir {
			case grid.SortAsc:
				label += " ▲"
			case grid.SortDesc:
				label += " ▼"
			}
		}
		header = append(header, label)
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		line := []string{r.ID}
		for _, c := range r.Cells {
			line = append(line, c.Text)
		}
		_, _ = fmt.Fprintln(w, strings.Join(line, "\t"))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(app.Out, "\nPage %d/%d • %d total • %d per page\n",
		l.CurrentPage(), l.PageCount(), l.Total(), l.PageSize())
	app.printNotices(rec)
	return nil
}

// AddCommand creates a record from key=value arguments.
func AddCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid add <module> key=value...")
	if err != nil {
		return err
	}
	values, err := parseAssignments(rest)
	if err != nil {
		return err
	}

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}
	err = l.Create(ctx, values)
	app.printNotices(rec)
	return err
}

// UpdateCommand changes the given fields of one record.
func UpdateCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid update <module> <id> key=value...")
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return fmt.Errorf("usage: crmgrid update <module> <id> key=value...")
	}
	id := rest[0]
	values, err := parseAssignments(rest[1:])
	if err != nil {
		return err
	}

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}
	if _, ok := l.Record(id); !ok {
		return fmt.Errorf("%s %s not found", strings.ToLower(l.Title()), id)
	}
	err = l.Update(ctx, id, values)
	app.printNotices(rec)
	return err
}

// DeleteCommand deletes records after a confirmation, or straight away with --yes.
func DeleteCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid delete <module> [--yes] [--linked] <id>...")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	yes := fs.Bool("yes", false, "Skip the confirmation")
	linked := fs.Bool("linked", false, "For leads, also delete linked notifications and tasks")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	ids := fs.Args()
	if len(ids) == 0 {
		return fmt.Errorf("at least one ID is required")
	}

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}

	if !*yes {
		question := fmt.Sprintf("Delete %d %s?", len(ids), l.Module())
		if len(ids) == 1 {
			question = fmt.Sprintf("Delete %s %s?", strings.ToLower(l.Title()), ids[0])
		}
		if !app.confirm(question) {
			_, _ = fmt.Fprintln(app.Out, "Cancelled (use --yes to skip confirmation)")
			return nil
		}
	}

	_, err = l.Delete(ctx, ids, grid.DeleteOptions{Bulk: len(ids) > 1, DeleteLinkedRecords: *linked})
	app.printNotices(rec)
	return err
}

// ActionCommand runs a row action, e.g. converting a lead to a deal.
// Without an action it lists the actions available on the record.
func ActionCommand(ctx context.Context, app *App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: crmgrid action <module> <id> [action] [key=value...]")
	}
	module, id := args[0], args[1]

	rec := &grid.Recorder{}
	l, reg, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}

	if len(args) == 2 {
		actions := l.Actions(id)
		if actions == nil {
			return fmt.Errorf("%s %s not found", strings.ToLower(l.Title()), id)
		}
		for _, a := range actions {
			state := ""
			if !a.Enabled {
				state = " (unavailable)"
			}
			_, _ = fmt.Fprintf(app.Out, "%s %-18s %s%s\n", a.Icon, a.Key, a.Label, state)
		}
		return nil
	}

	overrides, err := parseAssignments(args[3:])
	if err != nil {
		return err
	}
	handoff, err := l.Handoff(args[2], id)
	if err != nil {
		return err
	}
	values := map[string]string{}
	for k, v := range handoff.Initial {
		values[k] = v
	}
	for k, v := range overrides {
		values[k] = v
	}
	err = reg.Submit(ctx, handoff, values)
	app.printNotices(rec)
	return err
}
