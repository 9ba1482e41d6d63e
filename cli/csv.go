// ABOUTME: CSV export and import CLI commands
// ABOUTME: Export writes form values so a file can be edited and imported back
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/csvio"
	"github.com/harperreed/crmgrid/grid"
)

// ExportCommand writes every filtered record of a module as CSV.
func ExportCommand(ctx context.Context, app *App, args []string) error {
	module, rest, err := requireModule(args, "crmgrid export <module> [--output file] [flags]")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(app.Out)
	output := fs.String("output", "", "Output file (default: stdout)")
	query := fs.String("query", "", "Free-text search")
	filters := assignFlag{}
	fs.Var(filters, "filter", "Filter as key=value (repeatable)")
	sortKey := fs.String("sort", "", "Column to sort by")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, module, rec)
	if err != nil {
		return err
	}
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	if *query != "" {
		q.Set("q", *query)
	}
	if *sortKey != "" {
		q.Set("sort", *sortKey)
	}
	l.Apply(grid.SeedFromQuery(q))

	header, rows, err := exportRows(l)
	if err != nil {
		return err
	}

	var w io.Writer = app.Out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *output, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := csvio.Write(w, header, rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if *output != "" {
		_, _ = fmt.Fprintf(app.Out, "✓ Exported %d %s to %s\n", len(rows), l.Module(), *output)
	}
	return nil
}

func exportRows(l crm.List) ([]string, []map[string]string, error) {
	header := []string{"id"}
	for _, f := range l.Form().Fields {
		header = append(header, f.Key)
	}

	var rows []map[string]string
	for _, r := range l.AllRows() {
		values, err := l.FormValues(r.ID)
		if err != nil {
			return nil, nil, err
		}
		values["id"] = r.ID
		rows = append(rows, values)
	}
	return header, rows, nil
}

// ImportResult summarizes one import.
type ImportResult struct {
	Created int
	Failed  int
	Errors  []string
	Ignored []string // columns the form does not know
}

// ImportCommand creates one record per CSV row. Rows that fail validation
// are reported and skipped; the rest are still created.
func ImportCommand(ctx context.Context, app *App, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: crmgrid import <module> <file.csv>")
	}
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[1], err)
	}
	defer func() { _ = f.Close() }()

	rec := &grid.Recorder{}
	l, _, err := app.list(ctx, args[0], rec)
	if err != nil {
		return err
	}
	res, err := importCSV(ctx, l, f)
	if err != nil {
		return err
	}

	if len(res.Ignored) > 0 {
		_, _ = fmt.Fprintf(app.Out, "! Ignored columns: %v\n", res.Ignored)
	}
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(app.Out, "✗ %s\n", e)
	}
	_, _ = fmt.Fprintf(app.Out, "✓ Imported %d %s (%d failed)\n", res.Created, l.Module(), res.Failed)
	return nil
}

func importCSV(ctx context.Context, l crm.List, r io.Reader) (ImportResult, error) {
	rows, err := csvio.Read(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read csv: %w", err)
	}

	var res ImportResult
	ignored := map[string]bool{}
	form := l.Form()
	for i, row := range rows {
		values := map[string]string{}
		for k, v := range row {
			if _, ok := form.Field(k); !ok {
				if k != "id" {
					ignored[k] = true
				}
				continue
			}
			// empty cells fall back to field defaults
			if v != "" {
				values[k] = v
			}
		}
		if err := l.ExecCreate(ctx, values); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, "row "+strconv.Itoa(i+2)+": "+err.Error())
			continue
		}
		res.Created++
	}
	for k := range ignored {
		res.Ignored = append(res.Ignored, k)
	}
	sort.Strings(res.Ignored)

	if res.Created > 0 {
		if err := l.Reload(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}
