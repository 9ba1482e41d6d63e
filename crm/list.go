// ABOUTME: Type-erased list view over a grid controller
// ABOUTME: Lets surfaces drive any entity by module name with string form values
package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
	"github.com/harperreed/crmgrid/prefs"
)

// Placeholder is shown for empty cells.
const Placeholder = "—"

// Cell is one rendered value of a row.
type Cell struct {
	Key   string
	Label string
	Text  string
	Badge string // badge colour name, empty when the column is not a badge
}

// Row is a rendered record.
type Row struct {
	ID    string
	Cells []Cell
}

// Get returns the text of the cell with key.
func (r Row) Get(key string) string {
	for _, c := range r.Cells {
		if c.Key == key {
			return c.Text
		}
	}
	return ""
}

// FilterDef describes one filter and its current state.
type FilterDef struct {
	Key     string
	Label   string
	Value   string
	Options []string
}

// Batch is the opaque result of Fetch, applied with ApplyLoad.
type Batch struct {
	rows any
}

// List is a list view addressed by module name. Implementations are not
// safe for concurrent use; Exec* and Fetch only touch the backend.
type List interface {
	Module() string
	Title() string

	Reload(ctx context.Context) error
	Fetch(ctx context.Context) (Batch, error)
	BeginLoad()
	ApplyLoad(b Batch, err error)
	Loading() bool
	Loaded() bool

	Apply(s grid.Seed)
	Snapshot() grid.Seed
	Search() string
	SetSearch(term string)
	FilterDefs() []FilterDef
	SetFilter(key, value string)
	CycleFilter(key string) string
	ClearFilters()
	DateRange() (time.Time, time.Time)
	SetDateRange(from, to time.Time)
	Sort() (string, grid.SortDir)
	ToggleSort(key string)
	SetSort(key string, dir grid.SortDir)

	Total() int
	PageSize() int
	SetPageSize(n int)
	StepPageSize(delta int)
	PageCount() int
	CurrentPage() int
	SetPage(n int)
	NextPage()
	PrevPage()

	Header() []prefs.ColumnPref
	Columns() []prefs.ColumnPref
	SetColumns(cols []prefs.ColumnPref) error
	ToggleColumn(field string) error
	MoveColumn(field string, delta int) error
	ResetColumns() error

	Rows() []Row
	AllRows() []Row
	Detail(id string) (Row, bool)
	Record(id string) (any, bool)
	Records() []any

	ToggleSelected(id string)
	IsSelected(id string) bool
	SelectAllVisible()
	SelectionCapped() bool
	ClearSelection()
	IsAllSelected() bool
	Selected() []string
	SelectedCount() int

	Form() Form
	FormValues(id string) (map[string]string, error)
	Create(ctx context.Context, values map[string]string) error
	Update(ctx context.Context, id string, values map[string]string) error
	Delete(ctx context.Context, ids []string, opts grid.DeleteOptions) (grid.DeleteResult, error)
	ExecCreate(ctx context.Context, values map[string]string) error
	ExecUpdate(ctx context.Context, id string, values map[string]string) error
	ExecDelete(ctx context.Context, ids []string, opts grid.DeleteOptions) (grid.DeleteResult, error)
	FinishMutation(verb string, err error)
	FinishDelete(res grid.DeleteResult, err error, bulk bool)

	Actions(id string) []grid.RowAction
	Handoff(action, id string) (grid.Handoff, error)
}

// list adapts a typed controller to List.
type list[T grid.Record] struct {
	*grid.Controller[T]
	form Form
}

func newList[T grid.Record](ctl *grid.Controller[T], form Form) *list[T] {
	return &list[T]{Controller: ctl, form: form}
}

func (l *list[T]) Fetch(ctx context.Context) (Batch, error) {
	rows, err := l.Controller.Fetch(ctx)
	return Batch{rows: rows}, err
}

func (l *list[T]) ApplyLoad(b Batch, err error) {
	rows, _ := b.rows.([]T)
	l.Controller.ApplyLoad(rows, err)
}

func (l *list[T]) FilterDefs() []FilterDef {
	cfg := l.Config()
	out := make([]FilterDef, 0, len(cfg.Filters))
	for _, f := range cfg.Filters {
		out = append(out, FilterDef{
			Key:     f.Key,
			Label:   f.Label,
			Value:   l.Filter(f.Key),
			Options: l.FilterOptions(f.Key),
		})
	}
	return out
}

// Header returns the visible columns in display order.
func (l *list[T]) Header() []prefs.ColumnPref {
	var out []prefs.ColumnPref
	for _, p := range l.Columns() {
		if p.Visible {
			out = append(out, p)
		}
	}
	return out
}

func (l *list[T]) render(rec T, cols []grid.Column[T]) Row {
	row := Row{ID: rec.RecordID(), Cells: make([]Cell, 0, len(cols))}
	for _, col := range cols {
		text := col.Display(rec)
		cell := Cell{Key: col.Key, Label: col.Label, Text: text}
		if text == "" {
			cell.Text = Placeholder
		}
		if col.Badge && text != "" {
			cell.Badge = models.BadgeColor(text)
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

func (l *list[T]) renderAll(recs []T) []Row {
	cols := l.VisibleColumns()
	out := make([]Row, 0, len(recs))
	for _, r := range recs {
		out = append(out, l.render(r, cols))
	}
	return out
}

// Rows renders the current page.
func (l *list[T]) Rows() []Row { return l.renderAll(l.Page()) }

// AllRows renders every filtered row across pages.
func (l *list[T]) AllRows() []Row { return l.renderAll(l.Filtered()) }

// Detail renders every column of one record, hidden ones included.
func (l *list[T]) Detail(id string) (Row, bool) {
	rec, ok := l.Find(id)
	if !ok {
		return Row{}, false
	}
	return l.render(rec, l.Config().Columns), true
}

func (l *list[T]) Record(id string) (any, bool) {
	rec, ok := l.Find(id)
	if !ok {
		return nil, false
	}
	return rec, true
}

func (l *list[T]) Records() []any {
	recs := l.Filtered()
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out
}

func (l *list[T]) Form() Form { return l.form }

func (l *list[T]) FormValues(id string) (map[string]string, error) {
	rec, ok := l.Find(id)
	if !ok {
		return nil, fmt.Errorf("%s %s not found", l.Config().Singular, id)
	}
	return l.form.Values(rec)
}

// ExecCreate validates values and inserts the record.
func (l *list[T]) ExecCreate(ctx context.Context, values map[string]string) error {
	patch, err := l.form.Patch(values, false)
	if err != nil {
		return err
	}
	rec, err := decode[T](patch)
	if err != nil {
		return err
	}
	return l.Controller.ExecCreate(ctx, &rec)
}

// ExecUpdate validates the present values and applies them as a partial write.
func (l *list[T]) ExecUpdate(ctx context.Context, id string, values map[string]string) error {
	patch, err := l.form.Patch(values, true)
	if err != nil {
		return err
	}
	return l.Controller.ExecUpdate(ctx, id, patch)
}

func (l *list[T]) Create(ctx context.Context, values map[string]string) error {
	err := l.ExecCreate(ctx, values)
	l.FinishMutation("create", err)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", l.Config().Singular, err)
	}
	return l.Reload(ctx)
}

func (l *list[T]) Update(ctx context.Context, id string, values map[string]string) error {
	err := l.ExecUpdate(ctx, id, values)
	l.FinishMutation("update", err)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", l.Config().Singular, err)
	}
	return l.Reload(ctx)
}

// Delete removes ids: one ID goes through the single-delete path, several
// through the selection and the batched bulk path.
func (l *list[T]) Delete(ctx context.Context, ids []string, opts grid.DeleteOptions) (grid.DeleteResult, error) {
	if len(ids) == 1 {
		return l.Controller.Delete(ctx, ids[0], opts)
	}
	return l.DeleteMany(ctx, ids, opts)
}

func (l *list[T]) Actions(id string) []grid.RowAction {
	rec, ok := l.Find(id)
	if !ok {
		return nil
	}
	return l.Controller.Actions(rec)
}

func (l *list[T]) Handoff(action, id string) (grid.Handoff, error) {
	rec, ok := l.Find(id)
	if !ok {
		return grid.Handoff{}, fmt.Errorf("%s %s not found", l.Config().Singular, id)
	}
	return l.Controller.Handoff(action, rec)
}
