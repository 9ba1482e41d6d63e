// ABOUTME: Generic list-view controller: load, search, filter, sort and paginate
// ABOUTME: One instance per entity, driven from a single goroutine
package grid

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/crmgrid/prefs"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// SelectAllCap bounds how many visible rows select-all picks.
	SelectAllCap = 50

	DefaultPageSize = 25
)

// PageSizes are the page size presets offered by every surface.
var PageSizes = []int{10, 25, 50, 100}

// SortDir is the direction of the active sort.
type SortDir int

const (
	SortNone SortDir = iota
	SortAsc
	SortDesc
)

func (d SortDir) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	}
	return ""
}

// ParseSortDir accepts "asc" and "desc"; anything else is SortNone.
func ParseSortDir(s string) SortDir {
	switch strings.ToLower(s) {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	}
	return SortNone
}

// Preferences is the part of the preferences service a controller needs.
type Preferences interface {
	Columns(module string) ([]prefs.ColumnPref, bool, error)
	SetColumns(module string, cols []prefs.ColumnPref) error
}

// Controller holds the list state of one entity. Derived views (Filtered,
// Page, PageCount) are recomputed from state on every call.
type Controller[T Record] struct {
	cfg    Config[T]
	notify Notifier
	prefs  Preferences
	col    *collate.Collator
	title  cases.Caser

	rows    []T
	loading bool
	loaded  bool

	search   string
	filters  map[string]string
	from, to time.Time
	sortKey  string
	sortDir  SortDir
	page     int
	pageSize int

	selected map[string]struct{}
	capped   bool

	columns []prefs.ColumnPref
}

// New builds a controller. notify and p may be nil.
func New[T Record](cfg Config[T], notify Notifier, p Preferences) *Controller[T] {
	if notify == nil {
		notify = discard{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Singular == "" {
		cfg.Singular = strings.TrimSuffix(cfg.Module, "s")
	}
	locale := cfg.Locale
	if locale == language.Und {
		locale = language.English
	}

	c := &Controller[T]{
		cfg:      cfg,
		notify:   notify,
		prefs:    p,
		col:      collate.New(locale, collate.IgnoreCase),
		title:    cases.Title(locale),
		filters:  map[string]string{},
		page:     1,
		pageSize: cfg.PageSize,
		selected: map[string]struct{}{},
	}
	c.loadColumns()
	return c
}

// Config returns the controller's configuration.
func (c *Controller[T]) Config() Config[T] { return c.cfg }

// Module returns the module name.
func (c *Controller[T]) Module() string { return c.cfg.Module }

// Rows returns every loaded row in fetch order.
func (c *Controller[T]) Rows() []T { return c.rows }

// Loading reports whether a fetch is in flight.
func (c *Controller[T]) Loading() bool { return c.loading }

// Loaded reports whether at least one fetch has succeeded.
func (c *Controller[T]) Loaded() bool { return c.loaded }

// Find returns the loaded row with id.
func (c *Controller[T]) Find(id string) (T, bool) {
	for _, r := range c.rows {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Fetch performs the backend select without touching controller state, so
// it may run off the UI goroutine. Pair with BeginLoad and ApplyLoad.
func (c *Controller[T]) Fetch(ctx context.Context) ([]T, error) {
	return c.cfg.Source.Select(ctx)
}

// BeginLoad marks a fetch as in flight.
func (c *Controller[T]) BeginLoad() { c.loading = true }

// ApplyLoad stores a fetch result. On error the previous rows stay.
func (c *Controller[T]) ApplyLoad(rows []T, err error) {
	c.loading = false
	if err != nil {
		c.notify.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Failed to load %s: %v", c.cfg.Module, err)})
		return
	}
	c.rows = rows
	c.loaded = true
	c.pruneSelection()
}

// Reload fetches every row from the backend.
func (c *Controller[T]) Reload(ctx context.Context) error {
	c.BeginLoad()
	rows, err := c.Fetch(ctx)
	c.ApplyLoad(rows, err)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", c.cfg.Module, err)
	}
	return nil
}

// Search returns the current search term.
func (c *Controller[T]) Search() string { return c.search }

// SetSearch changes the search term and returns to page 1.
func (c *Controller[T]) SetSearch(term string) {
	c.search = term
	c.page = 1
}

// Filter returns the active value of a filter, "" meaning all.
func (c *Controller[T]) Filter(key string) string { return c.filters[key] }

// Filters returns a copy of the active filters.
func (c *Controller[T]) Filters() map[string]string {
	out := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		out[k] = v
	}
	return out
}

// SetFilter sets one filter; "" clears it. Unknown keys are ignored.
func (c *Controller[T]) SetFilter(key, value string) {
	if _, ok := c.cfg.Filter(key); !ok {
		return
	}
	if value == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.page = 1
}

// CycleFilter advances a filter through "" and its options.
func (c *Controller[T]) CycleFilter(key string) string {
	opts := c.FilterOptions(key)
	cur := c.filters[key]
	next := ""
	if cur == "" && len(opts) > 0 {
		next = opts[0]
	}
	for i, o := range opts {
		if o == cur && i+1 < len(opts) {
			next = opts[i+1]
		}
	}
	c.SetFilter(key, next)
	return next
}

// ClearFilters drops every filter, the date range and the search term.
func (c *Controller[T]) ClearFilters() {
	c.filters = map[string]string{}
	c.search = ""
	c.from, c.to = time.Time{}, time.Time{}
	c.page = 1
}

// DateRange returns the inclusive date bounds; zero means unbounded.
func (c *Controller[T]) DateRange() (time.Time, time.Time) { return c.from, c.to }

// SetDateRange bounds the configured date field.
func (c *Controller[T]) SetDateRange(from, to time.Time) {
	c.from, c.to = from, to
	c.page = 1
}

// FilterOptions lists the choices of a filter. Filters without static
// options offer the distinct values present in the loaded rows.
func (c *Controller[T]) FilterOptions(key string) []string {
	f, ok := c.cfg.Filter(key)
	if !ok {
		return nil
	}
	if f.Options != nil {
		return f.Options
	}
	col, ok := c.cfg.Column(key)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range c.rows {
		v := FormatValue(col.Value(r))
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	c.col.SortStrings(out)
	return out
}

// Sort returns the active sort column and direction.
func (c *Controller[T]) Sort() (string, SortDir) { return c.sortKey, c.sortDir }

// ToggleSort sorts by key ascending, or flips the direction when key is
// already the sort column.
func (c *Controller[T]) ToggleSort(key string) {
	if _, ok := c.cfg.Column(key); !ok {
		return
	}
	if key == c.sortKey && c.sortDir == SortAsc {
		c.sortDir = SortDesc
	} else {
		c.sortKey, c.sortDir = key, SortAsc
	}
	c.page = 1
}

// SetSort sets the sort explicitly. SortNone clears it.
func (c *Controller[T]) SetSort(key string, dir SortDir) {
	if _, ok := c.cfg.Column(key); !ok || dir == SortNone {
		c.sortKey, c.sortDir = "", SortNone
	} else {
		c.sortKey, c.sortDir = key, dir
	}
	c.page = 1
}

// Filtered returns the rows matching search, filters and date range, in
// sort order. Ties keep fetch order.
func (c *Controller[T]) Filtered() []T {
	out := make([]T, 0, len(c.rows))
	term := strings.ToLower(strings.TrimSpace(c.search))
	for _, r := range c.rows {
		if c.matches(r, term) {
			out = append(out, r)
		}
	}

	col, ok := c.cfg.Column(c.sortKey)
	if !ok || c.sortDir == SortNone {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		cmp := compareValues(col.Kind, col.Value(out[i]), col.Value(out[j]), c.col)
		if c.sortDir == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

func (c *Controller[T]) matches(r T, term string) bool {
	if term != "" && !c.matchesSearch(r, term) {
		return false
	}
	for key, value := range c.filters {
		f, ok := c.cfg.Filter(key)
		if !ok {
			continue
		}
		if f.Match != nil {
			if !f.Match(r, value) {
				return false
			}
			continue
		}
		col, ok := c.cfg.Column(key)
		if ok && !strings.EqualFold(FormatValue(col.Value(r)), value) {
			return false
		}
	}
	if !c.from.IsZero() || !c.to.IsZero() {
		col, ok := c.cfg.Column(c.cfg.DateField)
		if !ok {
			return true
		}
		t, ok := timeOf(col.Value(r))
		if !ok {
			return false
		}
		if !c.from.IsZero() && t.Before(c.from) {
			return false
		}
		if !c.to.IsZero() && t.After(c.to) {
			return false
		}
	}
	return true
}

func (c *Controller[T]) matchesSearch(r T, term string) bool {
	for _, key := range c.cfg.SearchFields {
		col, ok := c.cfg.Column(key)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(FormatValue(col.Value(r))), term) {
			return true
		}
	}
	return false
}

// Total is the number of rows after filtering.
func (c *Controller[T]) Total() int { return len(c.Filtered()) }

// PageSize returns the current page size.
func (c *Controller[T]) PageSize() int { return c.pageSize }

// SetPageSize changes the page size and returns to page 1.
func (c *Controller[T]) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	c.pageSize = n
	c.page = 1
}

// StepPageSize moves to the next (delta > 0) or previous page size preset.
func (c *Controller[T]) StepPageSize(delta int) {
	idx := 0
	for i, s := range PageSizes {
		if s <= c.pageSize {
			idx = i
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(PageSizes) {
		idx = len(PageSizes) - 1
	}
	c.SetPageSize(PageSizes[idx])
}

// PageCount is at least 1.
func (c *Controller[T]) PageCount() int {
	return pageCount(c.Total(), c.pageSize)
}

func pageCount(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

// CurrentPage returns the 1-based page, clamped to the page count.
func (c *Controller[T]) CurrentPage() int {
	return clamp(c.page, 1, c.PageCount())
}

// SetPage moves to page n, clamped to [1, PageCount()].
func (c *Controller[T]) SetPage(n int) {
	c.page = clamp(n, 1, c.PageCount())
}

// NextPage and PrevPage step one page within bounds.
func (c *Controller[T]) NextPage() { c.SetPage(c.CurrentPage() + 1) }
func (c *Controller[T]) PrevPage() { c.SetPage(c.CurrentPage() - 1) }

// Page returns the visible slice of the filtered rows.
func (c *Controller[T]) Page() []T {
	rows := c.Filtered()
	p := clamp(c.page, 1, pageCount(len(rows), c.pageSize))
	start := (p - 1) * c.pageSize
	if start >= len(rows) {
		return nil
	}
	end := start + c.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Title returns the entity's singular name in title case, e.g. "Lead".
func (c *Controller[T]) Title() string { return c.title.String(c.cfg.Singular) }
