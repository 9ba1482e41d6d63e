// ABOUTME: Initial list state read once from URL query parameters
// ABOUTME: Saved views store the same parameters and resolve through viewId
package grid

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/crmgrid/prefs"
)

// QueryDateLayout is the format of the from/to query parameters.
const QueryDateLayout = "2006-01-02"

// Seed is a list state to apply on mount.
type Seed struct {
	Search   string
	Filters  map[string]string
	ViewID   string
	From, To time.Time
	SortKey  string
	SortDir  SortDir
	Page     int
	PageSize int
}

var reservedParams = map[string]bool{
	"q": true, "sort": true, "dir": true, "page": true, "size": true,
	"viewId": true, "from": true, "to": true,
}

// SeedFromQuery reads q, sort, dir, page, size, viewId, from and to. Every
// other parameter (status, owner, source...) is taken as a filter.
// Malformed values are ignored.
func SeedFromQuery(q url.Values) Seed {
	s := Seed{
		Search:  q.Get("q"),
		ViewID:  q.Get("viewId"),
		SortKey: q.Get("sort"),
		SortDir: ParseSortDir(q.Get("dir")),
		Filters: map[string]string{},
	}
	if s.SortKey != "" && s.SortDir == SortNone {
		s.SortDir = SortAsc
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		s.Page = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		s.PageSize = n
	}
	if t, err := time.ParseInLocation(QueryDateLayout, q.Get("from"), time.Local); err == nil {
		s.From = t
	}
	if t, err := time.ParseInLocation(QueryDateLayout, q.Get("to"), time.Local); err == nil {
		// inclusive through the end of that day
		s.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	for key := range q {
		if !reservedParams[key] && q.Get(key) != "" {
			s.Filters[key] = q.Get(key)
		}
	}
	return s
}

// Query renders the seed back into URL parameters.
func (s Seed) Query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", s.Search)
	set("viewId", s.ViewID)
	set("sort", s.SortKey)
	set("dir", s.SortDir.String())
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.PageSize > 0 {
		q.Set("size", strconv.Itoa(s.PageSize))
	}
	if !s.From.IsZero() {
		q.Set("from", s.From.Format(QueryDateLayout))
	}
	if !s.To.IsZero() {
		q.Set("to", s.To.Format(QueryDateLayout))
	}
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, s.Filters[k])
	}
	return q
}

// ViewLoader resolves saved view IDs.
type ViewLoader interface {
	SavedView(id string) (prefs.SavedView, error)
}

// ResolveSeed reads q and, when it names a saved view, layers q on top of
// the view's parameters.
func ResolveSeed(q url.Values, views ViewLoader) (Seed, error) {
	id := q.Get("viewId")
	if id == "" || views == nil {
		return SeedFromQuery(q), nil
	}
	view, err := views.SavedView(id)
	if err != nil {
		return SeedFromQuery(q), fmt.Errorf("failed to load view: %w", err)
	}
	merged := url.Values{}
	for k, v := range view.Query {
		merged.Set(k, v)
	}
	for k, v := range q {
		merged[k] = v
	}
	return SeedFromQuery(merged), nil
}

// Apply sets the controller state from s. The page is applied last since
// every other change resets it.
func (c *Controller[T]) Apply(s Seed) {
	if s.Search != "" {
		c.SetSearch(s.Search)
	}
	for k, v := range s.Filters {
		c.SetFilter(k, v)
	}
	if !s.From.IsZero() || !s.To.IsZero() {
		c.SetDateRange(s.From, s.To)
	}
	if s.SortKey != "" {
		c.SetSort(s.SortKey, s.SortDir)
	}
	if s.PageSize > 0 {
		c.SetPageSize(s.PageSize)
	}
	if s.Page > 0 {
		// not clamped yet: rows may not be loaded
		c.page = s.Page
	}
}

// Snapshot captures the current state as a seed, for saving views.
func (c *Controller[T]) Snapshot() Seed {
	s := Seed{
		Search:   strings.TrimSpace(c.search),
		Filters:  c.Filters(),
		From:     c.from,
		To:       c.to,
		SortKey:  c.sortKey,
		SortDir:  c.sortDir,
		PageSize: c.pageSize,
	}
	return s
}
