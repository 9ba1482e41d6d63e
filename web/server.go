// ABOUTME: Web UI server with embedded templates
// ABOUTME: Dashboard, URL-seeded list pages, detail partials and bulk delete
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harperreed/crmgrid/applog"
	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/prefs"
	"github.com/harperreed/crmgrid/viz"
)

//go:embed templates/*
var templatesFS embed.FS

// Options configures a Server. Prefs may be nil: columns fall back to
// defaults and saved views are unavailable.
type Options struct {
	Prefs  prefs.Store
	Owner  string
	Logger *log.Logger
}

type Server struct {
	client    *db.Client
	prefs     prefs.Store
	owner     string
	logger    *log.Logger
	templates *template.Template
	generator *viz.GraphGenerator
	now       func() time.Time
}

func NewServer(client *db.Client, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"title": moduleTitle,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	return &Server{
		client:    client,
		prefs:     opts.Prefs,
		owner:     opts.Owner,
		logger:    logger,
		templates: tmpl,
		generator: viz.NewGraphGenerator(client),
		now:       time.Now,
	}, nil
}

// Handler returns the routes of the web UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /graphs/pipeline.svg", s.handlePipelineGraph)
	mux.HandleFunc("GET /{module}", s.handleList)
	mux.HandleFunc("GET /{module}/{id}", s.handleDetail)
	mux.HandleFunc("POST /{module}/delete", s.handleDelete)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// registry builds the controllers for one request. Notices land in rec.
func (s *Server) registry(rec *grid.Recorder) *crm.Registry {
	opts := crm.Options{Notifier: rec, Owner: s.owner, Logger: s.logger}
	if s.prefs != nil {
		opts.Prefs = s.prefs
	}
	return crm.NewRegistry(s.client, opts)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := viz.GenerateDashboardStats(r.Context(), s.client, s.now())
	if err != nil {
		s.fail(w, "failed to build dashboard", err, http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Stats":           stats,
		"Summary":         viz.RenderDashboard(stats),
		"Modules":         crm.Modules,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, http.StatusOK, "layout.html", data)
}

func (s *Server) handlePipelineGraph(w http.ResponseWriter, r *http.Request) {
	svg, err := s.generator.PipelineGraph(r.Context(), viz.FormatSVG)
	if err != nil {
		s.fail(w, "failed to render pipeline graph", err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	rec := &grid.Recorder{}
	l, ok := s.loadList(w, r, rec)
	if !ok {
		return
	}

	var views grid.ViewLoader
	if s.prefs != nil {
		views = s.prefs
	}
	seed, err := grid.ResolveSeed(r.URL.Query(), views)
	if err != nil {
		rec.Notify(grid.Notice{Level: grid.LevelWarn, Message: err.Error()})
	}
	l.Apply(seed)

	s.renderList(w, http.StatusOK, l, seed, rec)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	rec := &grid.Recorder{}
	l, ok := s.loadList(w, r, rec)
	if !ok {
		return
	}

	row, found := l.Detail(r.PathValue("id"))
	if !found {
		http.Error(w, l.Title()+" not found", http.StatusNotFound)
		return
	}

	data := map[string]any{
		"Module":  l.Module(),
		"Title":   l.Title(),
		"Row":     row,
		"Actions": l.Actions(row.ID),
	}
	s.renderTemplate(w, http.StatusOK, "detail.html", data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ids := r.PostForm["id"]
	if len(ids) == 0 {
		http.Error(w, "no records selected", http.StatusBadRequest)
		return
	}

	rec := &grid.Recorder{}
	l, ok := s.loadList(w, r, rec)
	if !ok {
		return
	}

	opts := grid.DeleteOptions{
		Bulk:                len(ids) > 1,
		DeleteLinkedRecords: r.PostForm.Get("linked") == "1",
	}
	status := http.StatusOK
	if _, err := l.Delete(r.Context(), ids, opts); err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, grid.ErrRefused) {
			status = http.StatusConflict
		}
		s.logger.Warn("delete failed", "module", l.Module(), "ids", len(ids), "err", err)
	}

	seed := grid.SeedFromQuery(r.URL.Query())
	l.Apply(seed)
	s.renderList(w, status, l, seed, rec)
}

// loadList resolves the module path value and loads its rows.
func (s *Server) loadList(w http.ResponseWriter, r *http.Request, rec *grid.Recorder) (crm.List, bool) {
	l, err := s.registry(rec).List(r.PathValue("module"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	if err := l.Reload(r.Context()); err != nil {
		s.fail(w, "failed to load "+l.Module(), err, http.StatusInternalServerError)
		return nil, false
	}
	return l, true
}

type headerCell struct {
	Label string
	Arrow string
	Link  string
}

type pageLink struct {
	Label string
	Link  string
}

func (s *Server) renderList(w http.ResponseWriter, status int, l crm.List, seed grid.Seed, rec *grid.Recorder) {
	sortKey, sortDir := l.Sort()
	state := l.Snapshot()
	state.ViewID = seed.ViewID
	state.Page = l.CurrentPage()

	var header []headerCell
	for _, c := range l.Header() {
		next := state
		next.Page = 1
		next.SortKey, next.SortDir = c.Field, grid.SortAsc
		cell := headerCell{Label: c.Label}
		if c.Field == sortKey {
			switch sortDir {
			case grid.SortAsc:
				cell.Arrow = "▲"
				next.SortDir = grid.SortDesc
			case grid.SortDesc:
				cell.Arrow = "▼"
			}
		}
		cell.Link = listURL(l.Module(), next)
		header = append(header, cell)
	}

	var sizes []pageLink
	for _, n := range grid.PageSizes {
		next := state
		next.Page, next.PageSize = 1, n
		sizes = append(sizes, pageLink{Label: strconv.Itoa(n), Link: listURL(l.Module(), next)})
	}

	data := map[string]any{
		"Title":           moduleTitle(l.Module()),
		"ContentTemplate": "list-content",
		"Modules":         crm.Modules,
		"Module":          l.Module(),
		"Header":          header,
		"Rows":            l.Rows(),
		"Filters":         l.FilterDefs(),
		"Search":          l.Search(),
		"Total":           l.Total(),
		"Page":            l.CurrentPage(),
		"PageCount":       l.PageCount(),
		"PageSize":        l.PageSize(),
		"PageSizes":       sizes,
		"Prev":            s.pageURL(l, state, l.CurrentPage()-1),
		"Next":            s.pageURL(l, state, l.CurrentPage()+1),
		"Sort":            sortKey,
		"Dir":             sortDir.String(),
		"Linked":          l.Module() == crm.ModuleLeads,
		"Notices":         rec.Drain(),
		"Views":           s.views(l.Module()),
	}
	s.renderTemplate(w, status, "layout.html", data)
}

func (s *Server) pageURL(l crm.List, state grid.Seed, page int) string {
	if page < 1 || page > l.PageCount() {
		return ""
	}
	state.Page = page
	return listURL(l.Module(), state)
}

func (s *Server) views(module string) []prefs.SavedView {
	if s.prefs == nil {
		return nil
	}
	views, err := s.prefs.Views(module)
	if err != nil {
		s.logger.Warn("failed to list saved views", "module", module, "err", err)
		return nil
	}
	return views
}

func listURL(module string, seed grid.Seed) string {
	u := url.URL{Path: "/" + module, RawQuery: seed.Query().Encode()}
	return u.String()
}

var titleCaser = cases.Title(language.English)

func moduleTitle(module string) string {
	return titleCaser.String(module)
}

func (s *Server) renderTemplate(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.fail(w, "template error rendering "+name, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error, status int) {
	s.logger.Error(msg, "err", err)
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
}
