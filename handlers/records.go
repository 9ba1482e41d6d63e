// ABOUTME: MCP tool handlers for listing and mutating CRM records
// ABOUTME: Every tool drives the same list controllers as the TUI and web UI
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/crmgrid/applog"
	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/prefs"
)

// Options configures RecordHandlers. Prefs may be nil.
type Options struct {
	Prefs  prefs.Store
	Owner  string
	Logger *log.Logger
}

type RecordHandlers struct {
	client *db.Client
	prefs  prefs.Store
	owner  string
	logger *log.Logger
}

func NewRecordHandlers(client *db.Client, opts Options) *RecordHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	return &RecordHandlers{client: client, prefs: opts.Prefs, owner: opts.Owner, logger: logger}
}

// open builds a registry for one call and loads module.
func (h *RecordHandlers) open(ctx context.Context, module string) (crm.List, *grid.Recorder, error) {
	rec := &grid.Recorder{}
	opts := crm.Options{Notifier: rec, Owner: h.owner, Logger: h.logger}
	if h.prefs != nil {
		opts.Prefs = h.prefs
	}
	l, err := crm.NewRegistry(h.client, opts).List(module)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (valid modules: %v)", err, crm.Modules)
	}
	if err := l.Reload(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", module, err)
	}
	return l, rec, nil
}

func messages(rec *grid.Recorder) []string {
	var out []string
	for _, n := range rec.Drain() {
		out = append(out, n.Level.String()+": "+n.Message)
	}
	return out
}

func rowMap(r crm.Row) map[string]string {
	out := map[string]string{"id": r.ID}
	for _, c := range r.Cells {
		out[c.Key] = c.Text
	}
	return out
}

type ListRecordsInput struct {
	Module  string            `json:"module" jsonschema:"One of meetings, contacts, leads, accounts, deals, tasks (required)"`
	Query   string            `json:"query,omitempty" jsonschema:"Free-text search over the searchable fields"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"Exact-match filters such as status or owner"`
	From    string            `json:"from,omitempty" jsonschema:"Start of the date range (YYYY-MM-DD)"`
	To      string            `json:"to,omitempty" jsonschema:"End of the date range (YYYY-MM-DD, inclusive)"`
	Sort    string            `json:"sort,omitempty" jsonschema:"Column key to sort by"`
	Dir     string            `json:"dir,omitempty" jsonschema:"Sort direction: asc or desc"`
	Page    int               `json:"page,omitempty" jsonschema:"1-based page number"`
	Size    int               `json:"size,omitempty" jsonschema:"Page size: 10, 25, 50 or 100"`
	ViewID  string            `json:"view_id,omitempty" jsonschema:"Saved view to start from"`
}

type ListRecordsOutput struct {
	Module    string              `json:"module"`
	Total     int                 `json:"total"`
	Page      int                 `json:"page"`
	PageCount int                 `json:"page_count"`
	PageSize  int                 `json:"page_size"`
	Records   []map[string]string `json:"records"`
	Notices   []string            `json:"notices,omitempty"`
}

// query renders the input as the URL parameters every surface seeds from.
func (in ListRecordsInput) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	for k, v := range in.Filters {
		set(k, v)
	}
	set("q", in.Query)
	set("from", in.From)
	set("to", in.To)
	set("sort", in.Sort)
	set("dir", in.Dir)
	set("viewId", in.ViewID)
	if in.Page > 0 {
		q.Set("page", strconv.Itoa(in.Page))
	}
	if in.Size > 0 {
		q.Set("size", strconv.Itoa(in.Size))
	}
	return q
}

func (h *RecordHandlers) ListRecords(ctx context.Context, req *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	if input.Module == "" {
		return nil, ListRecordsOutput{}, fmt.Errorf("module is required")
	}
	l, rec, err := h.open(ctx, input.Module)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}

	var views grid.ViewLoader
	if h.prefs != nil {
		views = h.prefs
	}
	seed, err := grid.ResolveSeed(input.query(), views)
	if err != nil {
		rec.Notify(grid.Notice{Level: grid.LevelWarn, Message: err.Error()})
	}
	l.Apply(seed)

	out := ListRecordsOutput{
		Module:    l.Module(),
		Total:     l.Total(),
		Page:      l.CurrentPage(),
		PageCount: l.PageCount(),
		PageSize:  l.PageSize(),
		Records:   []map[string]string{},
	}
	for _, r := range l.Rows() {
		out.Records = append(out.Records, rowMap(r))
	}
	out.Notices = messages(rec)
	return nil, out, nil
}

type GetRecordInput struct {
	Module string `json:"module" jsonschema:"Module of the record (required)"`
	ID     string `json:"id" jsonschema:"Record ID (required)"`
}

type ActionOutput struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type GetRecordOutput struct {
	Module  string            `json:"module"`
	Record  map[string]string `json:"record"`
	Actions []ActionOutput    `json:"actions"`
}

func (h *RecordHandlers) GetRecord(ctx context.Context, req *mcp.CallToolRequest, input GetRecordInput) (*mcp.CallToolResult, GetRecordOutput, error) {
	if input.Module == "" || input.ID == "" {
		return nil, GetRecordOutput{}, fmt.Errorf("module and id are required")
	}
	l, _, err := h.open(ctx, input.Module)
	if err != nil {
		return nil, GetRecordOutput{}, err
	}
	row, ok := l.Detail(input.ID)
	if !ok {
		return nil, GetRecordOutput{}, fmt.Errorf("%s %s not found", l.Title(), input.ID)
	}

	out := GetRecordOutput{Module: l.Module(), Record: rowMap(row)}
	for _, a := range l.Actions(input.ID) {
		out.Actions = append(out.Actions, ActionOutput{Key: a.Key, Label: a.Label, Enabled: a.Enabled})
	}
	return nil, out, nil
}

type CreateRecordInput struct {
	Module string            `json:"module" jsonschema:"Module to create the record in (required)"`
	Values map[string]string `json:"values" jsonschema:"Form values keyed by field, e.g. lead_name, status, owner"`
}

type UpdateRecordInput struct {
	Module string            `json:"module" jsonschema:"Module of the record (required)"`
	ID     string            `json:"id" jsonschema:"Record ID (required)"`
	Values map[string]string `json:"values" jsonschema:"Fields to change; omitted fields are left alone"`
}

type MutationOutput struct {
	Module  string   `json:"module"`
	Notices []string `json:"notices,omitempty"`
}

func (h *RecordHandlers) CreateRecord(ctx context.Context, req *mcp.CallToolRequest, input CreateRecordInput) (*mcp.CallToolResult, MutationOutput, error) {
	if input.Module == "" {
		return nil, MutationOutput{}, fmt.Errorf("module is required")
	}
	l, rec, err := h.open(ctx, input.Module)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	if err := l.Create(ctx, input.Values); err != nil {
		return nil, MutationOutput{}, err
	}
	h.logger.Info("record created", "module", l.Module(), "via", "mcp")
	return nil, MutationOutput{Module: l.Module(), Notices: messages(rec)}, nil
}

func (h *RecordHandlers) UpdateRecord(ctx context.Context, req *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, MutationOutput, error) {
	if input.Module == "" || input.ID == "" {
		return nil, MutationOutput{}, fmt.Errorf("module and id are required")
	}
	l, rec, err := h.open(ctx, input.Module)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	if _, ok := l.Record(input.ID); !ok {
		return nil, MutationOutput{}, fmt.Errorf("%s %s not found", l.Title(), input.ID)
	}
	if err := l.Update(ctx, input.ID, input.Values); err != nil {
		return nil, MutationOutput{}, err
	}
	return nil, MutationOutput{Module: l.Module(), Notices: messages(rec)}, nil
}

type DeleteRecordsInput struct {
	Module       string   `json:"module" jsonschema:"Module of the records (required)"`
	IDs          []string `json:"ids" jsonschema:"Record IDs to delete (required)"`
	DeleteLinked bool     `json:"delete_linked,omitempty" jsonschema:"For leads, also delete linked notifications and tasks"`
}

type DeleteRecordsOutput struct {
	Module  string   `json:"module"`
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped,omitempty"`
	Notices []string `json:"notices,omitempty"`
}

// DeleteRecords deletes one or more records. A single still-referenced record,
// such as an account with contacts or leads, is refused with an error; in a
// batch such records and unknown IDs are skipped and listed in Skipped.
func (h *RecordHandlers) DeleteRecords(ctx context.Context, req *mcp.CallToolRequest, input DeleteRecordsInput) (*mcp.CallToolResult, DeleteRecordsOutput, error) {
	if input.Module == "" || len(input.IDs) == 0 {
		return nil, DeleteRecordsOutput{}, fmt.Errorf("module and ids are required")
	}
	l, rec, err := h.open(ctx, input.Module)
	if err != nil {
		return nil, DeleteRecordsOutput{}, err
	}

	opts := grid.DeleteOptions{Bulk: len(input.IDs) > 1, DeleteLinkedRecords: input.DeleteLinked}
	res, err := l.Delete(ctx, input.IDs, opts)
	if err != nil {
		if errors.Is(err, grid.ErrRefused) {
			h.logger.Warn("delete refused", "module", l.Module(), "ids", len(input.IDs))
		}
		return nil, DeleteRecordsOutput{}, err
	}
	return nil, DeleteRecordsOutput{
		Module:  l.Module(),
		Deleted: res.Deleted,
		Skipped: res.Skipped,
		Notices: messages(rec),
	}, nil
}

type RunActionInput struct {
	Module string            `json:"module" jsonschema:"Module of the source record (required)"`
	ID     string            `json:"id" jsonschema:"Source record ID (required)"`
	Action string            `json:"action" jsonschema:"Row action key from get_record, e.g. convert_deal (required)"`
	Values map[string]string `json:"values,omitempty" jsonschema:"Overrides for the pre-filled form values"`
}

type RunActionOutput struct {
	Target  string            `json:"target"`
	Values  map[string]string `json:"values"`
	Notices []string          `json:"notices,omitempty"`
}

// RunAction submits a row action's pre-filled form, e.g. converting a lead
// to a deal or recording an email.
func (h *RecordHandlers) RunAction(ctx context.Context, req *mcp.CallToolRequest, input RunActionInput) (*mcp.CallToolResult, RunActionOutput, error) {
	if input.Module == "" || input.ID == "" || input.Action == "" {
		return nil, RunActionOutput{}, fmt.Errorf("module, id and action are required")
	}
	rec := &grid.Recorder{}
	reg := crm.NewRegistry(h.client, crm.Options{Notifier: rec, Owner: h.owner, Logger: h.logger})
	l, err := reg.List(input.Module)
	if err != nil {
		return nil, RunActionOutput{}, err
	}
	if err := l.Reload(ctx); err != nil {
		return nil, RunActionOutput{}, fmt.Errorf("failed to load %s: %w", input.Module, err)
	}

	handoff, err := l.Handoff(input.Action, input.ID)
	if err != nil {
		return nil, RunActionOutput{}, err
	}
	values := map[string]string{}
	for k, v := range handoff.Initial {
		values[k] = v
	}
	for k, v := range input.Values {
		values[k] = v
	}
	if err := reg.Submit(ctx, handoff, values); err != nil {
		return nil, RunActionOutput{}, err
	}
	return nil, RunActionOutput{Target: handoff.Target, Values: values, Notices: messages(rec)}, nil
}
