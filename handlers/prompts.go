// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Builds prompts from rendered list rows and dashboard statistics
package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
	"github.com/harperreed/crmgrid/viz"
)

type PromptHandlers struct {
	records *RecordHandlers
	now     func() time.Time
}

func NewPromptHandlers(records *RecordHandlers) *PromptHandlers {
	return &PromptHandlers{records: records, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "record-summary":
		return h.recordSummary(ctx, args)
	case "pipeline-review":
		return h.pipelineReview(ctx)
	case "lead-follow-up":
		return h.leadFollowUp(ctx, args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) recordSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	module, id := args["module"], args["id"]
	if module == "" || id == "" {
		return nil, fmt.Errorf("module and id are required")
	}
	l, _, err := h.records.open(ctx, module)
	if err != nil {
		return nil, err
	}
	row, ok := l.Detail(id)
	if !ok {
		return nil, fmt.Errorf("%s %s not found", l.Title(), id)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Please summarize this %s record:\n\n", strings.ToLower(l.Title()))
	for _, c := range row.Cells {
		if c.Text == crm.Placeholder {
			continue
		}
		fmt.Fprintf(&text, "%s: %s\n", c.Label, c.Text)
	}

	var actions []string
	for _, a := range l.Actions(id) {
		if a.Enabled {
			actions = append(actions, a.Label)
		}
	}
	if len(actions) > 0 {
		fmt.Fprintf(&text, "\nAvailable actions: %s\n", strings.Join(actions, ", "))
	}
	text.WriteString("\nPlease provide:")
	text.WriteString("\n1. A short summary of where this record stands")
	text.WriteString("\n2. The most useful next step among the available actions")

	return userPrompt(fmt.Sprintf("Summary for %s %s", strings.ToLower(l.Title()), id), text.String()), nil
}

func (h *PromptHandlers) pipelineReview(ctx context.Context) (*mcp.GetPromptResult, error) {
	stats, err := viz.GenerateDashboardStats(ctx, h.records.client, h.now())
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline stats: %w", err)
	}

	var text strings.Builder
	text.WriteString("Here is the current state of the CRM:\n\n")
	text.WriteString(viz.RenderDashboard(stats))
	text.WriteString("\n\nPlease:")
	text.WriteString("\n1. Identify stages where deals are piling up")
	text.WriteString("\n2. Call out overdue tasks that block deals")
	text.WriteString("\n3. Suggest where to focus this week")

	return userPrompt("Pipeline review", text.String()), nil
}

// leadFollowUp lists open leads, optionally for one owner.
func (h *PromptHandlers) leadFollowUp(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	l, _, err := h.records.open(ctx, crm.ModuleLeads)
	if err != nil {
		return nil, err
	}
	q := url.Values{"sort": {"created_time"}, "dir": {"asc"}}
	if owner := args["owner"]; owner != "" {
		q.Set("owner", owner)
	}
	l.Apply(grid.SeedFromQuery(q))

	var text strings.Builder
	text.WriteString("Leads that may need follow-up:\n\n")
	count := 0
	for _, r := range l.AllRows() {
		status := r.Get("status")
		if status == models.LeadConverted || status == models.LeadUnqualified {
			continue
		}
		fmt.Fprintf(&text, "- %s (%s, status %s)\n", r.Get("lead_name"), r.Get("company_name"), status)
		count++
	}
	if count == 0 {
		text.WriteString("No open leads.\n")
	}

	text.WriteString("\nPlease:")
	text.WriteString("\n1. Prioritize which leads to contact first")
	text.WriteString("\n2. Suggest which leads are ready to convert to deals")

	return userPrompt("Follow-up suggestions for open leads", text.String()), nil
}

// Register adds the prompts to server.
func (h *PromptHandlers) Register(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "record-summary",
		Description: "Summarize one record and suggest a next step",
		Arguments: []*mcp.PromptArgument{
			{Name: "module", Description: "Module of the record", Required: true},
			{Name: "id", Description: "Record ID", Required: true},
		},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review the deal pipeline and open work",
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "lead-follow-up",
		Description: "Suggest follow-ups for open leads",
		Arguments: []*mcp.PromptArgument{
			{Name: "owner", Description: "Only leads owned by this user"},
		},
	}, h.GetPrompt)
}
