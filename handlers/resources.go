// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only JSON views of every module, single records and the pipeline
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/viz"
)

const resourceScheme = "crm://"

type ResourceHandlers struct {
	records *RecordHandlers
	client  *db.Client
	now     func() time.Time
}

func NewResourceHandlers(records *RecordHandlers) *ResourceHandlers {
	return &ResourceHandlers{records: records, client: records.client, now: time.Now}
}

// ReadResource serves crm://<module>, crm://<module>/<id> and crm://pipeline.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if parts[0] == "pipeline" {
		return h.readPipeline(ctx, uri)
	}

	l, _, err := h.records.open(ctx, parts[0])
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if len(parts) == 1 || parts[1] == "" {
		rows := l.AllRows()
		out := make([]map[string]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, rowMap(r))
		}
		return jsonResource(uri, out)
	}

	row, ok := l.Detail(parts[1])
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, rowMap(row))
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	stats, err := viz.GenerateDashboardStats(ctx, h.client, h.now())
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline stats: %w", err)
	}
	return jsonResource(uri, stats)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// Register adds the resources to server.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	for _, module := range crm.Modules {
		server.AddResource(&mcp.Resource{
			URI:         resourceScheme + module,
			Name:        module,
			Description: "All " + module + " as rendered in the list view",
			MIMEType:    "application/json",
		}, h.ReadResource)
	}
	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "pipeline",
		Name:        "pipeline",
		Description: "Dashboard statistics including the deal pipeline by stage",
		MIMEType:    "application/json",
	}, h.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: resourceScheme + "{module}/{id}",
		Name:        "record",
		Description: "A single record by module and ID",
		MIMEType:    "application/json",
	}, h.ReadResource)
}
