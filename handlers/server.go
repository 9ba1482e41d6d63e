// ABOUTME: Assembles the MCP server from the record, graph, resource and prompt handlers
// ABOUTME: Tool names are the public contract agents call
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/crmgrid/db"
)

// Version is reported to MCP clients.
const Version = "0.2.0"

// NewServer registers every tool, resource and prompt over client.
func NewServer(client *db.Client, opts Options) *mcp.Server {
	records := NewRecordHandlers(client, opts)
	vizHandlers := NewVizHandlers(client)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crmgrid",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List one module (meetings, contacts, leads, accounts, deals, tasks) with search, filters, date range, sort and paging",
	}, records.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_record",
		Description: "Get every field of one record and the row actions available on it",
	}, records.GetRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_record",
		Description: "Create a record from form values; required fields and enum values are validated",
	}, records.CreateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Update the given fields of a record",
	}, records.UpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_records",
		Description: "Delete one or more records. Accounts still referenced by contacts or leads are refused",
	}, records.DeleteRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_row_action",
		Description: "Run a row action such as convert_deal, create_task or send_email with its pre-filled values",
	}, records.RunAction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph: pipeline, accounts, or contact",
	}, vizHandlers.GenerateGraph)

	NewResourceHandlers(records).Register(server)
	NewPromptHandlers(records).Register(server)

	return server
}
