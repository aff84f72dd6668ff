// ABOUTME: MCP tool definitions and registration for the topic server
// ABOUTME: Defines JSON schemas for the five read-only topic tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/topicnaming/internal/storage/sqlite"
)

var runIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Run ID to query (default: the newest run)",
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, store *sqlite.Storage, logger *log.Logger) *Handlers {
	handlers := NewHandlers(store, logger)

	// 1. list_runs - List stored topic naming runs
	server.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List stored topic naming runs, newest first, with document, layer and topic counts.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListRuns)

	// 2. list_layer_topics - List the named topics of a layer
	server.AddTool(mcp.Tool{
		Name:        "list_layer_topics",
		Description: "List the named topics of one layer of a run. Layer 0 is the finest; omit layer to list every layer, coarsest first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProperty,
				"layer": map[string]interface{}{
					"type":        "number",
					"description": "Layer index (default: all layers)",
				},
			},
		},
	}, handlers.ListLayerTopics)

	// 3. get_topic - Get one topic with its evidence
	server.AddTool(mcp.Tool{
		Name:        "get_topic",
		Description: "Get a topic with its keywords, sample documents, sub-topics, merged finer clusters and nearest neighbor clusters.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProperty,
				"layer": map[string]interface{}{
					"type":        "number",
					"description": "Layer index",
				},
				"cluster": map[string]interface{}{
					"type":        "number",
					"description": "Cluster index within the layer",
				},
			},
			Required: []string{"layer", "cluster"},
		},
	}, handlers.GetTopic)

	// 4. document_topics - Get the topics of a document on every layer
	server.AddTool(mcp.Tool{
		Name:        "document_topics",
		Description: "Get the topic assigned to a document on every layer. Unclustered documents are reported as Unlabelled.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProperty,
				"document": map[string]interface{}{
					"type":        "number",
					"description": "Document index in the corpus",
				},
			},
			Required: []string{"document"},
		},
	}, handlers.DocumentTopics)

	// 5. search_topics - Search topic names
	server.AddTool(mcp.Tool{
		Name:        "search_topics",
		Description: "Search topic names. Matches by substring, then by embedding similarity when an embedding model is configured.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to search for",
				},
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to one run (default: search every run)",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 10)",
					"default":     10,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchTopics)

	return handlers
}
