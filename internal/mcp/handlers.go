// ABOUTME: MCP tool handler implementations for the topic server
// ABOUTME: Every handler reports failures as tool errors and answers with JSON text
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/storage/sqlite"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	storage *sqlite.Storage
	logger  *log.Logger
}

// NewHandlers creates handlers without registering them
func NewHandlers(store *sqlite.Storage, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{storage: store, logger: logger}
}

// ListRuns handles the list_runs tool
func (h *Handlers) ListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := h.storage.ListRuns()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}
	return jsonResult(map[string]interface{}{"runs": runs})
}

// ListLayerTopics handles the list_layer_topics tool
func (h *Handlers) ListLayerTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := h.storage.ResolveRunID(request.GetString("run_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve run: %v", err)), nil
	}
	layer := request.GetInt("layer", -1)

	topics, err := h.storage.LayerTopics(runID, layer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list topics: %v", err)), nil
	}
	if len(topics) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no topics for run %s layer %d", runID, layer)), nil
	}

	return jsonResult(map[string]interface{}{
		"run_id": runID,
		"topics": topics,
	})
}

// GetTopic handles the get_topic tool
func (h *Handlers) GetTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := request.RequireInt("layer")
	if err != nil {
		return mcp.NewToolResultError("layer argument is required and must be a number"), nil
	}
	cluster, err := request.RequireInt("cluster")
	if err != nil {
		return mcp.NewToolResultError("cluster argument is required and must be a number"), nil
	}
	runID, err := h.storage.ResolveRunID(request.GetString("run_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve run: %v", err)), nil
	}

	topic, err := h.storage.GetTopic(runID, layer, cluster)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get topic: %v", err)), nil
	}
	if topic == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no topic at layer %d cluster %d in run %s", layer, cluster, runID)), nil
	}
	return jsonResult(topic)
}

// DocumentTopics handles the document_topics tool
func (h *Handlers) DocumentTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireInt("document")
	if err != nil {
		return mcp.NewToolResultError("document argument is required and must be a number"), nil
	}
	runID, err := h.storage.ResolveRunID(request.GetString("run_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve run: %v", err)), nil
	}

	topics, err := h.storage.DocumentTopics(runID, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get document topics: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"run_id":   runID,
		"document": doc,
		"topics":   topics,
	})
}

// SearchTopics handles the search_topics tool
func (h *Handlers) SearchTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("max_results must be positive, got %d", maxResults)), nil
	}

	topics, err := h.storage.SearchTopics(ctx, query, request.GetString("run_id", ""), maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("topic search failed: %v", err)), nil
	}
	h.logger.Debug("searched topics", "query", query, "results", len(topics))
	return jsonResult(map[string]interface{}{"topics": topics})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
