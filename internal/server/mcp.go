package server

import (
	"github.com/richhaase/interpeer/internal/domain"
)

// ProtocolVersion is the MCP revision offered when the client names none.
const ProtocolVersion = "2025-06-18"

// ToolName is the single tool this server exposes.
const ToolName = "interpeer_review"

// ServerInfo identifies the server during initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the subset of initialize params the server reads.
type InitializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

// InitializeResult answers initialize.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}

// ToolDefinition describes a tool in tools/list.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolsListResult is the result of tools/list.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// ToolCallParams are the parameters for tools/call.
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ResultMeta is side-channel metadata attached to a review result.
type ResultMeta struct {
	Agent string             `json:"agent"`
	Model string             `json:"model"`
	Usage *domain.Usage      `json:"usage,omitempty"`
	Cache domain.CacheStatus `json:"cache"`
}

// ToolCallResult is the result of tools/call.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
	Meta    *ResultMeta    `json:"_meta,omitempty"`
}

const toolDescription = `Ask another AI coding agent for an independent second opinion.
Send code, a design, or a plan as content (optionally with project files via resource_paths)
and get back a review from the selected agent.`

// reviewTool builds the tool definition; agentIDs is the target_agent enum.
func reviewTool(agentIDs []string) ToolDefinition {
	reviewTypes := make([]string, len(domain.ReviewTypes))
	for i, rt := range domain.ReviewTypes {
		reviewTypes[i] = string(rt)
	}
	styles := make([]string, len(domain.Styles))
	for i, s := range domain.Styles {
		styles[i] = string(s)
	}

	return ToolDefinition{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"content"},
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Material to review.",
				},
				"focus": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string", "minLength": 1},
					"description": "Topics the reviewer should concentrate on.",
				},
				"style": map[string]any{
					"type":    "string",
					"enum":    styles,
					"default": string(domain.StyleStructured),
				},
				"time_budget_seconds": map[string]any{
					"type":        "integer",
					"minimum":     domain.MinTimeBudgetSeconds,
					"maximum":     domain.MaxTimeBudgetSeconds,
					"description": "Advisory time budget for the reviewer.",
				},
				"review_type": map[string]any{
					"type":    "string",
					"enum":    reviewTypes,
					"default": string(domain.ReviewGeneral),
				},
				"target_agent": map[string]any{
					"type":        "string",
					"enum":        agentIDs,
					"description": "Agent to ask. Defaults to the configured default agent.",
				},
				"target_model": map[string]any{
					"type":        "string",
					"description": "Model override for the selected agent.",
				},
				"resource_paths": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Project-relative files appended to content before review.",
				},
			},
			"additionalProperties": false,
		},
	}
}
