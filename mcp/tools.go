package mcp

import "encoding/json"

// Tool describes one executable tool: wire name, human description, and the
// JSON Schema its arguments must satisfy.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Resource describes one readable, lazily-produced value.
type Resource struct {
	URI         string `json:"uri"`
	MimeType    string `json:"mime_type"`
	Description string `json:"description,omitempty"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ToolCallResult wraps whatever the bound downstream operation produced.
type ToolCallResult struct {
	Content any `json:"content"`
}

// ResourceContent is the value returned by resources/read: the descriptor
// plus the freshly produced body.
type ResourceContent struct {
	URI         string `json:"uri"`
	MimeType    string `json:"mime_type"`
	Content     any    `json:"content"`
	Description string `json:"description,omitempty"`
}

type PingResult struct {
	OK bool  `json:"ok"`
	TS int64 `json:"ts"`
}
