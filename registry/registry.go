package registry

import (
	"context"
	"encoding/json"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/mcp"
	"github.com/earth2-mcp/gateway/validate"
)

// Forecaster is the downstream surface tools and resources are bound to.
// *bridge.Client implements it; tests substitute counters and stubs.
type Forecaster interface {
	Health(ctx context.Context) (*bridge.HealthResult, error)
	SubmitForecast(ctx context.Context, req bridge.ForecastRequest) (*bridge.SubmitResult, error)
	FetchVisualization(ctx context.Context, requestID string) (*bridge.VisualResult, error)
	AnalyzePatterns(ctx context.Context, q bridge.AnalyzeQuery) (*bridge.AnalyzeResult, error)
	StreamChunk(ctx context.Context, requestID, cursor string) (*bridge.StreamChunkResult, error)
}

// ToolHandler executes one validated tool invocation.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) (any, error)

type ToolEntry struct {
	Tool    mcp.Tool
	Schema  *validate.Schema
	Handler ToolHandler
}

// Producer yields a resource's current value. Producers run on every read;
// results are never cached.
type Producer func(ctx context.Context) (any, error)

type ResourceEntry struct {
	Resource mcp.Resource
	Produce  Producer
}

// Registry is the fixed set of tools and resources the gateway exposes.
// It is built once at startup, never mutated afterwards, and therefore safe
// for concurrent readers. Listing order is registration order, keeping
// repeated snapshots byte-identical.
type Registry struct {
	tools         map[string]*ToolEntry
	toolOrder     []string
	resources     map[string]*ResourceEntry
	resourceOrder []string
}

// New builds the registry bound to the given downstream surface. Schema
// compilation failures surface here, at startup.
func New(fc Forecaster) (*Registry, error) {
	r := &Registry{
		tools:     make(map[string]*ToolEntry),
		resources: make(map[string]*ResourceEntry),
	}

	builders := []func(Forecaster) (*ToolEntry, error){
		newForecastTool,
		newVisualizationTool,
		newPatternsTool,
		newStreamTool,
	}
	for _, build := range builders {
		entry, err := build(fc)
		if err != nil {
			return nil, err
		}
		r.tools[entry.Tool.Name] = entry
		r.toolOrder = append(r.toolOrder, entry.Tool.Name)
	}

	for _, entry := range []*ResourceEntry{newHealthResource(fc), newCapabilitiesResource(r.toolOrder)} {
		r.resources[entry.Resource.URI] = entry
		r.resourceOrder = append(r.resourceOrder, entry.Resource.URI)
	}

	return r, nil
}

// Tool looks up a tool entry by wire name.
func (r *Registry) Tool(name string) (*ToolEntry, bool) {
	entry, ok := r.tools[name]
	return entry, ok
}

// Tools returns descriptors in registration order.
func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name].Tool)
	}
	return out
}

// Resource looks up a resource entry by URI.
func (r *Registry) Resource(uri string) (*ResourceEntry, bool) {
	entry, ok := r.resources[uri]
	return entry, ok
}

// Resources returns descriptors in registration order, without running any
// producer.
func (r *Registry) Resources() []mcp.Resource {
	out := make([]mcp.Resource, 0, len(r.resourceOrder))
	for _, uri := range r.resourceOrder {
		out = append(out, r.resources[uri].Resource)
	}
	return out
}
