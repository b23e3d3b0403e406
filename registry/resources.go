package registry

import (
	"context"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/mcp"
)

// URIs of the exposed resources.
const (
	ResourceHealth       = "resource://earth2/health"
	ResourceCapabilities = "resource://earth2/capabilities"
)

const resourceMimeType = "application/json"

// newHealthResource probes the downstream service on every read. A probe
// failure is reported as not-ready content rather than a read error, so the
// resource stays readable while the forecast service is down.
func newHealthResource(fc Forecaster) *ResourceEntry {
	return &ResourceEntry{
		Resource: mcp.Resource{
			URI:         ResourceHealth,
			MimeType:    resourceMimeType,
			Description: "Live readiness of the Earth-2 forecast service",
		},
		Produce: func(ctx context.Context) (any, error) {
			health, err := fc.Health(ctx)
			if err != nil {
				return &bridge.HealthResult{Ready: false, Status: err.Error()}, nil
			}
			return health, nil
		},
	}
}

// CapabilitiesDoc describes the forecast model behind the tools.
type CapabilitiesDoc struct {
	Model           string   `json:"model"`
	MaxHorizonHours int      `json:"max_horizon_hours"`
	StepHours       int      `json:"step_hours"`
	Tools           []string `json:"tools"`
}

func newCapabilitiesResource(toolNames []string) *ResourceEntry {
	doc := &CapabilitiesDoc{
		Model:           "fourcastnet",
		MaxHorizonHours: 240,
		StepHours:       bridge.StepHours,
		Tools:           toolNames,
	}
	return &ResourceEntry{
		Resource: mcp.Resource{
			URI:         ResourceCapabilities,
			MimeType:    resourceMimeType,
			Description: "Advertised forecast model capabilities",
		},
		Produce: func(ctx context.Context) (any, error) {
			return doc, nil
		},
	}
}
