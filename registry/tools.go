package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/mcp"
	"github.com/earth2-mcp/gateway/validate"
)

// Wire names of the exposed tools.
const (
	ToolGenerateForecast   = "generate_weather_forecast"
	ToolForecastVisual     = "get_forecast_visualization"
	ToolAnalyzePatterns    = "analyze_weather_patterns"
	ToolStreamForecastData = "stream_forecast_data"
)

func newForecastTool(fc Forecaster) (*ToolEntry, error) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"location": {
				"type": "array",
				"description": "[lat, lon] in decimal degrees",
				"items": {"type": "number"},
				"minItems": 2,
				"maxItems": 2
			},
			"start_time": {
				"type": "string",
				"format": "date-time",
				"description": "Forecast start, ISO 8601"
			},
			"hours": {
				"type": "integer",
				"minimum": 1,
				"maximum": 240,
				"description": "Forecast horizon in hours"
			}
		},
		"required": ["location", "start_time", "hours"]
	}`)

	compiled, err := validate.Compile(schema)
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, arguments json.RawMessage) (any, error) {
		var args struct {
			Location  []float64 `json:"location"`
			StartTime string    `json:"start_time"`
			Hours     int       `json:"hours"`
		}
		if err := json.Unmarshal(arguments, &args); err != nil {
			return nil, &validate.ArgumentError{Field: "(root)", Detail: err.Error()}
		}
		start, err := time.Parse(time.RFC3339, args.StartTime)
		if err != nil {
			return nil, &validate.ArgumentError{Field: "start_time", Detail: "must be an RFC 3339 timestamp"}
		}
		return fc.SubmitForecast(ctx, bridge.ForecastRequest{
			Location:  [2]float64{args.Location[0], args.Location[1]},
			StartTime: start,
			Hours:     args.Hours,
		})
	}

	return &ToolEntry{
		Tool: mcp.Tool{
			Name:        ToolGenerateForecast,
			Description: "Generate a short-range forecast via Earth-2 FourCastNet",
			InputSchema: schema,
		},
		Schema:  compiled,
		Handler: handler,
	}, nil
}

func newVisualizationTool(fc Forecaster) (*ToolEntry, error) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"request_id": {"type": "string", "description": "Identifier returned by generate_weather_forecast"}
		},
		"required": ["request_id"]
	}`)

	compiled, err := validate.Compile(schema)
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, arguments json.RawMessage) (any, error) {
		var args struct {
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(arguments, &args); err != nil {
			return nil, &validate.ArgumentError{Field: "(root)", Detail: err.Error()}
		}
		return fc.FetchVisualization(ctx, args.RequestID)
	}

	return &ToolEntry{
		Tool: mcp.Tool{
			Name:        ToolForecastVisual,
			Description: "Render forecast visualization (PNG) for a request id",
			InputSchema: schema,
		},
		Schema:  compiled,
		Handler: handler,
	}, nil
}

func newPatternsTool(fc Forecaster) (*ToolEntry, error) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"request_id": {"type": "string", "description": "Analyze an existing forecast run"},
			"location": {
				"type": "array",
				"items": {"type": "number"},
				"minItems": 2,
				"maxItems": 2
			},
			"start_time": {"type": "string", "format": "date-time"},
			"end_time": {"type": "string", "format": "date-time"}
		},
		"anyOf": [
			{"required": ["request_id"]},
			{"required": ["location", "start_time", "end_time"]}
		]
	}`)

	compiled, err := validate.Compile(schema)
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, arguments json.RawMessage) (any, error) {
		var args struct {
			RequestID string    `json:"request_id"`
			Location  []float64 `json:"location"`
			StartTime string    `json:"start_time"`
			EndTime   string    `json:"end_time"`
		}
		if err := json.Unmarshal(arguments, &args); err != nil {
			return nil, &validate.ArgumentError{Field: "(root)", Detail: err.Error()}
		}

		q := bridge.AnalyzeQuery{RequestID: args.RequestID}
		if args.RequestID == "" {
			start, err := time.Parse(time.RFC3339, args.StartTime)
			if err != nil {
				return nil, &validate.ArgumentError{Field: "start_time", Detail: "must be an RFC 3339 timestamp"}
			}
			end, err := time.Parse(time.RFC3339, args.EndTime)
			if err != nil {
				return nil, &validate.ArgumentError{Field: "end_time", Detail: "must be an RFC 3339 timestamp"}
			}
			if !end.After(start) {
				return nil, &validate.ArgumentError{Field: "end_time", Detail: "must be later than start_time"}
			}
			q.Location = [2]float64{args.Location[0], args.Location[1]}
			q.StartTime = start
			q.EndTime = end
		}
		return fc.AnalyzePatterns(ctx, q)
	}

	return &ToolEntry{
		Tool: mcp.Tool{
			Name:        ToolAnalyzePatterns,
			Description: "Analyze Earth-2 forecast output for trends and anomalies",
			InputSchema: schema,
		},
		Schema:  compiled,
		Handler: handler,
	}, nil
}

func newStreamTool(fc Forecaster) (*ToolEntry, error) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"request_id": {"type": "string", "description": "Identifier returned by generate_weather_forecast"},
			"cursor": {"type": "string", "description": "Continuation cursor from the previous chunk"}
		},
		"required": ["request_id"]
	}`)

	compiled, err := validate.Compile(schema)
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, arguments json.RawMessage) (any, error) {
		var args struct {
			RequestID string `json:"request_id"`
			Cursor    string `json:"cursor"`
		}
		if err := json.Unmarshal(arguments, &args); err != nil {
			return nil, &validate.ArgumentError{Field: "(root)", Detail: err.Error()}
		}
		return fc.StreamChunk(ctx, args.RequestID, args.Cursor)
	}

	return &ToolEntry{
		Tool: mcp.Tool{
			Name:        ToolStreamForecastData,
			Description: "Fetch timeseries forecast data in cursor-delimited chunks",
			InputSchema: schema,
		},
		Schema:  compiled,
		Handler: handler,
	}, nil
}
