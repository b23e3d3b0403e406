package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HealthResult is the readiness answer surfaced to callers and to the
// health resource. Status carries downstream detail when available.
type HealthResult struct {
	Ready  bool   `json:"ready"`
	Status string `json:"status,omitempty"`
}

// ForecastRequest is a validated, normalized forecast submission.
type ForecastRequest struct {
	Location  [2]float64
	StartTime time.Time
	Hours     int
}

// SubmitResult acknowledges a forecast submission.
type SubmitResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status,omitempty"`
	Artifact  string `json:"artifact,omitempty"`
}

// VisualResult references a rendered artifact, either by URL or inline.
type VisualResult struct {
	RequestID   string `json:"request_id"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        string `json:"data,omitempty"`
}

// AnalyzeQuery selects a finished forecast by request id, or a region and
// time range for an ad hoc analysis.
type AnalyzeQuery struct {
	RequestID string
	Location  [2]float64
	StartTime time.Time
	EndTime   time.Time
}

type AnalyzeResult struct {
	RequestID string         `json:"request_id,omitempty"`
	Summary   string         `json:"summary"`
	Metrics   map[string]any `json:"metrics,omitempty"`
}

// StreamChunkResult is one chunk of a cursor-driven stream. A nil NextCursor
// marks the terminal chunk.
type StreamChunkResult struct {
	RequestID  string          `json:"request_id"`
	Chunk      json.RawMessage `json:"chunk"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// StepHours is the temporal resolution of a single FourCastNet simulation
// step.
const StepHours = 6

// SimulationSteps converts a forecast horizon in hours to the downstream
// convention of 6-hour simulation steps, rounding up.
func SimulationSteps(hours int) int {
	return (hours + StepHours - 1) / StepHours
}

type forecastPayload struct {
	Location         [2]float64 `json:"location"`
	StartTime        string     `json:"start_time"`
	SimulationLength int        `json:"simulation_length"`
	NGCAPIKey        string     `json:"ngc_api_key,omitempty"`
}

type analyzePayload struct {
	Location  [2]float64 `json:"location"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
}

// Health checks downstream readiness with a single attempt. Readiness is
// defined by HTTP 200; the body is advisory.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	raw, err := c.do(ctx, http.MethodGet, c.url(c.healthPath), c.requestTimeout, nil)
	if err != nil {
		return nil, err
	}
	result := &HealthResult{Ready: true}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		result.Status = body.Status
	}
	return result, nil
}

// SubmitForecast gates on readiness, then submits the forecast request.
// Transient submission failures are retried; readiness failures are not.
func (c *Client) SubmitForecast(ctx context.Context, req ForecastRequest) (*SubmitResult, error) {
	if _, err := c.Health(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, err)
	}

	payload := forecastPayload{
		Location:         req.Location,
		StartTime:        req.StartTime.UTC().Format(time.RFC3339),
		SimulationLength: SimulationSteps(req.Hours),
		NGCAPIKey:        c.ngcKey,
	}

	var result SubmitResult
	err := c.withRetry(ctx, func() error {
		raw, err := c.do(ctx, http.MethodPost, c.url(c.forecastPath), c.submitTimeout, payload)
		if err != nil {
			return err
		}
		return decodeInto(raw, &result)
	})
	if err != nil {
		return nil, err
	}
	if result.RequestID == "" {
		return nil, shapeError("submission acknowledgement is missing request_id")
	}
	return &result, nil
}

// FetchVisualization retrieves the rendered artifact for a finished forecast.
func (c *Client) FetchVisualization(ctx context.Context, requestID string) (*VisualResult, error) {
	var result VisualResult
	err := c.withRetry(ctx, func() error {
		raw, err := c.do(ctx, http.MethodGet, c.keyedURL(c.visualPath, requestID), c.requestTimeout, nil)
		if err != nil {
			return err
		}
		return decodeInto(raw, &result)
	})
	if err != nil {
		return nil, err
	}
	if result.URL == "" && result.Data == "" {
		return nil, shapeError("visualization carries neither url nor data")
	}
	return &result, nil
}

// AnalyzePatterns fetches the summary for a request id, or submits a
// region/time-range analysis when no id is given.
func (c *Client) AnalyzePatterns(ctx context.Context, q AnalyzeQuery) (*AnalyzeResult, error) {
	var result AnalyzeResult
	err := c.withRetry(ctx, func() error {
		var raw []byte
		var err error
		if q.RequestID != "" {
			raw, err = c.do(ctx, http.MethodGet, c.keyedURL(c.analyzePath, q.RequestID), c.requestTimeout, nil)
		} else {
			payload := analyzePayload{
				Location:  q.Location,
				StartTime: q.StartTime.UTC().Format(time.RFC3339),
				EndTime:   q.EndTime.UTC().Format(time.RFC3339),
			}
			raw, err = c.do(ctx, http.MethodPost, c.url(c.analyzePath), c.submitTimeout, payload)
		}
		if err != nil {
			return err
		}
		return decodeInto(raw, &result)
	})
	if err != nil {
		return nil, err
	}
	if result.Summary == "" {
		return nil, shapeError("analysis carries no summary")
	}
	return &result, nil
}

// StreamChunk fetches at most one chunk of forecast data. An empty cursor
// opens the stream; the downstream echo contract is opaque to the gateway.
func (c *Client) StreamChunk(ctx context.Context, requestID, cursor string) (*StreamChunkResult, error) {
	target := c.keyedURL(c.streamPath, requestID)
	if cursor != "" {
		target += "?cursor=" + url.QueryEscape(cursor)
	}

	var result StreamChunkResult
	err := c.withRetry(ctx, func() error {
		raw, err := c.do(ctx, http.MethodGet, target, c.requestTimeout, nil)
		if err != nil {
			return err
		}
		return decodeInto(raw, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) keyedURL(path, requestID string) string {
	return c.base + path + "/" + url.PathEscape(requestID)
}

func decodeInto(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return shapeError("undecodable body")
	}
	return nil
}

// shapeError marks a 2xx answer whose payload does not fit the operation's
// declared shape. These are final, not retried.
func shapeError(detail string) error {
	return &UpstreamError{Status: http.StatusOK, Message: "unexpected forecast service payload: " + detail}
}
