package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/codec"
	"github.com/earth2-mcp/gateway/dispatch"
	"github.com/earth2-mcp/gateway/mcp"
	"github.com/earth2-mcp/gateway/registry"
	"github.com/earth2-mcp/gateway/server"
	"github.com/earth2-mcp/gateway/ws"
)

func TestCall_UnwrapsResult(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/rpc" {
			t.Fatalf("Expected /rpc, got %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req codec.JSONRPCRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "ping", req.Method)

		w.Header().Set("Content-Type", "application/json")
		resp := codec.NewResult(req.ID, map[string]any{"ok": true, "ts": 1758000000})
		json.NewEncoder(w).Encode(resp)
	}

	ts := httptest.NewServer(http.HandlerFunc(handler))
	defer ts.Close()

	c := New(ts.URL)
	raw, err := c.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ok":true`)
}

func TestCall_SurfacesRPCError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req codec.JSONRPCRequest
		require.NoError(t, json.Unmarshal(body, &req))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(codec.NewErrorResponse(req.ID, codec.NewMethodNotFound("nope")))
	}

	ts := httptest.NewServer(http.HandlerFunc(handler))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.Call(context.Background(), "nope", nil)
	require.Error(t, err)

	var rpcErr *codec.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, codec.MethodNotFound, rpcErr.Code)
}

func TestCall_RejectsMismatchedResponseID(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(codec.NewResult(json.RawMessage(`"someone-else"`), map[string]any{}))
	}

	ts := httptest.NewServer(http.HandlerFunc(handler))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.Call(context.Background(), "ping", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestCall_TransportFailure(t *testing.T) {
	c := New("http://localhost:0")
	c.httpClient = &http.Client{Timeout: 100 * time.Millisecond}

	_, err := c.Call(context.Background(), "ping", nil)
	if err == nil {
		t.Errorf("expected error, got nil")
	}
}

func TestNotify_ExpectsNoContent(t *testing.T) {
	status := http.StatusNoContent
	handler := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NotContains(t, string(body), `"id"`)
		w.WriteHeader(status)
	}

	ts := httptest.NewServer(http.HandlerFunc(handler))
	defer ts.Close()

	c := New(ts.URL)
	require.NoError(t, c.Notify(context.Background(), "ping", nil))

	status = http.StatusOK
	err := c.Notify(context.Background(), "ping", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

// ----- full round trip against the real router -----

type okBridge struct{}

func (okBridge) Health(ctx context.Context) (*bridge.HealthResult, error) {
	return &bridge.HealthResult{Ready: true, Status: "ok"}, nil
}

func (okBridge) SubmitForecast(ctx context.Context, req bridge.ForecastRequest) (*bridge.SubmitResult, error) {
	return &bridge.SubmitResult{RequestID: "req-123", Status: "queued"}, nil
}

func (okBridge) FetchVisualization(ctx context.Context, requestID string) (*bridge.VisualResult, error) {
	return &bridge.VisualResult{RequestID: requestID, URL: "https://cdn.example/f.png", ContentType: "image/png"}, nil
}

func (okBridge) AnalyzePatterns(ctx context.Context, q bridge.AnalyzeQuery) (*bridge.AnalyzeResult, error) {
	return &bridge.AnalyzeResult{RequestID: q.RequestID, Summary: "stable"}, nil
}

func (okBridge) StreamChunk(ctx context.Context, requestID, cursor string) (*bridge.StreamChunkResult, error) {
	return &bridge.StreamChunkResult{RequestID: requestID, Chunk: json.RawMessage(`[]`)}, nil
}

func newGateway(t *testing.T) *Client {
	t.Helper()
	reg, err := registry.New(okBridge{})
	require.NoError(t, err)
	d := dispatch.New(reg, "earth2-mcp", "test")

	srv := httptest.NewServer(server.SetupRoutes(d, ws.NewHandler(d)))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestClientHandshakeAgainstGateway(t *testing.T) {
	c := newGateway(t)
	require.False(t, c.Initialized())

	result, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mcp.ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "earth2-mcp", result.ServerInfo.Name)

	assert.True(t, c.Initialized())
	require.NotNil(t, c.ServerInfo())
	assert.Equal(t, "earth2-mcp", c.ServerInfo().Name)
	require.NotNil(t, c.ServerCapabilities())
	assert.True(t, c.ServerCapabilities().Experimental.Stream)
}

func TestClientToolFlowAgainstGateway(t *testing.T) {
	c := newGateway(t)

	ping, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, ping.OK)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 4)

	content, err := c.CallTool(context.Background(), "generate_weather_forecast", map[string]any{
		"location":   []float64{40.71, -74.00},
		"start_time": "2025-09-16T00:00:00Z",
		"hours":      24,
	})
	require.NoError(t, err)
	assert.Contains(t, string(content), "req-123")

	_, err = c.CallTool(context.Background(), "generate_weather_forecast", map[string]any{"hours": 24})
	var rpcErr *codec.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, codec.InvalidParams, rpcErr.Code)
}

func TestClientResourcesAgainstGateway(t *testing.T) {
	c := newGateway(t)

	list, err := c.ListResources(context.Background())
	require.NoError(t, err)
	assert.Len(t, list.Resources, 2)

	view, err := c.ReadResource(context.Background(), "resource://earth2/health")
	require.NoError(t, err)
	assert.Equal(t, "resource://earth2/health", view.URI)
	assert.Equal(t, "application/json", view.MimeType)
	assert.Contains(t, string(view.Content), `"ready":true`)
}
