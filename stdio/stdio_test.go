package stdio

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/dispatch"
	"github.com/earth2-mcp/gateway/registry"
)

type stubForecaster struct{}

func (stubForecaster) Health(context.Context) (*bridge.HealthResult, error) {
	return &bridge.HealthResult{Ready: true, Status: "ok"}, nil
}

func (stubForecaster) SubmitForecast(context.Context, bridge.ForecastRequest) (*bridge.SubmitResult, error) {
	return &bridge.SubmitResult{RequestID: "req-123", Status: "queued"}, nil
}

func (stubForecaster) FetchVisualization(context.Context, string) (*bridge.VisualResult, error) {
	return &bridge.VisualResult{RequestID: "req-123", URL: "http://earth2/artifact.png"}, nil
}

func (stubForecaster) AnalyzePatterns(context.Context, bridge.AnalyzeQuery) (*bridge.AnalyzeResult, error) {
	return &bridge.AnalyzeResult{Summary: "stable"}, nil
}

func (stubForecaster) StreamChunk(context.Context, string, string) (*bridge.StreamChunkResult, error) {
	return &bridge.StreamChunkResult{RequestID: "req-123", Chunk: []byte(`[]`)}, nil
}

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	reg, err := registry.New(stubForecaster{})
	require.NoError(t, err)
	return dispatch.New(reg, "earth2-mcp", "test")
}

func serveLines(t *testing.T, input string) []string {
	t.Helper()
	var out bytes.Buffer
	err := Serve(context.Background(), newTestDispatcher(t), strings.NewReader(input), &out)
	require.NoError(t, err)
	trimmed := strings.TrimSpace(out.String())
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestServeAnswersInRequestOrder(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"ping"}
{"jsonrpc":"2.0","method":"ping"}
{"jsonrpc":"2.0","id":2,"method":"tools/list"}
`
	lines := serveLines(t, input)
	require.Len(t, lines, 2, "notification must not produce an output line")
	assert.Contains(t, lines[0], `"id":1`)
	assert.Contains(t, lines[0], `"ok":true`)
	assert.Contains(t, lines[1], `"id":2`)
	assert.Contains(t, lines[1], "generate_weather_forecast")
}

func TestServeRepliesParseErrorInline(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,
{"jsonrpc":"2.0","id":3,"method":"ping"}
`
	lines := serveLines(t, input)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"code":-32700`)
	assert.Contains(t, lines[0], `"id":null`)
	assert.Contains(t, lines[1], `"id":3`)
}

func TestServeSkipsBlankLines(t *testing.T) {
	input := "\n\n" + `{"jsonrpc":"2.0","id":9,"method":"ping"}` + "\n\n"
	lines := serveLines(t, input)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"id":9`)
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	input := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	err := Serve(ctx, newTestDispatcher(t), input, &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
