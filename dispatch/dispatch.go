package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/codec"
	"github.com/earth2-mcp/gateway/mcp"
	"github.com/earth2-mcp/gateway/registry"
	"github.com/earth2-mcp/gateway/resilience"
	"github.com/earth2-mcp/gateway/validate"
)

// Dispatcher routes decoded envelopes to the gateway's fixed method set. It
// holds no per-request state and is shared by the HTTP and WebSocket
// transports.
type Dispatcher struct {
	registry *registry.Registry

	// Built once so repeated initialize calls serialize byte-identically.
	initResult *mcp.InitializeResult
}

func New(reg *registry.Registry, serverName, serverVersion string) *Dispatcher {
	return &Dispatcher{
		registry:   reg,
		initResult: mcp.NewInitializeResult(serverName, serverVersion),
	}
}

// Dispatch executes one decoded request and returns the response to send.
// It returns nil for notifications and for requests whose context ended
// before a response could be produced; a cancelled request never gets a late
// answer.
func (d *Dispatcher) Dispatch(ctx context.Context, req *codec.JSONRPCRequest) *codec.JSONRPCResponse {
	var result any
	var rpcErr *codec.RPCError

	switch mcp.CanonicalMethod(req.Method) {
	case mcp.MethodInitialize:
		result = d.initialize(req.Params)

	case mcp.MethodPing:
		result = &mcp.PingResult{OK: true, TS: time.Now().Unix()}

	case mcp.MethodToolsList:
		result = &mcp.ListToolsResult{Tools: d.registry.Tools()}

	case mcp.MethodToolsCall:
		result, rpcErr = d.callTool(ctx, req.Params)

	case mcp.MethodResourcesList:
		result = &mcp.ListResourcesResult{Resources: d.registry.Resources()}

	case mcp.MethodResourcesRead:
		result, rpcErr = d.readResource(ctx, req.Params)

	default:
		rpcErr = codec.NewMethodNotFound(req.Method)
	}

	if req.IsNotification() {
		if rpcErr != nil {
			log.WithField("method", req.Method).Debugf("notification failed: %s", rpcErr.Message)
		}
		return nil
	}
	if ctx.Err() != nil {
		log.WithField("method", req.Method).Debug("request cancelled, dropping response")
		return nil
	}

	var id any
	if len(req.ID) > 0 {
		id = req.ID
	}
	if rpcErr != nil {
		return codec.NewErrorResponse(id, rpcErr)
	}
	return codec.NewResult(id, result)
}

// initialize tolerates arbitrary client params; only clientInfo is looked at,
// for the log line.
func (d *Dispatcher) initialize(params json.RawMessage) *mcp.InitializeResult {
	var p mcp.InitializeParams
	if err := json.Unmarshal(params, &p); err == nil && p.ClientInfo.Name != "" {
		log.Infof("initialize from %s %s", p.ClientInfo.Name, p.ClientInfo.Version)
	}
	return d.initResult
}

func (d *Dispatcher) callTool(ctx context.Context, params json.RawMessage) (any, *codec.RPCError) {
	var p mcp.ToolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, codec.NewInvalidParams(err.Error())
	}
	if p.Name == "" {
		return nil, codec.NewInvalidParams("missing tool name")
	}

	entry, ok := d.registry.Tool(p.Name)
	if !ok {
		return nil, codec.NewRPCError(codec.MethodNotFound, "Tool not found: "+p.Name, nil)
	}

	args := p.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := entry.Schema.Check(args); err != nil {
		return nil, toRPCError(err)
	}

	result, err := entry.Handler(ctx, args)
	if err != nil {
		log.WithFields(log.Fields{"tool": p.Name, "error": err}).Warn("tool call failed")
		return nil, toRPCError(err)
	}
	return &mcp.ToolCallResult{Content: result}, nil
}

func (d *Dispatcher) readResource(ctx context.Context, params json.RawMessage) (any, *codec.RPCError) {
	var p mcp.ReadResourceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, codec.NewInvalidParams(err.Error())
	}
	if p.URI == "" {
		return nil, codec.NewInvalidParams("missing uri")
	}

	entry, ok := d.registry.Resource(p.URI)
	if !ok {
		return nil, codec.NewRPCError(codec.InvalidParams, "Unknown resource: "+p.URI, nil)
	}

	value, err := entry.Produce(ctx)
	if err != nil {
		log.WithFields(log.Fields{"uri": p.URI, "error": err}).Warn("resource read failed")
		return nil, toRPCError(err)
	}
	return &mcp.ResourceContent{
		URI:         entry.Resource.URI,
		MimeType:    entry.Resource.MimeType,
		Content:     value,
		Description: entry.Resource.Description,
	}, nil
}

// toRPCError maps tool and resource failures onto the wire error space.
// Upstream errors keep only the status code and a short message; raw
// downstream payloads never reach the caller.
func toRPCError(err error) *codec.RPCError {
	var argErr *validate.ArgumentError
	if errors.As(err, &argErr) {
		return codec.NewInvalidParams(argErr.Error())
	}
	if errors.Is(err, bridge.ErrNotReady) {
		return codec.NewServiceUnavailable(err.Error())
	}

	var upstream *bridge.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Status == http.StatusNotFound {
			return codec.NewUpstreamNotFound(upstream.Message)
		}
		return codec.NewUpstreamError(upstream.Status, upstream.Message)
	}

	// Transport-level failures, including retry exhaustion without ever
	// seeing an HTTP status: the service is unreachable.
	if errors.Is(err, context.DeadlineExceeded) {
		return codec.NewServiceUnavailable("forecast service timed out")
	}
	if isTransportError(err) {
		return codec.NewServiceUnavailable(err.Error())
	}

	return codec.NewInternalError(err.Error())
}

// isTransportError reports whether the bridge gave up without an HTTP
// status: either the retry budget ran out on connection errors, or a single
// non-retryable transport failure occurred.
func isTransportError(err error) bool {
	var exhausted resilience.ErrMaxRetriesExceeded
	if errors.As(err, &exhausted) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
