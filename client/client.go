package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/earth2-mcp/gateway/codec"
	"github.com/earth2-mcp/gateway/mcp"
)

const (
	clientName    = "earth2-mcp-cli"
	clientVersion = "1.0.0"
)

// Client speaks JSON-RPC 2.0 to a running gateway over HTTP POST /rpc. It is
// safe for concurrent use; every call carries a fresh request id.
type Client struct {
	rpcURL     string
	httpClient *http.Client

	mu          sync.Mutex
	initialized bool
	serverInfo  *mcp.ServerInfo
	serverCaps  *mcp.ServerCapabilities
}

func New(baseURL string) *Client {
	return &Client{
		rpcURL: strings.TrimRight(baseURL, "/") + "/rpc",
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

// Call performs one request/response exchange. An error envelope from the
// gateway is returned as the *codec.RPCError itself, so callers can inspect
// the code.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := json.RawMessage(`"` + uuid.NewString() + `"`)
	request := codec.JSONRPCRequest{
		JSONRPC: codec.JSONRPCVersion,
		Method:  method,
		ID:      id,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		request.Params = raw
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *codec.RPCError `json:"error"`
		ID      json.RawMessage `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !bytes.Equal(envelope.ID, id) {
		return nil, fmt.Errorf("response id %s does not match request id %s", envelope.ID, id)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return envelope.Result, nil
}

// Notify sends a request without an id. The gateway acknowledges with 204
// and no body.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	request := codec.JSONRPCRequest{JSONRPC: codec.JSONRPCVersion, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		request.Params = raw
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

// Initialize performs the handshake and records the server's identity and
// capabilities. The gateway speaks a single protocol version; anything else
// is rejected.
func (c *Client) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	params := mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		ClientInfo:      mcp.NewClientInfo(clientName, clientVersion),
	}
	raw, err := c.Call(ctx, mcp.MethodInitialize, params)
	if err != nil {
		return nil, err
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initialize result: %w", err)
	}
	if result.ProtocolVersion != mcp.ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version %q from server", result.ProtocolVersion)
	}

	c.mu.Lock()
	c.serverInfo = &result.ServerInfo
	c.serverCaps = &result.Capabilities
	c.initialized = true
	c.mu.Unlock()
	return &result, nil
}

func (c *Client) Ping(ctx context.Context) (*mcp.PingResult, error) {
	raw, err := c.Call(ctx, mcp.MethodPing, nil)
	if err != nil {
		return nil, err
	}
	var result mcp.PingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ping result: %w", err)
	}
	return &result, nil
}

func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	raw, err := c.Call(ctx, mcp.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	var result mcp.ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tools list: %w", err)
	}
	return &result, nil
}

// CallTool invokes one tool and returns the unwrapped content payload.
func (c *Client) CallTool(ctx context.Context, name string, arguments any) (json.RawMessage, error) {
	args := json.RawMessage(`{}`)
	if arguments != nil {
		raw, err := json.Marshal(arguments)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal arguments: %w", err)
		}
		args = raw
	}

	raw, err := c.Call(ctx, mcp.MethodToolsCall, mcp.ToolCallParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool result: %w", err)
	}
	return wrapped.Content, nil
}

func (c *Client) ListResources(ctx context.Context) (*mcp.ListResourcesResult, error) {
	raw, err := c.Call(ctx, mcp.MethodResourcesList, nil)
	if err != nil {
		return nil, err
	}
	var result mcp.ListResourcesResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resources list: %w", err)
	}
	return &result, nil
}

// ResourceView is a read resource with its content left raw for display.
type ResourceView struct {
	URI         string          `json:"uri"`
	MimeType    string          `json:"mime_type"`
	Content     json.RawMessage `json:"content"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) ReadResource(ctx context.Context, uri string) (*ResourceView, error) {
	raw, err := c.Call(ctx, mcp.MethodResourcesRead, mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, err
	}
	var view ResourceView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource: %w", err)
	}
	return &view, nil
}

// ServerInfo reports the identity recorded by the last successful handshake,
// or nil before one.
func (c *Client) ServerInfo() *mcp.ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// ServerCapabilities reports the capability set from the last handshake, or
// nil before one.
func (c *Client) ServerCapabilities() *mcp.ServerCapabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverCaps
}

func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}
