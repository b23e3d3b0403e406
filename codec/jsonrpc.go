package codec

import (
	"encoding/json"
	"io"
	"net/http"
)

// JSONRPCVersion is the only protocol version this gateway speaks.
const JSONRPCVersion = "2.0"

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports whether the request carried no id at all. A literal
// null id still expects a response.
func (r *JSONRPCRequest) IsNotification() bool {
	return len(r.ID) == 0
}

type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// ErrorData is the sanitized downstream detail attached to upstream-class
// errors: the last observed HTTP status and a short human-readable message,
// never the raw upstream payload.
type ErrorData struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// JSON-RPC 2.0 standard error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Application-defined error codes for downstream forecast service failures.
const (
	UpstreamError      = -32000
	UpstreamNotFound   = -32001
	ServiceUnavailable = -32002
)

var rpcErrorMessages = map[int]string{
	ParseError:         "Parse error",
	InvalidRequest:     "Invalid Request",
	MethodNotFound:     "Method not found",
	InvalidParams:      "Invalid params",
	InternalError:      "Internal error",
	UpstreamError:      "Upstream error",
	UpstreamNotFound:   "Upstream resource not found",
	ServiceUnavailable: "Service unavailable",
}

func NewRPCError(code int, message string, data any) *RPCError {
	if message == "" {
		message = rpcErrorMessages[code]
	}
	return &RPCError{Code: code, Message: message, Data: data}
}

func NewParseError() *RPCError {
	return NewRPCError(ParseError, "", nil)
}

func NewInvalidRequest(detail string) *RPCError {
	return NewRPCError(InvalidRequest, withDetail(InvalidRequest, detail), nil)
}

func NewMethodNotFound(method string) *RPCError {
	return NewRPCError(MethodNotFound, withDetail(MethodNotFound, method), nil)
}

func NewInvalidParams(detail string) *RPCError {
	return NewRPCError(InvalidParams, withDetail(InvalidParams, detail), nil)
}

func NewInternalError(detail string) *RPCError {
	return NewRPCError(InternalError, withDetail(InternalError, detail), nil)
}

func NewUpstreamError(status int, message string) *RPCError {
	return NewRPCError(UpstreamError, "", ErrorData{Status: status, Message: message})
}

func NewUpstreamNotFound(message string) *RPCError {
	return NewRPCError(UpstreamNotFound, "", ErrorData{Status: http.StatusNotFound, Message: message})
}

func NewServiceUnavailable(message string) *RPCError {
	return NewRPCError(ServiceUnavailable, "", ErrorData{Status: http.StatusServiceUnavailable, Message: message})
}

func withDetail(code int, detail string) string {
	if detail == "" {
		return rpcErrorMessages[code]
	}
	return rpcErrorMessages[code] + ": " + detail
}

func NewResult(id any, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, Result: result, ID: id}
}

func NewErrorResponse(id any, rpcErr *RPCError) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, Error: rpcErr, ID: id}
}

// DecodeRequest parses one request envelope. Structurally malformed JSON
// yields a parse error with a null id; a well-formed document that is not a
// valid envelope yields an invalid request (or invalid params) error echoing
// whatever id could be recovered. On success Params is never nil.
func DecodeRequest(raw []byte) (*JSONRPCRequest, *JSONRPCResponse) {
	if !json.Valid(raw) {
		return nil, NewErrorResponse(nil, NewParseError())
	}
	var req JSONRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		// Well-formed JSON that does not fit the envelope, e.g. a bare
		// array or a non-string method.
		return nil, NewErrorResponse(nil, NewInvalidRequest(err.Error()))
	}
	if !validRequestID(req.ID) {
		return nil, NewErrorResponse(nil, NewInvalidRequest("id must be a string, number, or null"))
	}
	if req.JSONRPC != JSONRPCVersion {
		return nil, NewErrorResponse(req.ID, NewInvalidRequest(`jsonrpc must be "2.0"`))
	}
	if req.Method == "" {
		return nil, NewErrorResponse(req.ID, NewInvalidRequest("missing method"))
	}
	if len(req.Params) == 0 {
		req.Params = json.RawMessage(`{}`)
	} else if req.Params[0] != '{' {
		return nil, NewErrorResponse(req.ID, NewInvalidParams("params must be an object"))
	}
	return &req, nil
}

func validRequestID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	switch raw[0] {
	case '"', 'n', '-':
		return true
	}
	return raw[0] >= '0' && raw[0] <= '9'
}

// ParseJSONRPCRequest reads and decodes a single envelope from an HTTP
// request body.
func ParseJSONRPCRequest(r *http.Request) (*JSONRPCRequest, *JSONRPCResponse) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, NewErrorResponse(nil, NewInternalError("reading request body"))
	}
	return DecodeRequest(raw)
}

func WriteResponse(w http.ResponseWriter, resp *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func WriteJSONRPCResponse(w http.ResponseWriter, result any, id any) {
	WriteResponse(w, NewResult(id, result))
}

func WriteJSONRPCError(w http.ResponseWriter, code int, message string, id any) {
	WriteResponse(w, NewErrorResponse(id, NewRPCError(code, message, nil)))
}
