package mcp

// ProtocolVersion is the protocol revision advertised by initialize.
const ProtocolVersion = "2025-03-26"

// Info Structures
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func NewClientInfo(name, version string) ClientInfo {
	return ClientInfo{
		Name:    name,
		Version: version,
	}
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func NewServerInfo(name, version string) ServerInfo {
	return ServerInfo{
		Name:    name,
		Version: version,
	}
}

// ExperimentalCapabilities advertises non-standard features; the
// cursor-driven streaming tool rides under it.
type ExperimentalCapabilities struct {
	Stream bool `json:"stream"`
}

type ServerCapabilities struct {
	Tools        bool                     `json:"tools"`
	Resources    bool                     `json:"resources"`
	Experimental ExperimentalCapabilities `json:"experimental"`
}

// Initialize Request/Response Payloads
type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// NewInitializeResult builds the static manifest reported to every client.
// The struct layout keeps serialization deterministic, so repeated
// initialize calls return byte-identical results.
func NewInitializeResult(name, version string) *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      NewServerInfo(name, version),
		Capabilities: ServerCapabilities{
			Tools:        true,
			Resources:    true,
			Experimental: ExperimentalCapabilities{Stream: true},
		},
	}
}
