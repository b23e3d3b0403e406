package mcp

import "strings"

const (
	// Initiates connection and negotiates protocol capabilities.
	// https://modelcontextprotocol.io/specification/2025-03-26/basic/lifecycle#initialization
	MethodInitialize string = "initialize"

	// Verifies connection liveness between client and server.
	// https://modelcontextprotocol.io/specification/2025-03-26/basic/utilities/ping
	MethodPing string = "ping"

	// Lists all available executable tools.
	// https://modelcontextprotocol.io/specification/2025-03-26/server/tools
	MethodToolsList string = "tools/list"

	// Invokes a specific tool with provided parameters.
	// https://modelcontextprotocol.io/specification/2025-03-26/server/tools
	MethodToolsCall string = "tools/call"

	// Lists all available server resources.
	// https://modelcontextprotocol.io/specification/2025-03-26/server/resources
	MethodResourcesList string = "resources/list"

	// Retrieves content of a specific resource by URI.
	// https://modelcontextprotocol.io/specification/2025-03-26/server/resources
	MethodResourcesRead string = "resources/read"
)

// MethodAliasPrefix is accepted in front of every method name, so
// "mcp/tools/call" and "tools/call" dispatch identically.
const MethodAliasPrefix = "mcp/"

// CanonicalMethod strips the optional alias prefix from a method name.
func CanonicalMethod(method string) string {
	return strings.TrimPrefix(method, MethodAliasPrefix)
}
