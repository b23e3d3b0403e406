package main

import "github.com/earth2-mcp/gateway/cmd"

func main() {
	cmd.Execute()
}
