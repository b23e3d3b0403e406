package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/earth2-mcp/gateway/bridge"
	"github.com/earth2-mcp/gateway/config"
	"github.com/earth2-mcp/gateway/dispatch"
	"github.com/earth2-mcp/gateway/registry"
	"github.com/earth2-mcp/gateway/server"
	"github.com/earth2-mcp/gateway/stdio"
	"github.com/earth2-mcp/gateway/ws"
)

var (
	stdioMode bool

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "start the gateway server",
		Run:   runServerCmd,
	}
)

func init() {
	serverCmd.Flags().BoolVar(&stdioMode, "stdio", false, "serve JSON-RPC over stdin/stdout instead of HTTP")
	rootCmd.AddCommand(serverCmd)
}

func runServerCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	setupLogging(cfg.LogLevel)

	reg, err := registry.New(bridge.New(cfg))
	if err != nil {
		log.Fatal(err)
	}
	d := dispatch.New(reg, cfg.ServerName, cfg.ServerVersion)

	if stdioMode {
		// Logs go to stderr, so stdout stays a clean protocol stream.
		if err := stdio.Serve(cmd.Context(), d, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	server.NewServer(cfg, d, ws.NewHandler(d)).Run()
}
