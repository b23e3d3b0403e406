package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgPath string

	rootCmd = &cobra.Command{
		Use:   "earth2-mcp",
		Short: "JSON-RPC gateway for the Earth-2 FourCastNet forecast service",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "directory to search for config.yaml")
}

func setupLogging(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
