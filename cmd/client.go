package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/earth2-mcp/gateway/client"
)

var (
	clientURL string

	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "interact with a running gateway",
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "perform the handshake and print the server manifest",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := client.New(clientURL).Initialize(cmd.Context())
			if err != nil {
				log.Fatal(err)
			}
			printJSON(result)
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "check that the gateway answers",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := client.New(clientURL).Ping(cmd.Context())
			if err != nil {
				log.Fatal(err)
			}
			printJSON(result)
		},
	}

	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "list the exposed tools",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := client.New(clientURL).ListTools(cmd.Context())
			if err != nil {
				log.Fatal(err)
			}
			printJSON(result)
		},
	}

	callCmd = &cobra.Command{
		Use:   "call <tool> [arguments-json]",
		Short: "invoke a tool",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			arguments := json.RawMessage(`{}`)
			if len(args) == 2 {
				arguments = json.RawMessage(args[1])
			}
			content, err := client.New(clientURL).CallTool(cmd.Context(), args[0], arguments)
			if err != nil {
				log.Fatal(err)
			}
			printRaw(content)
		},
	}

	resourcesCmd = &cobra.Command{
		Use:   "resources",
		Short: "list the exposed resources",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := client.New(clientURL).ListResources(cmd.Context())
			if err != nil {
				log.Fatal(err)
			}
			printJSON(result)
		},
	}

	readCmd = &cobra.Command{
		Use:   "read <uri>",
		Short: "read a resource",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			view, err := client.New(clientURL).ReadResource(cmd.Context(), args[0])
			if err != nil {
				log.Fatal(err)
			}
			printJSON(view)
		},
	}
)

func init() {
	clientCmd.PersistentFlags().StringVar(&clientURL, "url", "http://localhost:8080", "base URL of the gateway")
	clientCmd.AddCommand(initCmd, pingCmd, toolsCmd, callCmd, resourcesCmd, readCmd)
	rootCmd.AddCommand(clientCmd)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}

func printRaw(raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}
