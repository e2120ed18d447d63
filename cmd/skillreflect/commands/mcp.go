package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/build"
	"github.com/roasbeef/skillreflect/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve reflection tools over MCP stdio",
	Long: `Run an MCP server on stdio exposing the reflection engine as tools:
reflect_run, reflect_pending, reflect_resolve, and reflect_history.

Register it with Claude Code:
  claude mcp add skillreflect -- skillreflect mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdio carries the MCP protocol, so rebuild the logger with the
	// console stream dropped.
	logger, cleanup, err := build.NewLogger(build.LoggerConfig{
		LogDir: defaultLogDir(),
		Debug:  debugFlag,
		Quiet:  true,
	})
	if err != nil {
		return err
	}
	logCleanup()
	log = logger
	logCleanup = cleanup

	pipeline, err := getPipeline(nil)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	server := mcp.NewServer(pipeline.Engine)

	log.Info("starting MCP server on stdio")
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}
