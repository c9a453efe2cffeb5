package main

import (
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/eventdraft/internal/mcptool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the drafting tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(cfg, "mcp")
		if err != nil {
			return err
		}

		server := mcptool.NewServer(version, mcptool.New(env.Orchestrator, env.Gaps, env.Fusion))
		zap.L().Info("mcp: serving on stdio")
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return eris.Wrap(err, "mcp server")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
