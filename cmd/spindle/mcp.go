package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/spindle/internal/cli"
	"github.com/aretw0/spindle/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Spindle as an MCP server, exposing dialog sessions as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		commands, _ := cmd.Flags().GetString("commands")
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}

		host, err := cli.NewHost(cli.HostOptions{Config: cfg, Commands: commands, Logger: logger})
		if err != nil {
			return fmt.Errorf("error initializing spindle: %w", err)
		}
		defer host.Close()

		srv := mcp.NewServer(host.Sessions, host.Scripts, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting Spindle MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Spindle MCP server (SSE)", "addr", cfg.Addr)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8080", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("commands", "commands.yaml", "File binding script commands to programs")
}
