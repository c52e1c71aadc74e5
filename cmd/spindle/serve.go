package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/spindle/internal/cli"
	spindlehttp "github.com/aretw0/spindle/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session server",
	Long:  `Serves the script library over HTTP: clients start sessions, step through events and post decisions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		commands, _ := cmd.Flags().GetString("commands")

		host, err := cli.NewHost(cli.HostOptions{Config: cfg, Commands: commands, Logger: logger})
		if err != nil {
			return fmt.Errorf("error initializing spindle: %w", err)
		}
		defer host.Close()

		srv := &http.Server{
			Addr: cfg.Addr,
			Handler: spindlehttp.NewHandler(host.Sessions, host.Scripts,
				spindlehttp.WithLogger(logger),
				spindlehttp.WithMetrics(host.MetricsHandler()),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Spindle server", "addr", srv.Addr, "library", cfg.Library)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			logger.Info("Shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Spindle server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("commands", "commands.yaml", "File binding script commands to programs")
}
