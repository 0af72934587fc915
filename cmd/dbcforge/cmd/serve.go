/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/api"
	"github.com/ssargent/dbcforge/pkg/config"
	"github.com/ssargent/dbcforge/pkg/di"
	"github.com/ssargent/dbcforge/pkg/storage"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the dbcforge REST API server. Uploaded tables are kept in the data
directory; requests must carry the configured API key in X-API-Key unless
the key is left as "auto".

Examples:
  dbcforge serve --port 9200
  dbcforge serve --config ./dbcforge.yaml --api-key mysecretkey`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		cfg := rt.config
		if f := cmd.Flags().Lookup("port"); f.Changed {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if f := cmd.Flags().Lookup("bind"); f.Changed {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if f := cmd.Flags().Lookup("api-key"); f.Changed {
			cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if !cfg.APIKeyRequired() {
			rt.logger.Warn("no API key configured; the API is open to anyone who can reach it")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, container, cfg, rt.logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to (overrides config)")
	serveCmd.Flags().String("api-key", "", "API key for X-API-Key authentication (overrides config)")
}

// serve wires the server from c and blocks until ctx is done.
func serve(ctx context.Context, c *di.Container, cfg *config.Config, logger *slog.Logger) error {
	if c == nil {
		return errors.New("dependency container not initialized")
	}
	if err := c.Build(cfg, logger); err != nil {
		return err
	}

	return c.Invoke(func(s *api.Server, store *storage.DefaultStorage, starter api.ServerStarter) error {
		defer store.Close()
		logger.Debug("serving", "data_dir", cfg.DataDir, "default_build", cfg.DefaultBuild)
		return api.StartServer(ctx, s, starter)
	})
}
