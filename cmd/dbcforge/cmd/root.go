/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/config"
	"github.com/ssargent/dbcforge/pkg/di"
	"github.com/ssargent/dbcforge/pkg/schema"
)

var container *di.Container

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

type runtimeKey struct{}

// runtime is what every command gets from PersistentPreRunE.
type runtime struct {
	config     *config.Config
	configPath string
	logger     *slog.Logger
	catalog    *schema.Catalog
}

func runtimeFrom(cmd *cobra.Command) (*runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtime)
	if !ok {
		return nil, errors.New("runtime not found in context")
	}
	return rt, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dbcforge",
	Short: "dbcforge - WDBC table codec",
	Long: `dbcforge reads, edits and writes WDBC (.dbc) client database tables.

Column types come from a YAML schema catalog keyed by table name and client
build; without a build every column is read as an unsigned integer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, configPath, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		catalog, err := schema.LoadCatalog(cfg.SchemaFile)
		if err != nil {
			return err
		}

		rt := &runtime{config: cfg, configPath: configPath, logger: logger, catalog: catalog}
		cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, rt))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addConfigFlags(rootCmd)
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	cmd.PersistentFlags().String("env-file", ".env", "Optional .env file with DBCFORGE_* overrides")
	cmd.PersistentFlags().String("schema-file", "", "Schema catalog file (overrides config)")
	cmd.PersistentFlags().StringP("build", "b", "", "Client build used to pick the schema (overrides config)")
	cmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// loadConfig layers the config file, the environment and the flags, in that
// order. A missing default config file is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if explicit || config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, "", err
	}

	overrides := map[string]*string{
		"schema-file": &cfg.SchemaFile,
		"build":       &cfg.DefaultBuild,
		"data-dir":    &cfg.DataDir,
		"log-level":   &cfg.Logging.Level,
	}
	for name, dst := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if cfg.DefaultBuild == "" {
		cfg.DefaultBuild = schema.DefaultBuild
	}

	return cfg, configPath, nil
}
