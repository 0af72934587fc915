/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/config"
	"github.com/ssargent/dbcforge/pkg/schema"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration, data directory and schema catalog",
	Long: `Bootstrap dbcforge for local use.

This command will:
- Create a configuration file with a generated API key
- Create the data directory
- Create an empty schema catalog if none exists

Examples:
  dbcforge init
  dbcforge init --config ./dbcforge.yaml --data-dir ./data --print-key`,
	// init creates the config the root hook would otherwise load
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")

		cfg, created, err := initWorkspace(configPath, dataDir, force)
		if err != nil {
			return err
		}

		if created {
			cmd.Printf("Configuration created at %s\n", configPath)
		} else {
			cmd.Printf("Configuration already exists at %s. Use --force to regenerate.\n", configPath)
		}
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("Schema catalog: %s\n", cfg.SchemaFile)
		if printKey {
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Regenerate the configuration even if it exists")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}

// initWorkspace bootstraps the config at configPath unless it exists, then
// makes sure the data directory and catalog file are in place.
func initWorkspace(configPath, dataDir string, force bool) (*config.Config, bool, error) {
	var cfg *config.Config
	var err error
	created := false

	if config.ConfigExists(configPath) && !force {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.BootstrapConfig(configPath, dataDir)
		created = true
	}
	if err != nil {
		return nil, false, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, false, fmt.Errorf("failed to create data directory: %w", err)
	}

	if !config.ConfigExists(cfg.SchemaFile) {
		if err := schema.NewCatalog(cfg.SchemaFile).Save(); err != nil {
			return nil, false, err
		}
	}
	return cfg, created, nil
}
