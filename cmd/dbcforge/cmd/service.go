/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/config"
)

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Run dbcforge serve under systemd",
}

// unitCmd represents the service unit command
var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Write a systemd unit for dbcforge serve",
	Long: `Write a systemd unit that runs dbcforge serve with the current config,
with the usual hardening and restart on failure. The unit goes to stdout
unless --out is given.

Examples:
  dbcforge service unit --user dbcforge > /etc/systemd/system/dbcforge.service
  dbcforge service unit --out /etc/systemd/system/dbcforge.service`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		user, _ := cmd.Flags().GetString("user")
		binary, _ := cmd.Flags().GetString("binary")
		out, _ := cmd.Flags().GetString("out")

		configPath, err := filepath.Abs(rt.configPath)
		if err != nil {
			return err
		}
		unit := systemdUnit(rt.config, configPath, user, binary)

		if out == "" {
			cmd.Print(unit)
			return nil
		}
		if err := os.WriteFile(out, []byte(unit), 0600); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		cmd.Printf("Wrote %s\nEnable it with: systemctl daemon-reload && systemctl enable --now %s\n",
			out, filepath.Base(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(unitCmd)
	unitCmd.Flags().String("user", "dbcforge", "System user to run as")
	unitCmd.Flags().String("binary", "/usr/local/bin/dbcforge", "Path of the dbcforge binary")
	unitCmd.Flags().StringP("out", "o", "", "Write the unit to this file")
}

// systemdUnit renders the unit file text.
func systemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=dbcforge REST API
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, filepath.Dir(cfg.SchemaFile))
}
