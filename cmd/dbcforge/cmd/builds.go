/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// buildsCmd represents the builds command
var buildsCmd = &cobra.Command{
	Use:   "builds <table>",
	Short: "List the schema builds known for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		for _, build := range rt.catalog.Builds(args[0]) {
			cmd.Println(build)
		}
		return nil
	},
}

// fieldCmd represents the field command
var fieldCmd = &cobra.Command{
	Use:   "field <table> <build> <index> <name|type|visible> <value>",
	Short: "Change a column of a stored schema",
	Long: `Change the name, type or visibility of one column in the schema catalog
and save the catalog. The Default build cannot be edited.

Examples:
  dbcforge field Spell 12340 136 name SpellName
  dbcforge field Spell 12340 136 type string
  dbcforge field Spell 12340 137 visible false`,
	Args: cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		index, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		if err := rt.catalog.SetFieldAttribute(args[0], args[1], index, args[3], args[4]); err != nil {
			return err
		}
		if err := rt.catalog.Save(); err != nil {
			return err
		}
		cmd.Printf("%s/%s field %d: %s = %s\n", args[0], args[1], index, args[3], args[4])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildsCmd)
	rootCmd.AddCommand(fieldCmd)
}
