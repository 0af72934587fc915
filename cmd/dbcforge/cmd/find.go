/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/dbc"
	"github.com/ssargent/dbcforge/pkg/index"
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <file.dbc> <field> <value> [to]",
	Short: "Print the records whose field matches a value",
	Long: `Print the records whose field equals value or, when to is given, lies
between value and to inclusive. The field is a column index or name.

Examples:
  dbcforge find Spell.dbc ID 133 --build 12340
  dbcforge find Spell.dbc Level 10 20 --build 12340`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		f, err := loadFile(rt, args[0], nil)
		if err != nil {
			return err
		}

		records, err := findRecords(f, args[1], args[2], args[3:]...)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			cmd.Println("no matching records")
			return nil
		}
		return writeDump(cmd.OutOrStdout(), f, dumpOptions{all: all, records: records})
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().Bool("all", false, "Include hidden columns")
}

// findRecords returns the positions of the records whose field equals
// value, or lies in [value, to[0]] when to is given.
func findRecords(f *dbc.File, field, value string, to ...string) ([]int, error) {
	i, err := f.Schema().FieldIndex(field)
	if err != nil {
		return nil, err
	}
	idx, err := index.Build(f.Table(), f.Schema(), i)
	if err != nil {
		return nil, err
	}
	if len(to) > 0 {
		return idx.Range(value, to[0])
	}
	return idx.Lookup(value)
}
