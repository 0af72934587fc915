/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// rewriteCmd represents the rewrite command
var rewriteCmd = &cobra.Command{
	Use:   "rewrite <in.dbc> [out.dbc]",
	Short: "Decode and re-encode a table",
	Long: `Decode a table and encode it again, writing to out.dbc or back over the
input. The string block is rebuilt, so duplicate and unreferenced strings
are dropped.

Example:
  dbcforge rewrite Spell.dbc Spell.clean.dbc --build 12340`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		in, out := args[0], args[0]
		if len(args) == 2 {
			out = args[1]
		}

		obs := newObserver(cmd)
		f, err := loadFile(rt, in, obs)
		if err != nil {
			return err
		}
		before := f.Header()

		if err := saveFile(rt, f, out, obs); err != nil {
			return err
		}
		after := f.Header()

		cmd.Printf("%s: %d records, string block %d -> %d bytes, file %d -> %d bytes\n",
			out, after.RecordCount, before.StringBlockSize, after.StringBlockSize,
			before.FileSize(), after.FileSize())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rewriteCmd)
	progressFlag(rewriteCmd)
}
