/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/dbc"
)

type dumpOptions struct {
	all   bool
	limit int
	// records selects which records to print; nil prints all of them
	records []int
}

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file.dbc>",
	Short: "Print the header and records of a table",
	Long: `Print the header and records of a DBC table. Columns the schema marks
hidden are left out unless --all is given.

Examples:
  dbcforge dump Spell.dbc --build 12340 --limit 20
  dbcforge dump Item.dbc --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		f, err := loadFile(rt, args[0], newObserver(cmd))
		if err != nil {
			return err
		}
		return writeDump(cmd.OutOrStdout(), f, dumpOptions{all: all, limit: limit})
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Bool("all", false, "Include hidden columns")
	dumpCmd.Flags().IntP("limit", "n", 0, "Print at most this many records (0 for all)")
	progressFlag(dumpCmd)
}

func writeDump(w io.Writer, f *dbc.File, opts dumpOptions) error {
	h := f.Header()
	s := f.Schema()
	fmt.Fprintf(w, "%s (build %s): %d records, %d fields, %d bytes per record, %d byte string block\n",
		f.Name(), s.Build, h.RecordCount, h.FieldCount, h.RecordSize, h.StringBlockSize)

	var columns []int
	for i, fd := range s.Fields {
		if opts.all || fd.Visible {
			columns = append(columns, i)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "#")
	for _, c := range columns {
		fmt.Fprintf(tw, "\t%s", s.FieldName(c))
	}
	fmt.Fprintln(tw)

	table := f.Table()
	records := opts.records
	if records == nil {
		records = make([]int, len(table))
		for i := range records {
			records[i] = i
		}
	}
	total := len(records)
	if opts.limit > 0 && opts.limit < len(records) {
		records = records[:opts.limit]
	}
	for _, i := range records {
		fmt.Fprintf(tw, "%d", i)
		for _, c := range columns {
			fmt.Fprintf(tw, "\t%s", table[i][c].Text())
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(records) < total {
		fmt.Fprintf(w, "... %d more records\n", total-len(records))
	}
	return nil
}
