/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/dbc"
	"github.com/ssargent/dbcforge/pkg/export"
	"github.com/ssargent/dbcforge/pkg/worker"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file.dbc>...",
	Short: "Convert tables to CSV, SQL, JSON, Parquet or SQLite",
	Long: `Convert one or more DBC tables to another format. Each input is written
to <out>/<table><ext>; inputs are processed concurrently.

Examples:
  dbcforge export Spell.dbc --build 12340 --format sql --out ./sql
  dbcforge export dbc/*.dbc --format sqlite --out ./sqlite`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("format")
		outDir, _ := cmd.Flags().GetString("out")
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}

		pool := worker.NewPool(rt.logger)
		written, err := runExport(cmd.Context(), rt, pool, args, format, outDir)
		for _, path := range written {
			cmd.Printf("Wrote %s\n", path)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", string(export.FormatCSV), "Output format: csv, sql, json, parquet or sqlite")
	exportCmd.Flags().StringP("out", "o", ".", "Output directory")
}

// runExport converts every path and returns the files written, in input
// order. Inputs that map to the same output file are written one at a time.
func runExport(ctx context.Context, rt *runtime, pool *worker.Pool, paths []string, format export.Format, outDir string) ([]string, error) {
	outputs := make([]string, len(paths))
	results := make([]<-chan error, len(paths))
	for i, path := range paths {
		out := filepath.Join(outDir, dbc.TableName(path)+format.Ext())
		outputs[i] = out
		results[i] = pool.Submit(ctx, out, func(ctx context.Context) error {
			return exportFile(rt, path, format, out)
		})
	}

	var written []string
	var errs []error
	for i, result := range results {
		if err := <-result; err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, outputs[i])
	}
	return written, errors.Join(errs...)
}

func exportFile(rt *runtime, path string, format export.Format, out string) error {
	f, err := loadFile(rt, path, nil)
	if err != nil {
		return err
	}

	d := export.Dataset{Name: f.Name(), Source: path, Schema: f.Schema(), Table: f.Table()}
	if err := export.WriteFile(out, format, d); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	return nil
}
