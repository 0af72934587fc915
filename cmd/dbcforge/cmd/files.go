/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcforge/pkg/dbc"
)

// timedObserver remembers how long the last operation took and, when
// progress is set, draws a one-line record counter on it.
type timedObserver struct {
	progress io.Writer
	counter  dbc.Observer
	elapsed  time.Duration
}

func newTimedObserver(progress io.Writer) *timedObserver {
	o := &timedObserver{progress: progress}
	if progress != nil {
		o.counter = dbc.NewProgressObserver(func(op dbc.Op, done, total int) {
			fmt.Fprintf(progress, "\r%s %d/%d", op, done, total)
		})
	}
	return o
}

func (o *timedObserver) Begin(op dbc.Op, total int) {
	if o.counter != nil {
		o.counter.Begin(op, total)
	}
}

func (o *timedObserver) Step(op dbc.Op, done int) {
	if o.counter != nil {
		o.counter.Step(op, done)
	}
}

func (o *timedObserver) End(op dbc.Op, elapsed time.Duration) {
	o.elapsed = elapsed
	if o.counter != nil {
		o.counter.End(op, elapsed)
		fmt.Fprintln(o.progress)
	}
}

func progressFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("progress", false, "Show record progress on stderr")
}

// newObserver honours --progress.
func newObserver(cmd *cobra.Command) *timedObserver {
	if show, _ := cmd.Flags().GetBool("progress"); show {
		return newTimedObserver(cmd.ErrOrStderr())
	}
	return newTimedObserver(nil)
}

// loadFile decodes path with the catalog schema for the configured build.
func loadFile(rt *runtime, path string, obs *timedObserver) (*dbc.File, error) {
	if obs == nil {
		obs = newTimedObserver(nil)
	}
	f := dbc.NewFile("", rt.config.DefaultBuild, dbc.WithLoader(rt.catalog), dbc.WithObserver(obs))
	if err := f.Load(path); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	h := f.Header()
	rt.logger.Info("table loaded",
		"file", path, "table", f.Name(), "build", f.Schema().Build,
		"records", h.RecordCount, "fields", h.FieldCount, "elapsed", obs.elapsed)
	return f, nil
}

// saveFile encodes f to path.
func saveFile(rt *runtime, f *dbc.File, path string, obs *timedObserver) error {
	if err := f.Save(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	h := f.Header()
	elapsed := time.Duration(0)
	if obs != nil {
		elapsed = obs.elapsed
	}
	rt.logger.Info("table saved",
		"file", path, "records", h.RecordCount, "string_block", h.StringBlockSize, "elapsed", elapsed)
	return nil
}
