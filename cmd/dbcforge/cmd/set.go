/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <file.dbc> <record> <field> <value>",
	Short: "Change one value in a table",
	Long: `Change one value and write the table back. The field is a column index
or name. Float columns also accept a raw bit pattern such as 0x7FC00000.

Examples:
  dbcforge set Spell.dbc 0 Name "Fireball" --build 12340
  dbcforge set Spell.dbc 3 7 -1 --out Spell.new.dbc`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		record, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0]
		}

		previous, current, err := runSet(rt, args[0], out, record, args[2], args[3])
		if err != nil {
			return err
		}
		cmd.Printf("record %d %s: %s -> %s\n", record, args[2], previous, current)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().StringP("out", "o", "", "Write to this file instead of the input")
}

// runSet loads in, changes one field and saves to out. It returns the old and
// new value as text.
func runSet(rt *runtime, in, out string, record int, field, value string) (string, string, error) {
	obs := newTimedObserver(nil)
	f, err := loadFile(rt, in, obs)
	if err != nil {
		return "", "", err
	}

	s := f.Schema()
	index, err := s.FieldIndex(field)
	if err != nil {
		return "", "", err
	}

	table := f.Table()
	var previous string
	if record >= 0 && record < len(table) {
		previous = table[record][index].Text()
	}
	if err := table.SetText(s, record, index, value); err != nil {
		return "", "", err
	}

	if err := saveFile(rt, f, out, obs); err != nil {
		return "", "", err
	}
	return previous, table[record][index].Text(), nil
}
