package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/vehicle-select/engine/catalog"
)

func newDiffCommand(a *app) *cobra.Command {
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show a unified diff between two catalog files",
		Long: `Diff compares two catalog files, JSON or YAML in any combination, and
prints a unified diff of their canonical JSON form.

With --exit-code the command exits with code 4 when the catalogs differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldCat, err := readCatalog(args[0])
			if err != nil {
				return err
			}
			newCat, err := readCatalog(args[1])
			if err != nil {
				return err
			}
			res, err := catalog.Diff(oldCat, newCat, args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.HasDifferences {
				fmt.Fprintln(out, "No differences found.")
				return nil
			}
			fmt.Fprint(out, res.Unified)
			a.log.Debug("catalogs differ", "old", args[0], "new", args[1])
			if exitCode {
				return &ExitError{Code: exitDiff, Err: fmt.Errorf("catalogs differ")}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit with code 4 when catalogs differ")
	return cmd
}
