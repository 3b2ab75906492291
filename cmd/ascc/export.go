package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/export"
)

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write one table of an experiment as CSV",
		Long: "Write one table of an ASC export or serialized experiment as CSV. Tables: " +
			strings.Join(export.TableNames(), ", ") + ".",
		Args: cobra.ExactArgs(1),
		RunE: a.runExport,
	}
	cmd.Flags().StringP("table", "t", export.Samples.String(), "Table to write")
	cmd.Flags().Uint32("trial", 0, "Only export the trial with this ID")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	return cmd
}

// selectTrial narrows exp to the --trial flag when it was given.
func selectTrial(cmd *cobra.Command, exp *experiment.Experiment) (*experiment.Experiment, error) {
	if !cmd.Flags().Changed("trial") {
		return exp, nil
	}
	id, _ := cmd.Flags().GetUint32("trial")
	return export.SelectTrial(exp, id)
}

func (a *app) runExport(cmd *cobra.Command, args []string) (err error) {
	name, _ := cmd.Flags().GetString("table")
	table, err := export.ParseTable(name)
	if err != nil {
		return err
	}

	exp, err := a.loadExperiment(cmd, args[0])
	if err != nil {
		return err
	}
	if exp, err = selectTrial(cmd, exp); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("output")
	w, err := a.output(cmd, path)
	if err != nil {
		return err
	}
	defer func() { err = closeOutput(w, err) }()

	if err := export.Write(w, exp, table); err != nil {
		return fmt.Errorf("export %s: %w", table, err)
	}
	return nil
}
