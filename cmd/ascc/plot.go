package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/plot"
)

func (a *app) plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <file>",
		Short: "Render a quick-look chart of one trial",
		Long: "Render the gaze scatter of a trial as an image (.png, .svg, .pdf) or its gaze " +
			"timeline as an interactive HTML page (.html), chosen by the extension of --output.",
		Args: cobra.ExactArgs(1),
		RunE: a.runPlot,
	}
	cmd.Flags().Uint32("trial", 0, "Trial ID to plot (default first trial)")
	cmd.Flags().StringP("output", "o", "", "Output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func pickTrial(cmd *cobra.Command, exp *experiment.Experiment) (*experiment.Trial, error) {
	if !cmd.Flags().Changed("trial") {
		if len(exp.Trials) == 0 {
			return nil, fmt.Errorf("experiment has no trials")
		}
		return &exp.Trials[0], nil
	}
	id, _ := cmd.Flags().GetUint32("trial")
	for i := range exp.Trials {
		if exp.Trials[i].ID == id {
			return &exp.Trials[i], nil
		}
	}
	return nil, fmt.Errorf("trial %d not found", id)
}

func (a *app) runPlot(cmd *cobra.Command, args []string) (err error) {
	path, _ := cmd.Flags().GetString("output")
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return fmt.Errorf("cannot infer chart format of %s", path)
	}

	exp, err := a.loadExperiment(cmd, args[0])
	if err != nil {
		return err
	}
	t, err := pickTrial(cmd, exp)
	if err != nil {
		return err
	}

	w, err := a.output(cmd, path)
	if err != nil {
		return err
	}
	defer func() { err = closeOutput(w, err) }()

	if ext == "html" {
		err = plot.WriteTimeline(w, t)
	} else {
		err = plot.WriteGaze(w, t, ext)
	}
	if err != nil {
		return fmt.Errorf("plot trial %d: %w", t.ID, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
