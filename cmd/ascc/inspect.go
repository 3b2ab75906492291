package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/summary"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize an ASC export or a serialized experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := a.loadExperiment(cmd, args[0])
			if err != nil {
				return err
			}
			return writeInspect(cmd.OutOrStdout(), args[0], exp)
		},
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func writeInspect(w io.Writer, source string, exp *experiment.Experiment) error {
	fmt.Fprintf(w, "source:     %s\n", source)
	fmt.Fprintf(w, "recorded:   %s\n", formatTime(exp.Meta.RecordingTime))
	fmt.Fprintf(w, "preamble:   %d lines\n", len(exp.Meta.PreambleLines))
	fmt.Fprintf(w, "variables:  %s\n", strings.Join(exp.VariableLabels, ", "))
	fmt.Fprintf(w, "trials:     %d\n\n", len(exp.Trials))

	sums := summary.Summarize(exp)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIAL\tDURATION\tSAMPLES\tRAW\tEVENTS\tFIX\tSACC\tBLINK\tFRAMES\tTARGETS\tLEFT AREA\tRIGHT AREA\tMEAN FIX")
	for _, s := range sums {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			s.ID, formatStat(s.Duration), s.Samples, s.RawSamples, s.Events,
			s.Fixations, s.Saccades, s.Blinks, s.CameraFrames, s.Targets,
			formatStat(s.Left.MeanArea), formatStat(s.Right.MeanArea), formatStat(s.MeanFixation))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	tot := summary.Total(sums)
	_, err := fmt.Fprintf(w, "\ntotal: %d samples, %d events (%d fixations, %d saccades, %d blinks), median trial duration %s\n",
		tot.Samples, tot.Events, tot.Fixations, tot.Saccades, tot.Blinks, formatStat(tot.MedianDuration))
	return err
}
