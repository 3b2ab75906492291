package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antonmeskildsen/tracker-tools/internal/codec"
)

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in.asc|in.edf>",
		Short: "Convert an ASC export into a serialized experiment",
		Long: "Parse an ASC export and write the experiment tree. EDF recordings are converted " +
			"with edf2asc first, leaving the .asc next to them. The format and compression " +
			"follow the extensions of --output (e.g. out.cbor.zst); without --output the file " +
			"is written next to the input using --format and --compression or the configured defaults.",
		Args: cobra.ExactArgs(1),
		RunE: a.runConvert,
	}
	cmd.Flags().StringP("output", "o", "", "Output file")
	cmd.Flags().String("format", "", "Output format without --output (json, cbor, proto)")
	cmd.Flags().String("compression", "", "Output compression without --output (none, gzip, zstd)")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	in := args[0]
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		var err error
		if out, err = a.defaultOutput(cmd, in); err != nil {
			return err
		}
	} else if _, _, err := codec.DetectFile(out); err != nil {
		return err
	}

	exp, err := a.loadExperiment(cmd, in)
	if err != nil {
		return err
	}
	if err := codec.WriteFile(a.fsys, out, exp); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d trials)\n", out, len(exp.Trials))
	return nil
}

func (a *app) defaultOutput(cmd *cobra.Command, in string) (string, error) {
	f, c := a.cfg.GetFormat(), a.cfg.GetCompression()
	if s, _ := cmd.Flags().GetString("format"); s != "" {
		parsed, err := codec.ParseFormat(s)
		if err != nil {
			return "", err
		}
		f = parsed
	}
	if cmd.Flags().Changed("compression") {
		s, _ := cmd.Flags().GetString("compression")
		parsed, err := codec.ParseCompression(s)
		if err != nil {
			return "", err
		}
		c = parsed
	}
	return codec.FileName(strings.TrimSuffix(in, filepath.Ext(in)), f, c), nil
}
