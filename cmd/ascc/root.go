package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/antonmeskildsen/tracker-tools/internal/codec"
	"github.com/antonmeskildsen/tracker-tools/internal/config"
	"github.com/antonmeskildsen/tracker-tools/internal/edf"
	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/fsutil"
	"github.com/antonmeskildsen/tracker-tools/internal/ingest"
	"github.com/antonmeskildsen/tracker-tools/internal/monitoring"
	"github.com/antonmeskildsen/tracker-tools/internal/version"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v    *viper.Viper
	fsys fsutil.FileSystem
	cfg  *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), fsys: fsutil.OSFileSystem{}}

	root := &cobra.Command{
		Use:          "ascc",
		Short:        "EyeLink ASC export converter",
		Long:         "ascc parses EyeLink ASC exports into an experiment tree of trials, samples and events.",
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Settings file (.json, .yaml or .yml)")
	pf.IntP("workers", "w", 0, "Classification workers (0 = one per CPU)")
	pf.Int("chunk-size", ingest.DefaultChunkSize, "Lines per classification work unit")
	pf.Bool("progress", false, "Report classification progress on stderr")
	pf.String("db", "", "Experiment store path (default "+config.DefaultDatabasePath+")")
	pf.String("edf2asc", "", "Converter run on .edf inputs (default "+edf.DefaultTool+" on PATH)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	_ = a.v.BindPFlag("config", pf.Lookup("config"))
	_ = a.v.BindPFlag("workers", pf.Lookup("workers"))
	_ = a.v.BindPFlag("chunk_size", pf.Lookup("chunk-size"))
	_ = a.v.BindPFlag("progress", pf.Lookup("progress"))
	_ = a.v.BindPFlag("database_path", pf.Lookup("db"))
	_ = a.v.BindPFlag("edf2asc", pf.Lookup("edf2asc"))
	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))

	a.v.SetEnvPrefix("ASCC")
	a.v.AutomaticEnv()

	root.AddCommand(
		a.convertCmd(),
		a.inspectCmd(),
		a.exportCmd(),
		a.plotCmd(),
		a.storeCmd(),
	)
	return root
}

// setup wires logging and resolves settings: file first, then flags and
// ASCC_ environment variables on top.
func (a *app) setup(cmd *cobra.Command) error {
	if a.v.GetBool("verbose") {
		monitoring.SetLogger(log.New(cmd.ErrOrStderr(), "", log.LstdFlags).Printf)
	} else {
		monitoring.SetLogger(nil)
	}

	cfg := &config.Config{}
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.LoadConfigFS(a.fsys, path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if a.v.IsSet("workers") {
		n := a.v.GetInt("workers")
		cfg.Workers = &n
	}
	if a.v.IsSet("chunk_size") {
		n := a.v.GetInt("chunk_size")
		cfg.ChunkSize = &n
	}
	if a.v.IsSet("progress") {
		b := a.v.GetBool("progress")
		cfg.Progress = &b
	}
	if a.v.IsSet("database_path") {
		s := a.v.GetString("database_path")
		cfg.DatabasePath = &s
	}
	if a.v.IsSet("edf2asc") {
		s := a.v.GetString("edf2asc")
		cfg.EDF2ASC = &s
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) ingestOptions(cmd *cobra.Command) ingest.Options {
	w := cmd.ErrOrStderr()
	return a.cfg.IngestOptions(func(done, total int) {
		fmt.Fprintf(w, "\rclassified %d/%d lines", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	})
}

// loadExperiment parses .asc inputs, converts .edf recordings to ASC first
// and decodes anything else by its extensions.
func (a *app) loadExperiment(cmd *cobra.Command, path string) (*experiment.Experiment, error) {
	if edf.IsEDF(path) {
		conv := &edf.Converter{Tool: a.cfg.GetEDF2ASC(), Runner: edf.ExecRunner{}, FS: a.fsys}
		asc, err := conv.Convert(cmd.Context(), path)
		if err != nil {
			return nil, err
		}
		return ingest.LoadFile(a.fsys, asc, a.ingestOptions(cmd))
	}
	if strings.EqualFold(filepath.Ext(path), ".asc") {
		return ingest.LoadFile(a.fsys, path, a.ingestOptions(cmd))
	}
	return codec.ReadFile(a.fsys, path)
}

// output opens path for writing, or stdout when path is empty or "-".
func (a *app) output(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := a.fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// closeOutput closes w and keeps the first of err and the close error.
func closeOutput(w io.Closer, err error) error {
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
