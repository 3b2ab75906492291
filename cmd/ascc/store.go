package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/antonmeskildsen/tracker-tools/internal/codec"
	"github.com/antonmeskildsen/tracker-tools/internal/db"
)

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the experiment store",
		Long:  "Import experiments into a SQLite store and list, show, fetch or delete them. The store path comes from --db, ASCC_DATABASE_PATH or database_path in the settings file.",
	}
	cmd.AddCommand(
		a.storeImportCmd(),
		a.storeListCmd(),
		a.storeShowCmd(),
		a.storeGetCmd(),
		a.storeDeleteCmd(),
		a.storeMigrateCmd(),
	)
	return cmd
}

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(fn func(*db.DB) error) error {
	store, err := db.Open(a.cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid experiment id %q: %w", s, err)
	}
	return id, nil
}

func (a *app) storeImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Parse and store one or more experiments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *db.DB) error {
				for _, path := range args {
					exp, err := a.loadExperiment(cmd, path)
					if err != nil {
						return err
					}
					id, err := store.SaveExperiment(cmd.Context(), path, exp)
					if err != nil {
						return fmt.Errorf("store %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, path)
				}
				return nil
			})
		},
	}
}

func formatImported(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func (a *app) storeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *db.DB) error {
				recs, err := store.ListExperiments(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSOURCE\tRECORDED\tIMPORTED\tTRIALS")
				for _, r := range recs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
						r.ID, r.Source, formatTime(r.RecordingTime), formatImported(r.ImportedAt), r.TrialCount)
				}
				return tw.Flush()
			})
		},
	}
}

func optionalArea(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func (a *app) storeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored experiment and its trial summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *db.DB) error {
				rec, err := store.Experiment(cmd.Context(), id)
				if err != nil {
					return err
				}
				trials, err := store.Trials(cmd.Context(), id)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "id:         %s\n", rec.ID)
				fmt.Fprintf(w, "source:     %s\n", rec.Source)
				fmt.Fprintf(w, "recorded:   %s\n", formatTime(rec.RecordingTime))
				fmt.Fprintf(w, "imported:   %s\n", formatImported(rec.ImportedAt))
				fmt.Fprintf(w, "variables:  %s\n", strings.Join(rec.VariableLabels, ", "))
				fmt.Fprintf(w, "trials:     %d\n\n", rec.TrialCount)

				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TRIAL\tSTART\tEND\tSAMPLES\tRAW\tEVENTS\tFIX\tSACC\tBLINK\tFRAMES\tTARGETS\tLEFT AREA\tRIGHT AREA")
				for _, t := range trials {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
						t.TrialID, t.Start, t.End, t.Samples, t.RawSamples, t.Events,
						t.Fixations, t.Saccades, t.Blinks, t.CameraFrames, t.Targets,
						optionalArea(t.MeanLeftArea), optionalArea(t.MeanRightArea))
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) storeGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Write a stored experiment to a file",
		Long:  "Write a stored experiment to --output. The format and compression follow its extensions, e.g. out.json.gz.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("output")
			return a.withStore(func(store *db.DB) error {
				exp, err := store.LoadExperiment(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := codec.WriteFile(a.fsys, out, exp); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d trials)\n", out, len(exp.Trials))
				return nil
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) storeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored experiments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, len(args))
			for i, s := range args {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			return a.withStore(func(store *db.DB) error {
				for _, id := range ids {
					if err := store.DeleteExperiment(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func (a *app) storeMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <status|up|down|force VERSION>",
		Short: "Inspect or change the store schema version",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.OpenDB(a.cfg.GetDatabasePath())
			if err != nil {
				return err
			}
			defer store.Close()
			return runMigrate(cmd, store, args)
		},
	}
}

func runMigrate(cmd *cobra.Command, store *db.DB, args []string) error {
	migrations := db.Migrations()
	w := cmd.OutOrStdout()

	switch args[0] {
	case "status":
	case "up":
		if err := store.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(migrations); err != nil {
			return err
		}
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: ascc store migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := store.MigrateForce(migrations, version); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}

	version, dirty, err := store.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "schema version %d", version)
	if dirty {
		fmt.Fprint(w, " (dirty)")
	}
	fmt.Fprintln(w)
	return nil
}
