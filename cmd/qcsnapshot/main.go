package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qctracker/core/qc"
	"qctracker/infrastructure/config"
	"qctracker/infrastructure/shipments"
	"qctracker/infrastructure/sqlite"
	"qctracker/infrastructure/store"
	"qctracker/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	dbPath        string
	migrationsDir string
}

// workspace is an opened database with the store and repository over it.
type workspace struct {
	db    *sqlite.DB
	store *store.Store
	repo  *shipments.Repository
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "qcsnapshot",
		Short:        "Back up, restore and inspect the QC tracker store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default $SQLITE_PATH or qctracker.db)")
	root.PersistentFlags().StringVar(&opts.migrationsDir, "migrations", "", "migrations directory (default $MIGRATIONS_DIR, the repo copy, or the embedded set)")

	root.AddCommand(backupCmd(opts), restoreCmd(opts), listCmd(opts), showCmd(opts))
	return root
}

func backupCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of every store key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.db.Close()

			snapshot, err := ws.store.BackupAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), snapshot)
			} else if err := os.WriteFile(out, []byte(snapshot), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "digest: %s\n", color.New(color.FgCyan).Sprint(store.Digest(snapshot)))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the snapshot to this file instead of stdout")
	return cmd
}

func restoreCmd(opts *options) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Apply a snapshot written by backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			snapshot := strings.TrimSpace(string(raw))
			entries, err := store.ParseSnapshot(snapshot)
			if err != nil {
				return err
			}

			ws, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.db.Close()

			if err := ws.store.RestoreAll(cmd.Context(), snapshot); err != nil {
				return err
			}
			list, err := ws.repo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d keys, %d shipments (digest %s)\n",
				color.New(color.FgGreen).Sprint("restored"), len(entries), len(list), store.Digest(snapshot))
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "snapshot file to restore")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored shipments with their QC status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.db.Close()

			list, err := ws.repo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no shipments")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUPPLIER\tEXPECTED\tSTATUS\tPASS RATE\tNEXT")
			for _, s := range list {
				rate := "-"
				if s.Level2Data != nil {
					rate = qc.ComputeRates(*s.Level2Data).PassRateText() + "%"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Supplier, s.ExpectedDate, statusText(s.Status), rate, qc.NextAction(s))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			stats := qc.Summarize(list)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d total, %d pending, %d completed, %d with issues\n",
				stats.Total, stats.Pending, stats.Completed, stats.IssuesFound)
			return nil
		},
	}
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print one stored shipment as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.db.Close()

			s, ok, err := ws.repo.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("shipment %s not found", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s.Clone())
		},
	}
}

func statusText(status models.QCStatus) string {
	label := qc.StatusLabel(status)
	switch status {
	case models.StatusPending:
		return color.New(color.FgYellow).Sprint(label)
	case models.StatusLevel1Complete:
		return color.New(color.FgBlue).Sprint(label)
	case models.StatusLevel2Complete, models.StatusCompleted:
		return color.New(color.FgGreen).Sprint(label)
	default:
		return color.New(color.FgRed).Sprint(label)
	}
}

func open(ctx context.Context, opts *options) (*workspace, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = cfg.SQLitePath
	}
	migrationsDir := opts.migrationsDir
	if migrationsDir == "" {
		migrationsDir = cfg.MigrationsDir
	}
	if migrationsDir == "" {
		// Outside the repository this stays "" and selects the embedded set.
		migrationsDir, _ = resolveMigrationsDir()
	}

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	st := store.New(sqlite.NewKVBackend(db))
	return &workspace{db: db, store: st, repo: shipments.NewRepository(st)}, nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
