package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repodeps/internal/logger"
	"github.com/glorpus-work/repodeps/pkg/fsutil"
	"github.com/glorpus-work/repodeps/pkg/store/sqlite"
)

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load SNAPSHOT...",
		Short: "Import repository snapshots into the database",
		Long: `Import repository snapshots into the relation database.

Each snapshot replaces the packages of its branch. Snapshots may be
compressed with gzip, xz or zstd. A snapshot without a branch is imported
into the configured one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLoad,
	}

	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if err := fsutil.EnsureFileDir(cfg.Database); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, path := range args {
		logger.Info("Reading snapshot", logger.Fields{"path": path, "database": cfg.Database})
		snap, err := loadSnapshot(ctx, cfg, path)
		if err != nil {
			return err
		}
		if err := store.Import(ctx, snap); err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		logger.Success("Snapshot imported", logger.Fields{"path": path, "branch": snap.Branch, "packages": len(snap.Packages)})
	}
	return nil
}

// NewBranchesCmd creates the branches command.
func NewBranchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List imported branches",
		Long:  "List the branches stored in the relation database with their package counts",
		Args:  cobra.NoArgs,
		RunE:  runBranches,
	}

	return cmd
}

func runBranches(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	branches, err := store.Branches(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), cfg, branches, func(w io.Writer) error {
		if len(branches) == 0 {
			_, err := fmt.Fprintln(w, "No branches imported")
			return err
		}
		tw := newTabWriter(w)
		_, _ = fmt.Fprintln(tw, "BRANCH\tPACKAGES\tFORMAT\tLOADED")
		for _, b := range branches {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b.Name, b.Packages, b.FormatVersion, b.LoadedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}
