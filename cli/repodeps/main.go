package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repodeps/internal/cli"
)

var (
	configPath    string
	databasePath  string
	snapshotPaths []string
	branch        string
	archs         []string
	outputFormat  string
	verbose       bool
	metricsFile   string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := execute(ctx, rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

// execute runs cmd and then writes the metrics file, also when the command
// failed.
func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, cli.WriteMetrics(metricsFile))
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repodeps",
		Short: "Dependency and conflict analysis for RPM repositories",
		Long: `repodeps answers dependency questions about ALT Linux style RPM
repositories:
- Versions: compare epoch:version-release:disttag strings
- Conflicts: find packages that cannot be installed together
- Closures: what a package pulls in, and what pulls it in
- Build order: sort packages so dependencies are built first`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&databasePath, "db", "", "relation database path (default: from config)")
	cmd.PersistentFlags().StringSliceVar(&snapshotPaths, "snapshot", nil, "query these snapshot files instead of the database")
	cmd.PersistentFlags().StringVarP(&branch, "branch", "b", "", "repository branch (default: from config)")
	cmd.PersistentFlags().StringSliceVarP(&archs, "arch", "a", nil, "architectures to consider (default: from config)")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text, json)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	// Set up CLI package variables
	cli.ConfigPath = &configPath
	cli.DatabasePath = &databasePath
	cli.SnapshotPaths = &snapshotPaths
	cli.Branch = &branch
	cli.Archs = &archs
	cli.OutputFormat = &outputFormat
	cli.Verbose = &verbose

	// Add subcommands
	cmd.AddCommand(
		cli.NewCompareCmd(),
		cli.NewConflictsCmd(),
		cli.NewClosureCmd(),
		cli.NewOrderCmd(),
		cli.NewLoadCmd(),
		cli.NewBranchesCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
