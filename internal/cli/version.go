package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repodeps/pkg/snapshot"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for repodeps",
		Run:   runVersion,
	}

	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "repodeps version %s\n", Version)
	_, _ = fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(w, "Git commit: %s\n", GitCommit)
	_, _ = fmt.Fprintf(w, "Snapshot formats: %s\n", snapshot.SupportedFormats)
	if info, ok := debug.ReadBuildInfo(); ok {
		_, _ = fmt.Fprintf(w, "Go version: %s\n", info.GoVersion)
	}
}
