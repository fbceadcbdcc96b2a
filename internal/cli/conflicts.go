package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repodeps/pkg/conflict"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// NewConflictsCmd creates the conflicts command.
func NewConflictsCmd() *cobra.Command {
	var (
		set     bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "conflicts ID,ID... | --set ID...",
		Short: "Find conflicting packages",
		Long: `Check package pairs for conflicts.

Each argument is a pair of package ids separated by a comma. A pair
conflicts when either package declares a Conflicts or Obsoletes relation
matched by something the other provides.

With --set the arguments are package ids: their dependency closure in the
configured branch is computed and every conflicting pair inside it is
reported.`,
		Example: `  repodeps conflicts 102,103 104,105
  repodeps conflicts --set 104 --branch p10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConflicts(cmd, args, set, explain)
		},
	}

	cmd.Flags().BoolVar(&set, "set", false, "Treat arguments as a package set and check its closure")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the relations behind each conflict")

	return cmd
}

func runConflicts(cmd *cobra.Command, args []string, set, explain bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, release, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()
	eng := newEngine(cfg, store)

	var findings []conflict.Finding
	if set {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		findings, err = eng.SetConflicts(ctx, ids, cfg.Settings.Branch, cfg.Settings.Archs)
		if err != nil {
			return err
		}
	} else {
		pairs, err := parsePairs(args)
		if err != nil {
			return err
		}
		if !explain {
			found, err := eng.FindConflicts(ctx, pairs)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg, found, func(w io.Writer) error {
				return printPairs(w, found)
			})
		}
		findings, err = eng.ExplainConflicts(ctx, pairs)
		if err != nil {
			return err
		}
	}

	return render(cmd.OutOrStdout(), cfg, findings, func(w io.Writer) error {
		return printFindings(ctx, w, store, findings)
	})
}

func printPairs(w io.Writer, pairs []conflict.Pair) error {
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.A, p.B); err != nil {
			return err
		}
	}
	return nil
}

func printFindings(ctx context.Context, w io.Writer, store relation.Store, findings []conflict.Finding) error {
	if len(findings) == 0 {
		_, err := fmt.Fprintln(w, "No conflicts found")
		return err
	}

	var ids []relation.PackageID
	for _, f := range findings {
		ids = append(ids, f.Declarer, f.Target)
	}
	rows, err := describe(ctx, store, ids)
	if err != nil {
		return err
	}

	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "DECLARER\tRELATION\tTARGET\tPROVIDES")
	for i, f := range findings {
		_, _ = fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n",
			rows[2*i].Label(), f.Conflict.Kind, f.Conflict, rows[2*i+1].Label(), f.Provide)
	}
	return tw.Flush()
}
