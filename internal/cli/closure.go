package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repodeps/pkg/relation"
)

// NewClosureCmd creates the closure command.
func NewClosureCmd() *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "closure ID...",
		Short: "Compute the dependency closure of packages",
		Long: `Compute every package the given packages transitively require in the
configured branch and architectures. The given packages are part of the
result.

With --reverse the command lists the packages that transitively require
the given ones instead; the given packages are not part of that result.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClosure(cmd, args, reverse)
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "List packages depending on the arguments")

	return cmd
}

func runClosure(cmd *cobra.Command, args []string, reverse bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	seed, err := parseIDs(args)
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

	var set relation.IDSet
	if reverse {
		set, err = eng.WhatDepends(ctx, seed, cfg.Settings.Branch, cfg.Settings.Archs)
	} else {
		set, err = eng.ExpandClosure(ctx, seed, cfg.Settings.Branch, cfg.Settings.Archs)
	}
	if err != nil {
		return err
	}

	rows, err := describe(ctx, store, set.Sorted())
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), cfg, rows, func(w io.Writer) error {
		tw := newTabWriter(w)
		for _, r := range rows {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Label())
		}
		return tw.Flush()
	})
}
