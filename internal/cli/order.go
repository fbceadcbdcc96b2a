package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/repodeps/internal/logger"
	"github.com/glorpus-work/repodeps/pkg/buildorder"
	"github.com/glorpus-work/repodeps/pkg/errutils"
)

// NewOrderCmd creates the order command.
func NewOrderCmd() *cobra.Command {
	var (
		depsFile string
		tieBreak string
	)

	cmd := &cobra.Command{
		Use:   "order [ID...] | --deps FILE",
		Short: "Compute a build order",
		Long: `Compute an order in which packages can be built so that every package
comes after its dependencies.

With --deps the graph is read from a YAML or JSON file mapping package
names to the names they depend on. Otherwise the arguments are package ids:
their closure in the configured branch is computed and ordered.

Dependency cycles are broken and reported on stderr; the broken edges are
part of the JSON output.`,
		Example: `  repodeps order --deps deps.yaml
  repodeps order 104 --tie-break lexical --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, args, depsFile, tieBreak)
		},
	}

	cmd.Flags().StringVar(&depsFile, "deps", "", "Read the dependency graph from FILE")
	cmd.Flags().StringVar(&tieBreak, "tie-break", "", "Cycle tie-break policy (size, lexical)")

	return cmd
}

func runOrder(cmd *cobra.Command, args []string, depsFile, tieBreak string) error {
	if (depsFile == "") == (len(args) == 0) {
		return fmt.Errorf("either --deps or package ids are required, not both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if tieBreak != "" {
		if _, err := buildorder.ParseTieBreak(tieBreak); err != nil {
			return err
		}
		cfg.Settings.CycleTieBreak = tieBreak
	}

	var result buildorder.Result
	if depsFile != "" {
		deps, err := readDeps(depsFile)
		if err != nil {
			return err
		}
		result = newEngine(cfg, nil).SortBuildOrder(deps)
	} else {
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
		result, err = newEngine(cfg, store).BuildOrderFor(ctx, seed, cfg.Settings.Branch, cfg.Settings.Archs)
		if err != nil {
			return err
		}
	}

	for _, c := range result.Cycles {
		logger.Warn("Broke dependency cycle", logger.Fields{"members": c.Members, "edge": c.Broken.String()})
	}
	return render(cmd.OutOrStdout(), cfg, result, func(w io.Writer) error {
		for _, name := range result.Order {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// readDeps reads a name to dependency names map.
func readDeps(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to open dependency graph %s", path)
	}
	defer func() { _ = f.Close() }()

	deps := map[string][]string{}
	if err := yaml.NewDecoder(f).Decode(&deps); err != nil && !errors.Is(err, io.EOF) {
		return nil, errutils.Wrapf(err, "failed to parse dependency graph %s", path)
	}
	return deps, nil
}
