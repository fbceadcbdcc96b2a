package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repodeps/pkg/engine"
)

// Number of arguments expected by the compare command.
const compareArgs = 2

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare A B",
		Short: "Compare two version strings",
		Long: `Compare two [epoch:]version[-release][:disttag] strings.

Prints -1, 0 or 1 when A sorts before, equal to or after B. A release or
disttag missing on either side is not compared.`,
		Example: `  repodeps compare 1:2.0-alt1 2.0-alt2
  repodeps compare 9.6p1 9.6`,
		Args: cobra.ExactArgs(compareArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runCompare(cmd *cobra.Command, a, b string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := engine.CompareVersions(a, b)
	if err != nil {
		return err
	}

	out := struct {
		A      string `json:"a"`
		B      string `json:"b"`
		Result int    `json:"result"`
	}{a, b, result}
	return render(cmd.OutOrStdout(), cfg, out, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, result)
		return err
	})
}
