package cli

import (
	"encoding/json"
	"io"
	"text/tabwriter"

	"github.com/glorpus-work/repodeps/pkg/config"
)

// render writes v as indented JSON when the configured output format asks
// for it and calls text otherwise.
func render(w io.Writer, cfg *config.Config, v any, text func(io.Writer) error) error {
	if cfg.Settings.OutputFormat == config.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
}
