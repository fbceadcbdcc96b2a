package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics dumps the default Prometheus registry to path in the text
// exposition format, for pickup by a node exporter textfile collector.
// An empty path is a no-op.
func WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
