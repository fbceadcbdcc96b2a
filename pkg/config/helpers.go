package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys lists the configuration keys accepted by GetValue and SetValue, in
// display order.
var Keys = []string{
	"database",
	"branch",
	"archs",
	"max_closure_rounds",
	"cycle_tie_break",
	"output_format",
	"log_level",
}

// SetValue sets a configuration value by key. Archs take a comma-separated
// list; an empty value clears the filter. The result is not validated.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "database":
		c.Database = value
	case "branch":
		c.Settings.Branch = value
	case "archs":
		c.Settings.Archs = splitList(value)
	case "max_closure_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.MaxClosureRounds = n
	case "cycle_tie_break":
		c.Settings.CycleTieBreak = value
	case "output_format":
		c.Settings.OutputFormat = value
	case "log_level":
		c.Settings.LogLevel = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of key rendered as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "database":
		return c.Database, nil
	case "branch":
		return c.Settings.Branch, nil
	case "archs":
		return strings.Join(c.Settings.Archs, ","), nil
	case "max_closure_rounds":
		return strconv.Itoa(c.Settings.MaxClosureRounds), nil
	case "cycle_tie_break":
		return c.Settings.CycleTieBreak, nil
	case "output_format":
		return c.Settings.OutputFormat, nil
	case "log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// ToMap returns every configuration key with its value.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(Keys))
	for _, key := range Keys {
		// Keys only holds names GetValue knows.
		result[key], _ = c.GetValue(key)
	}
	return result
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
