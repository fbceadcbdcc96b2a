// Package errutils defines the sentinel errors shared by repodeps packages and
// small helpers for wrapping them with context.
//
// Callers compare against the sentinels with errors.Is; the wrapping helpers
// always use %w so the sentinel survives any number of layers.
package errutils

import (
	"fmt"
)

// Engine errors.
var (
	// ErrMalformedVersion is returned when a version string has no extractable
	// version component or a non-numeric epoch.
	ErrMalformedVersion = fmt.Errorf("malformed version string")

	// ErrInconsistentRelation is returned when a relation record or a pair
	// references a package that is not part of the supplied index.
	ErrInconsistentRelation = fmt.Errorf("inconsistent relation input")

	// ErrClosureRoundLimit is returned when a closure expansion needs more
	// rounds than the caller allowed.
	ErrClosureRoundLimit = fmt.Errorf("closure round limit exceeded")

	// ErrUnknownRelationKind is returned when a relation kind string cannot be mapped.
	ErrUnknownRelationKind = fmt.Errorf("unknown relation kind")

	// ErrUnknownFlag is returned when a comparison operator cannot be mapped.
	ErrUnknownFlag = fmt.Errorf("unknown relation flag")
)

// Snapshot and store errors.
var (
	// ErrUnsupportedSnapshot is returned when a snapshot declares a format version
	// outside the supported range.
	ErrUnsupportedSnapshot = fmt.Errorf("unsupported snapshot format")

	// ErrSnapshotParse is returned when a snapshot cannot be decoded.
	ErrSnapshotParse = fmt.Errorf("failed to parse snapshot")

	// ErrNoStore is returned when neither a database nor a snapshot is configured.
	ErrNoStore = fmt.Errorf("no relation store configured (use --db or --snapshot)")
)

// Config errors are related to configuration file operations and validation.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// ErrConfigMarshal is returned when marshaling the config to YAML fails.
	ErrConfigMarshal = fmt.Errorf("failed to marshal config to YAML")

	// ErrInvalidOutputFormat is returned when an invalid output format is specified.
	ErrInvalidOutputFormat = fmt.Errorf("invalid output format")

	// ErrInvalidLogLevel is returned when an invalid log level is specified.
	ErrInvalidLogLevel = fmt.Errorf("invalid log level")

	// ErrInvalidTieBreak is returned when the cycle tie-break policy is unknown.
	ErrInvalidTieBreak = fmt.Errorf("invalid cycle tie-break policy")

	// ErrNegativeRounds is returned when max_closure_rounds is negative.
	ErrNegativeRounds = fmt.Errorf("max_closure_rounds cannot be negative")

	// ErrEmptyBranch is returned when no default branch is configured.
	ErrEmptyBranch = fmt.Errorf("branch cannot be empty")
)

// Wrap wraps an error with additional context.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := store.FetchRelations(ctx, ids, kinds); err != nil {
//	    return errutils.Wrap(err, "failed to fetch relations")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrMalformedVersionWithInput creates an error naming the offending version string.
func ErrMalformedVersionWithInput(raw, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrMalformedVersion, raw, reason)
}

// ErrInconsistentRelationWithPackage creates an error naming the missing package.
func ErrInconsistentRelationWithPackage(id fmt.Stringer) error {
	return fmt.Errorf("%w: package %s is not in the index", ErrInconsistentRelation, id)
}

// ErrClosureRoundLimitWithRounds creates an error carrying the configured bound.
func ErrClosureRoundLimitWithRounds(limit int) error {
	return fmt.Errorf("%w: stopped after %d rounds", ErrClosureRoundLimit, limit)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}

// ErrInvalidTieBreakWithDetails is a helper to create a wrapped error with the invalid policy and valid options.
func ErrInvalidTieBreakWithDetails(policy string) error {
	return fmt.Errorf("%w: '%s', must be one of: size, lexical", ErrInvalidTieBreak, policy)
}

// ErrUnsupportedSnapshotWithVersion creates an error naming the rejected format version.
func ErrUnsupportedSnapshotWithVersion(v, constraint string) error {
	return fmt.Errorf("%w: format_version %q does not satisfy %q", ErrUnsupportedSnapshot, v, constraint)
}
