package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/glorpus-work/repodeps/internal/logger"
	"github.com/glorpus-work/repodeps/pkg/config"
	"github.com/glorpus-work/repodeps/pkg/conflict"
	"github.com/glorpus-work/repodeps/pkg/engine"
	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/evr"
	"github.com/glorpus-work/repodeps/pkg/relation"
	"github.com/glorpus-work/repodeps/pkg/snapshot"
	"github.com/glorpus-work/repodeps/pkg/store/memory"
	"github.com/glorpus-work/repodeps/pkg/store/sqlite"
)

// These variables will be set by the main package
var (
	ConfigPath    *string
	DatabasePath  *string
	SnapshotPaths *[]string
	Branch        *string
	Archs         *[]string
	OutputFormat  *string
	Verbose       *bool
)

// loadConfig loads the configuration file and applies the global flags on
// top of it. It also configures the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if DatabasePath != nil && *DatabasePath != "" {
		cfg.Database = *DatabasePath
	}
	if Branch != nil && *Branch != "" {
		cfg.Settings.Branch = *Branch
	}
	if Archs != nil && len(*Archs) > 0 {
		cfg.Settings.Archs = slices.Clone(*Archs)
	}
	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig report a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// openStore returns the relation store the command runs against: an
// in-memory store when snapshots are given on the command line, the SQLite
// database otherwise. The returned function releases the store.
func openStore(ctx context.Context, cfg *config.Config) (relation.Store, func(), error) {
	if SnapshotPaths != nil && len(*SnapshotPaths) > 0 {
		snaps := make([]*snapshot.Snapshot, 0, len(*SnapshotPaths))
		for _, path := range *SnapshotPaths {
			snap, err := loadSnapshot(ctx, cfg, path)
			if err != nil {
				return nil, nil, err
			}
			snaps = append(snaps, snap)
		}
		store, err := memory.New(snaps...)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Using in-memory store", logger.Fields{"snapshots": len(snaps), "packages": store.Len()})
		return store, func() {}, nil
	}

	if cfg.Database == "" {
		return nil, nil, errutils.ErrNoStore
	}
	store, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close database", logger.Fields{"error": err})
		}
	}, nil
}

// loadSnapshot reads the snapshot at path. A snapshot that does not name
// its branch is taken to belong to the configured one.
func loadSnapshot(ctx context.Context, cfg *config.Config, path string) (*snapshot.Snapshot, error) {
	snap, err := snapshot.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if snap.Branch == "" {
		snap.Branch = cfg.Settings.Branch
	}
	return snap, nil
}

// newEngine wires an engine to store with the configured settings. Engine
// progress is logged at debug level.
func newEngine(cfg *config.Config, store relation.Store) *engine.Engine {
	e := engine.New(store)
	e.MaxClosureRounds = cfg.Settings.MaxClosureRounds
	e.TieBreak = cfg.TieBreak()
	e.Hooks.OnEvent = func(ev engine.Event) {
		logger.Debug(ev.Msg, logger.Fields{"phase": ev.Phase})
	}
	return e
}

// parseIDs parses package hashes given as arguments.
func parseIDs(args []string) ([]relation.PackageID, error) {
	ids := make([]relation.PackageID, 0, len(args))
	for _, arg := range args {
		id, err := relation.ParsePackageID(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid package id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePairs parses "id,id" arguments.
func parsePairs(args []string) ([]conflict.Pair, error) {
	out := make([]conflict.Pair, 0, len(args))
	for _, arg := range args {
		a, b, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("invalid package pair %q: expected ID,ID", arg)
		}
		ids, err := parseIDs([]string{a, b})
		if err != nil {
			return nil, err
		}
		out = append(out, conflict.Pair{A: ids[0], B: ids[1]})
	}
	return out, nil
}

// packageRow is a package as the commands print it.
type packageRow struct {
	ID   relation.PackageID `json:"id"`
	Name string             `json:"name,omitempty"`
	EVR  string             `json:"evr,omitempty"`
	Arch string             `json:"arch,omitempty"`
}

// Label renders the row as name-evr.arch, or the bare id for a package
// the store does not know.
func (p packageRow) Label() string {
	if p.Name == "" {
		return p.ID.String()
	}
	s := p.Name + "-" + p.EVR
	if p.Arch != "" {
		s += "." + p.Arch
	}
	return s
}

// describe looks up the version info of ids, preserving their order.
func describe(ctx context.Context, store relation.Store, ids []relation.PackageID) ([]packageRow, error) {
	infos, err := store.FetchVersionInfo(ctx, ids)
	if err != nil {
		return nil, err
	}
	rows := make([]packageRow, 0, len(ids))
	for _, id := range ids {
		row := packageRow{ID: id}
		if info, ok := infos[id]; ok {
			row.Name = info.Name
			row.EVR = evr.FromFields(info.Epoch, info.Version, info.Release, "").EVR()
			row.Arch = info.Arch
		}
		rows = append(rows, row)
	}
	return rows, nil
}
