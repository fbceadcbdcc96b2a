package sqlite

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v8"

	"github.com/glorpus-work/repodeps/internal/logger"
	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/snapshot"
)

// Branch describes one imported snapshot.
type Branch struct {
	Name          string    `json:"name" yaml:"name"`
	FormatVersion string    `json:"format_version" yaml:"format_version"`
	Packages      int       `json:"packages" yaml:"packages"`
	LoadedAt      time.Time `json:"loaded_at" yaml:"loaded_at"`
}

// Import replaces the content of snap's branch with snap, in one
// transaction. Builds no longer part of any branch are removed.
func (s *Store) Import(ctx context.Context, snap *snapshot.Snapshot) (err error) {
	start := time.Now()
	defer func() { observe("import", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errutils.Wrap(err, "starting import")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.exec(ctx, tx, s.dialect.Delete(s.layout.BranchPackages).Where(goqu.Ex{"branch": snap.Branch}).Prepared(true)); err != nil {
		return errutils.Wrap(err, "clearing branch")
	}

	for batch := range slices.Chunk(snap.Packages, batchSize) {
		if err = s.insertBatch(ctx, tx, snap.Branch, batch); err != nil {
			return err
		}
	}

	orphans := s.dialect.Delete(s.layout.Packages).
		Where(goqu.C("id").NotIn(s.dialect.From(s.layout.BranchPackages).Select("package_id"))).
		Prepared(true)
	if err = s.exec(ctx, tx, orphans); err != nil {
		return errutils.Wrap(err, "removing unreferenced packages")
	}

	if err = s.exec(ctx, tx, s.dialect.Delete(s.layout.Snapshots).Where(goqu.Ex{"branch": snap.Branch}).Prepared(true)); err != nil {
		return errutils.Wrap(err, "replacing snapshot record")
	}
	record := s.dialect.Insert(s.layout.Snapshots).Rows(goqu.Record{
		"branch":         snap.Branch,
		"format_version": snap.FormatVersion,
		"packages":       len(snap.Packages),
		"loaded_at":      time.Now().UTC().Format(time.RFC3339),
	}).Prepared(true)
	if err = s.exec(ctx, tx, record); err != nil {
		return errutils.Wrap(err, "replacing snapshot record")
	}

	if err = tx.Commit(); err != nil {
		return errutils.Wrap(err, "committing import")
	}
	importedPackages.WithLabelValues(snap.Branch).Add(float64(len(snap.Packages)))
	logger.Debug("imported snapshot", logger.Fields{
		"branch":   snap.Branch,
		"packages": len(snap.Packages),
		"elapsed":  time.Since(start).String(),
	})
	return nil
}

func (s *Store) insertBatch(ctx context.Context, tx *sql.Tx, branch string, batch []snapshot.Package) error {
	var (
		pkgs    []interface{}
		members []interface{}
		rels    []interface{}
	)
	for _, p := range batch {
		id := int64(uint64(p.Hash))
		pkgs = append(pkgs, goqu.Record{
			"id":      id,
			"name":    p.Name,
			"epoch":   int64(p.Epoch),
			"version": p.Version,
			"release": p.Release,
			"disttag": p.Disttag,
			"arch":    p.Arch,
		})
		members = append(members, goqu.Record{"branch": branch, "package_id": id})
		for seq, r := range p.Relations() {
			rels = append(rels, goqu.Record{
				"package_id": id,
				"kind":       int64(r.Kind),
				"seq":        seq,
				"name":       r.Name,
				"version":    r.Version,
				"flags":      int64(r.Flag),
			})
		}
	}

	if err := s.exec(ctx, tx, s.dialect.Insert(s.layout.Packages).Rows(pkgs...).OnConflict(goqu.DoNothing()).Prepared(true)); err != nil {
		return errutils.Wrap(err, "inserting packages")
	}
	if err := s.exec(ctx, tx, s.dialect.Insert(s.layout.BranchPackages).Rows(members...).OnConflict(goqu.DoNothing()).Prepared(true)); err != nil {
		return errutils.Wrap(err, "inserting branch membership")
	}
	// Relations are bound per row; keep each statement under the variable limit.
	for chunk := range slices.Chunk(rels, batchSize) {
		if err := s.exec(ctx, tx, s.dialect.Insert(s.layout.Relations).Rows(chunk...).OnConflict(goqu.DoNothing()).Prepared(true)); err != nil {
			return errutils.Wrap(err, "inserting relations")
		}
	}
	return nil
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, b sqlBuilder) error {
	q, args, err := b.ToSQL()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}

// Branches lists the imported snapshots, ordered by branch name.
func (s *Store) Branches(ctx context.Context) ([]Branch, error) {
	q, args, err := s.dialect.From(s.layout.Snapshots).
		Select("branch", "format_version", "packages", "loaded_at").
		Order(goqu.C("branch").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, errutils.Wrap(err, "building branches query")
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	observe("branches", start, err)
	if err != nil {
		return nil, errutils.Wrap(err, "querying branches")
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var (
			b      Branch
			loaded string
		)
		if err := rows.Scan(&b.Name, &b.FormatVersion, &b.Packages, &loaded); err != nil {
			return nil, errutils.Wrap(err, "scanning branch")
		}
		if b.LoadedAt, err = time.Parse(time.RFC3339, loaded); err != nil {
			return nil, errutils.Wrapf(err, "branch %s", b.Name)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
