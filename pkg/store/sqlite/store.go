// Package sqlite implements relation.Store on a SQLite database.
//
// Queries are built with goqu in its sqlite3 dialect and run through the
// modernc.org/sqlite driver. Package ids are unsigned header hashes; they
// are stored bit-for-bit in signed INTEGER columns.
package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/sqlite3" // register the sqlite3 dialect
	_ "modernc.org/sqlite"                            // register the sqlite driver

	"github.com/glorpus-work/repodeps/internal/logger"
	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// batchSize bounds the number of values bound to one statement.
const batchSize = 500

// Store is a relation store backed by a SQLite file. It is safe for
// concurrent use.
type Store struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	layout  Layout
}

var _ relation.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	u := url.URL{
		Scheme: `file`,
		Opaque: path,
		RawQuery: url.Values{
			"_pragma": {
				"foreign_keys(1)",
				"busy_timeout(5000)",
				"journal_mode(WAL)",
			},
		}.Encode(),
	}
	db, err := sql.Open(`sqlite`, u.String())
	if err != nil {
		return nil, errutils.Wrap(err, "opening database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errutils.Wrapf(err, "opening database %s", path)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, errutils.Wrap(err, "applying schema")
	}
	logger.Debug("opened relation store", logger.Fields{"path": path})

	return &Store{db: db, dialect: goqu.Dialect("sqlite3"), layout: Schema}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchRelations implements relation.Store.
func (s *Store) FetchRelations(ctx context.Context, ids []relation.PackageID, kinds []relation.Kind) ([]relation.Relation, error) {
	if len(ids) == 0 || len(kinds) == 0 {
		return nil, nil
	}
	ks := make([]int64, 0, len(kinds))
	for _, k := range kinds {
		ks = append(ks, int64(k))
	}

	var out []relation.Relation
	for chunk := range slices.Chunk(ids, batchSize) {
		q, args, err := s.dialect.From(s.layout.Relations).
			Select("package_id", "kind", "name", "version", "flags").
			Where(goqu.Ex{"package_id": dbIDs(chunk), "kind": ks}).
			Order(goqu.C("package_id").Asc(), goqu.C("kind").Asc(), goqu.C("seq").Asc()).
			Prepared(true).ToSQL()
		if err != nil {
			return nil, errutils.Wrap(err, "building relations query")
		}

		start := time.Now()
		rels, err := s.queryRelations(ctx, q, args)
		observe("fetchRelations", start, err)
		if err != nil {
			return nil, err
		}
		out = append(out, rels...)
	}
	return out, nil
}

func (s *Store) queryRelations(ctx context.Context, q string, args []interface{}) ([]relation.Relation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errutils.Wrap(err, "querying relations")
	}
	defer rows.Close()

	var out []relation.Relation
	for rows.Next() {
		var (
			id    int64
			kind  int64
			flags int64
			r     relation.Relation
		)
		if err := rows.Scan(&id, &kind, &r.Name, &r.Version, &flags); err != nil {
			return nil, errutils.Wrap(err, "scanning relation")
		}
		r.Owner = relation.PackageID(uint64(id))
		r.Kind = relation.Kind(kind)
		r.Flag = relation.Flag(uint32(flags))
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchVersionInfo implements relation.Store.
func (s *Store) FetchVersionInfo(ctx context.Context, ids []relation.PackageID) (map[relation.PackageID]relation.VersionInfo, error) {
	out := make(map[relation.PackageID]relation.VersionInfo, len(ids))
	for chunk := range slices.Chunk(ids, batchSize) {
		q, args, err := s.dialect.From(goqu.T(s.layout.Packages).As("p")).
			Select(s.layout.projection("p")...).
			Where(goqu.Ex{"p.id": dbIDs(chunk)}).
			Prepared(true).ToSQL()
		if err != nil {
			return nil, errutils.Wrap(err, "building version info query")
		}

		start := time.Now()
		err = s.queryVersionInfo(ctx, q, args, out)
		observe("fetchVersionInfo", start, err)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) queryVersionInfo(ctx context.Context, q string, args []interface{}, out map[relation.PackageID]relation.VersionInfo) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return errutils.Wrap(err, "querying packages")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			epoch int64
			info  relation.VersionInfo
		)
		if err := rows.Scan(&id, &info.Name, &epoch, &info.Version, &info.Release, &info.Disttag, &info.Arch); err != nil {
			return errutils.Wrap(err, "scanning package")
		}
		info.Epoch = uint64(epoch)
		out[relation.PackageID(uint64(id))] = info
	}
	return rows.Err()
}

// ResolveProvides implements relation.Store. An empty branch or arch list
// matches everything. Names nothing provides are absent from the result.
func (s *Store) ResolveProvides(ctx context.Context, names []string, branch string, archs []string) (map[string][]relation.PackageID, error) {
	return s.resolve(ctx, "resolveProvides", relation.Provide, names, branch, archs)
}

// ResolveRequirers implements relation.Store with the same filtering as
// ResolveProvides.
func (s *Store) ResolveRequirers(ctx context.Context, names []string, branch string, archs []string) (map[string][]relation.PackageID, error) {
	return s.resolve(ctx, "resolveRequirers", relation.Require, names, branch, archs)
}

func (s *Store) resolve(ctx context.Context, query string, kind relation.Kind, names []string, branch string, archs []string) (map[string][]relation.PackageID, error) {
	out := make(map[string][]relation.PackageID, len(names))
	for chunk := range slices.Chunk(names, batchSize) {
		where := goqu.Ex{"r.kind": int64(kind), "r.name": chunk}
		ds := s.dialect.From(goqu.T(s.layout.Relations).As("r"))
		if len(archs) > 0 {
			ds = ds.Join(goqu.T(s.layout.Packages).As("p"), goqu.On(goqu.Ex{"p.id": goqu.I("r.package_id")}))
			where["p.arch"] = archs
		}
		if branch != "" {
			ds = ds.Join(goqu.T(s.layout.BranchPackages).As("b"), goqu.On(goqu.Ex{"b.package_id": goqu.I("r.package_id")}))
			where["b.branch"] = branch
		}
		q, args, err := ds.Select("r.name", "r.package_id").Where(where).Prepared(true).ToSQL()
		if err != nil {
			return nil, errutils.Wrapf(err, "building %s query", query)
		}

		start := time.Now()
		err = s.queryNames(ctx, q, args, out)
		observe(query, start, err)
		if err != nil {
			return nil, err
		}
	}

	for name, ids := range out {
		slices.Sort(ids)
		out[name] = slices.Compact(ids)
	}
	logger.Debug("resolved names", logger.Fields{"query": query, "names": len(names), "matched": len(out), "branch": branch})
	return out, nil
}

func (s *Store) queryNames(ctx context.Context, q string, args []interface{}, out map[string][]relation.PackageID) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return errutils.Wrap(err, "querying relation names")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name string
			id   int64
		)
		if err := rows.Scan(&name, &id); err != nil {
			return errutils.Wrap(err, "scanning relation name")
		}
		out[name] = append(out[name], relation.PackageID(uint64(id)))
	}
	return rows.Err()
}

// dbIDs converts ids to their stored representation.
func dbIDs(ids []relation.PackageID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(uint64(id))
	}
	return out
}
