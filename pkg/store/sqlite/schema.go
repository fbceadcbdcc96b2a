package sqlite

import (
	_ "embed" // embed the table definitions
)

//go:embed schema.sql
var ddl string

// Layout names the tables of the store and the package fields every query
// reads. All queries are assembled from one Layout so the projection is
// defined in a single place.
type Layout struct {
	Packages       string
	BranchPackages string
	Relations      string
	Snapshots      string

	// PackageFields is the version info projection, in scan order:
	// id, name, epoch, version, release, disttag, arch.
	PackageFields []string
}

// Schema is the layout created by schema.sql.
var Schema = Layout{
	Packages:       "packages",
	BranchPackages: "branch_packages",
	Relations:      "relations",
	Snapshots:      "snapshots",
	PackageFields:  []string{"id", "name", "epoch", "version", "release", "disttag", "arch"},
}

// projection returns the package fields qualified by table alias t.
func (l Layout) projection(t string) []interface{} {
	out := make([]interface{}, 0, len(l.PackageFields))
	for _, f := range l.PackageFields {
		out = append(out, t+"."+f)
	}
	return out
}
