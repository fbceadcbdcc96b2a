//go:generate mockgen -destination=./mocks/store.go . Store

package relation

import "context"

// Store is the relation store the engine reads from. Implementations own
// fetching, filtering by branch and architecture, and any retry policy; the
// engine treats every call as a synchronous request/response.
type Store interface {
	// FetchRelations returns the relations of the given kinds declared by ids.
	FetchRelations(ctx context.Context, ids []PackageID, kinds []Kind) ([]Relation, error)

	// FetchVersionInfo returns the stored version identity of each package in
	// ids. Unknown ids are absent from the result.
	FetchVersionInfo(ctx context.Context, ids []PackageID) (map[PackageID]VersionInfo, error)

	// ResolveProvides maps every name to the packages of branch, restricted to
	// archs, that provide it (a package always provides its own name).
	ResolveProvides(ctx context.Context, names []string, branch string, archs []string) (map[string][]PackageID, error)

	// ResolveRequirers maps every name to the packages of branch, restricted
	// to archs, that require it.
	ResolveRequirers(ctx context.Context, names []string, branch string, archs []string) (map[string][]PackageID, error)
}
