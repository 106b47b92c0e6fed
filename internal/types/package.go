package types

// PackageID addresses a package by the triple (name, backend, version),
// per spec.md §3 "Package Identity". name is backend-local.
type PackageID struct {
	Name    string
	Backend Backend
	Version Version
}

// Equal implements the identity invariant from spec.md §3: two resolved
// packages are equal iff (name, backend, version) match.
func (p PackageID) Equal(o PackageID) bool {
	return p.Name == o.Name && p.Backend == o.Backend && p.Version.Equal(o.Version)
}

func (p PackageID) String() string {
	return p.Name + "@" + p.Version.String() + " (" + string(p.Backend) + ")"
}

// EdgeKind types a Dependency Graph edge, per spec.md §3.
type EdgeKind uint8

const (
	EdgeRequired EdgeKind = iota
	EdgeOptional
	EdgeConflicts
	EdgeProvides
	EdgeReplaces
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeRequired:
		return "required"
	case EdgeOptional:
		return "optional"
	case EdgeConflicts:
		return "conflicts"
	case EdgeProvides:
		return "provides"
	case EdgeReplaces:
		return "replaces"
	default:
		return "unknown"
	}
}

// Dependency carries everything spec.md §3 assigns to a dependency edge.
// Optional dependencies are skipped silently by the resolver when they
// cannot be satisfied; non-optional failures are fatal to the enclosing
// resolution (spec.md §3 invariant).
type Dependency struct {
	Name         string
	Constraint   Constraint
	Backend      Backend
	Optional     bool
	Conflicts    []string
	Provides     []string
	Alternatives []string
}

// ResolvedPackage is a Dependency bound to a chosen concrete version,
// carrying the fields spec.md §3 names: InstallOrder (assigned by
// topological sort), SourceURL, and measured Size.
type ResolvedPackage struct {
	PackageID
	InstallOrder int
	SourceURL    string
	Size         int64
}

// Equal is identity equality per spec.md §3 ("Equality is (name, backend,
// version)"); InstallOrder, SourceURL, and Size are not part of identity.
func (r ResolvedPackage) Equal(o ResolvedPackage) bool {
	return r.PackageID.Equal(o.PackageID)
}

// Less orders resolved packages by InstallOrder then Name, per spec.md §3
// ("ordering is install_order then name").
func (r ResolvedPackage) Less(o ResolvedPackage) bool {
	if r.InstallOrder != o.InstallOrder {
		return r.InstallOrder < o.InstallOrder
	}
	return r.Name < o.Name
}
