package types

import (
	"github.com/Masterminds/semver/v3"
)

// Version is a package version. Backends that publish semantic versions
// carry a parsed *semver.Version for ordering; backends that don't (most
// source-based or binary-blob backends) carry only the opaque string and
// compare by equality, per spec.
type Version struct {
	raw string
	sv  *semver.Version // nil when raw does not parse as semver
}

// NewVersion parses raw as a version string. Parsing never fails: if raw is
// not valid semver, the Version still holds raw and falls back to
// string-equality comparisons.
func NewVersion(raw string) Version {
	v := Version{raw: raw}
	if sv, err := semver.NewVersion(raw); err == nil {
		v.sv = sv
	}
	return v
}

// String returns the original, unparsed version string.
func (v Version) String() string { return v.raw }

// IsSemver reports whether this version parsed as semantic version.
func (v Version) IsSemver() bool { return v.sv != nil }

// Equal compares two versions. Semver versions compare numerically
// (1.0.0 == 1.0); opaque versions compare by exact string equality.
func (v Version) Equal(o Version) bool {
	if v.sv != nil && o.sv != nil {
		return v.sv.Equal(o.sv)
	}
	return v.raw == o.raw
}

// Less reports whether v sorts before o. Only two semver versions can
// compare less: if either side is opaque (non-semver), Compare returns 0
// and Less is false.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Compare returns -1, 0, or 1. Two opaque strings that are not equal compare
// as 0 (incomparable) rather than panicking, so sort.Stable preserves
// discovery order for them.
func (v Version) Compare(o Version) int {
	if v.sv != nil && o.sv != nil {
		return v.sv.Compare(o.sv)
	}
	if v.raw == o.raw {
		return 0
	}
	return 0
}

// Constraint is a set of comparator clauses evaluated against a concrete
// version (spec.md §3, "a version-constraint is a set of comparator
// clauses"). Semver constraints are delegated to Masterminds/semver;
// non-semver constraints fall back to exact string match.
type Constraint struct {
	raw string
	c   *semver.Constraints
}

// NewConstraint parses a constraint expression such as ">=1.2.0, <2.0.0".
// An empty string is the always-true constraint (any version matches).
func NewConstraint(raw string) (Constraint, error) {
	if raw == "" {
		return Constraint{raw: raw}, nil
	}
	c, err := semver.NewConstraint(raw)
	if err != nil {
		// Not semver-shaped: treat as an exact-match opaque constraint.
		return Constraint{raw: raw}, nil
	}
	return Constraint{raw: raw, c: c}, nil
}

// Matches reports whether v satisfies the constraint.
func (c Constraint) Matches(v Version) bool {
	if c.raw == "" {
		return true
	}
	if c.c != nil && v.sv != nil {
		return c.c.Check(v.sv)
	}
	return c.raw == v.raw
}

// String returns the original constraint expression.
func (c Constraint) String() string { return c.raw }

// Empty reports whether the constraint is the always-true constraint.
func (c Constraint) Empty() bool { return c.raw == "" }
