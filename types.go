// Package gitflow derives build-time semantic versions from the state of a
// gitflow-managed Git repository: the checked-out branch, its tag history,
// and the depth of the commit ancestry.
//
// Four kinds of version exist, determined entirely by branch naming:
// Production (master/main), Alpha (release branches named vX.Y.Z),
// Development (develop) and Local (everything else).
package gitflow

import "fmt"

// VersionKind identifies one of the four gitflow version kinds. The set is
// closed; no other kind is ever produced.
type VersionKind string

const (
	KindProduction  VersionKind = "Production"
	KindAlpha       VersionKind = "Alpha"
	KindDevelopment VersionKind = "Development"
	KindLocal       VersionKind = "Local"
)

// SemverBase is a released major.minor.patch triple. Each component is
// limited to the 0-255 range.
type SemverBase struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
	Patch uint8 `json:"patch"`
}

func (b SemverBase) String() string {
	return fmt.Sprintf("v%d.%d.%d", b.Major, b.Minor, b.Patch)
}

// SemverRC is a release-candidate number scoped to one base version.
type SemverRC struct {
	Base SemverBase `json:"base"`
	RC   uint8      `json:"rc"`
}

func (r SemverRC) String() string {
	return fmt.Sprintf("%s-rc.%d", r.Base, r.RC)
}

// VersionInfo is a tagged union over the four version kinds. Exactly one of
// Production and Alpha is non-nil for the kinds that carry a payload; both
// are nil for Development and Local. Use the New* constructors rather than
// building the struct directly.
type VersionInfo struct {
	Kind       VersionKind `json:"kind"`
	Production *SemverBase `json:"production,omitempty"`
	Alpha      *SemverRC   `json:"alpha,omitempty"`
}

// NewProduction returns the version of a production release.
func NewProduction(base SemverBase) VersionInfo {
	return VersionInfo{Kind: KindProduction, Production: &base}
}

// NewAlpha returns the version of a release-candidate build.
func NewAlpha(rc SemverRC) VersionInfo {
	return VersionInfo{Kind: KindAlpha, Alpha: &rc}
}

// NewDevelopment returns the version of a build on the develop branch.
func NewDevelopment() VersionInfo {
	return VersionInfo{Kind: KindDevelopment}
}

// NewLocal returns the version of a build on a feature branch.
func NewLocal() VersionInfo {
	return VersionInfo{Kind: KindLocal}
}

func (v VersionInfo) String() string {
	switch v.Kind {
	case KindProduction:
		return fmt.Sprintf("Prod: %s", v.Production)
	case KindAlpha:
		return fmt.Sprintf("Alpha: %s", v.Alpha)
	case KindDevelopment:
		return "Development"
	default:
		return "Local"
	}
}

// Semver returns the tag-compatible version string (vX.Y.Z or
// vX.Y.Z-rc.W). Development and Local builds carry no semantic version, so
// the second return is false for them.
func (v VersionInfo) Semver() (string, bool) {
	switch v.Kind {
	case KindProduction:
		return v.Production.String(), true
	case KindAlpha:
		return v.Alpha.String(), true
	default:
		return "", false
	}
}

// IsProduction reports whether the version is a production release.
func (v VersionInfo) IsProduction() bool {
	return v.Kind == KindProduction
}

// IsAlpha reports whether the version is a release-candidate build.
func (v VersionInfo) IsAlpha() bool {
	return v.Kind == KindAlpha
}

// GitflowInfo is the result of one resolution: a snapshot of the
// repository's head at the time of the call. It is never mutated after
// construction and never cached across repository changes.
type GitflowInfo struct {
	// BranchName is the single branch whose tip is the head commit.
	BranchName string `json:"branch_name"`

	// Version is the kind and semantic version derived from BranchName.
	Version VersionInfo `json:"version"`

	// CommitHash is the head commit identifier as lowercase hex, twice the
	// byte length of the underlying hash.
	CommitHash string `json:"commit_hash"`

	// BuildNumber counts ancestor commits, once per path they are
	// reachable on.
	BuildNumber uint64 `json:"build_number"`
}

func (i *GitflowInfo) String() string {
	return fmt.Sprintf("%s %s @%s build %d", i.BranchName, i.Version, i.CommitHash, i.BuildNumber)
}
