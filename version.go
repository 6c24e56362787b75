package gitflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// Parse failures, one per grammar rule. Wrapped errors carry the offending
// input; match with errors.Is.
var (
	// ErrMissingPrefix means the string did not start with the literal v.
	ErrMissingPrefix = errors.New("version must start with v")

	// ErrBuildMetadataNotAllowed means the string carried a +metadata
	// suffix, which gitflow tags never do.
	ErrBuildMetadataNotAllowed = errors.New("build metadata is not allowed")

	// ErrComponentOutOfRange means major, minor, patch or rc did not fit
	// in the 0-255 range.
	ErrComponentOutOfRange = errors.New("version component out of range 0-255")

	// ErrUnsupportedPrerelease means the prerelease label was not rc.
	ErrUnsupportedPrerelease = errors.New("unsupported prerelease label")

	// ErrMissingOrInvalidRC means the rc label had no numeric candidate
	// number in the 1-255 range after it.
	ErrMissingOrInvalidRC = errors.New("missing or invalid rc number")
)

// ParseSemver parses a gitflow tag or release-branch name into a
// VersionInfo. The grammar is a strict subset of semantic versioning:
// vX.Y.Z parses to a Production version and vX.Y.Z-rc.W to an Alpha
// version, with every numeric component limited to 0-255 (rc to 1-255).
// Build metadata and prerelease labels other than rc are rejected.
// Prerelease segments past rc.W are ignored.
//
// The parser is pure and is the single point of conversion between version
// text and structured versions; VersionInfo.Semver is its inverse.
func ParseSemver(s string) (VersionInfo, error) {
	if !strings.HasPrefix(s, "v") {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w", s, ErrMissingPrefix)
	}

	version, err := semver.Parse(strings.TrimPrefix(s, "v"))
	if err != nil {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w", s, err)
	}

	if len(version.Build) > 0 {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w", s, ErrBuildMetadataNotAllowed)
	}

	base, err := baseComponents(version)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w", s, err)
	}

	if len(version.Pre) == 0 {
		return NewProduction(base), nil
	}

	label := version.Pre[0]
	if label.IsNum || label.VersionStr != "rc" {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w: %q", s, ErrUnsupportedPrerelease, label.String())
	}

	if len(version.Pre) < 2 {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w", s, ErrMissingOrInvalidRC)
	}

	rc := version.Pre[1]
	if !rc.IsNum || rc.VersionNum < 1 || rc.VersionNum > 255 {
		return VersionInfo{}, fmt.Errorf("parsing %q: %w", s, ErrMissingOrInvalidRC)
	}

	return NewAlpha(SemverRC{Base: base, RC: uint8(rc.VersionNum)}), nil
}

// baseComponents narrows a parsed version's triple to the 0-255 range.
func baseComponents(version semver.Version) (SemverBase, error) {
	for _, component := range []uint64{version.Major, version.Minor, version.Patch} {
		if component > 255 {
			return SemverBase{}, ErrComponentOutOfRange
		}
	}

	return SemverBase{
		Major: uint8(version.Major),
		Minor: uint8(version.Minor),
		Patch: uint8(version.Patch),
	}, nil
}
