package gitflow

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Resolution failures. Wrapped errors carry commit and branch detail; match
// with errors.Is.
var (
	// ErrInvalidRepository means the path holds no openable repository or
	// its head cannot be resolved to a commit.
	ErrInvalidRepository = errors.New("invalid git repository")

	// ErrNoBranchAtHead means no branch tip is the current head commit.
	ErrNoBranchAtHead = errors.New("head commit is not the tip of any branch")

	// ErrAmbiguousBranch means several branch tips are the current head
	// commit and the resolver refuses to guess between them.
	ErrAmbiguousBranch = errors.New("head commit is the tip of multiple branches")

	// ErrUnclassifiableBranch means a branch name could not be placed in
	// any of the four version kinds. Only an empty name reaches this.
	ErrUnclassifiableBranch = errors.New("unclassifiable branch name")

	// ErrNoReleaseAncestor means a master/main commit has no ancestor
	// carrying a release or rc tag to take the production base from.
	ErrNoReleaseAncestor = errors.New("no release-tagged ancestor")
)

// Release branches are named exactly vX.Y.Z, base 10 digits only.
var releaseBranchPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// Resolve opens the repository at path and derives the gitflow version
// information for its current head. The repository handle is scoped to this
// call; nothing is cached between calls.
func Resolve(path string) (*GitflowInfo, error) {
	repo, err := OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", ErrInvalidRepository, path, err)
	}

	return ResolveRepository(repo)
}

// ResolveRepository derives the gitflow version information for the current
// head of an already-open repository.
//
// The head commit must be the tip of exactly one branch; the branch name
// then determines the version kind. Production versions take their base
// from the nearest release-tagged ancestor, Alpha versions take their base
// from the branch name and increment the highest rc tag reachable on the
// branch. A failed resolution is always reported, never defaulted to Local.
func ResolveRepository(repo *git.Repository) (*GitflowInfo, error) {
	commit, err := headCommit(repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	names, err := branchesAtHead(repo, commit.Hash)
	if err != nil {
		return nil, err
	}

	switch len(names) {
	case 1:
	case 0:
		return nil, fmt.Errorf("%w: commit %s", ErrNoBranchAtHead, commit.Hash)
	default:
		return nil, fmt.Errorf("%w: commit %s on %s", ErrAmbiguousBranch, commit.Hash, strings.Join(names, ", "))
	}
	branchName := names[0]

	version, err := resolveVersion(repo, commit, branchName)
	if err != nil {
		return nil, fmt.Errorf("resolving version for branch %q: %w", branchName, err)
	}

	buildNumber, err := countAncestors(commit)
	if err != nil {
		return nil, fmt.Errorf("counting ancestors of %s: %w", commit.Hash, err)
	}

	return &GitflowInfo{
		BranchName:  branchName,
		Version:     version,
		CommitHash:  commit.Hash.String(),
		BuildNumber: buildNumber,
	}, nil
}

// classifyBranch maps a branch name to its version kind. The mapping is
// total over non-empty names: anything that is not master/main, develop or
// a release branch is a feature branch and builds a Local version.
func classifyBranch(name string) (VersionKind, error) {
	switch {
	case name == "":
		return "", ErrUnclassifiableBranch
	case name == "master" || name == "main":
		return KindProduction, nil
	case name == "develop":
		return KindDevelopment, nil
	case releaseBranchPattern.MatchString(name):
		return KindAlpha, nil
	default:
		return KindLocal, nil
	}
}

// resolveVersion runs the branch classification and fills in the semantic
// version payload from the repository's tag history where the kind carries
// one.
func resolveVersion(repo *git.Repository, head *object.Commit, branchName string) (VersionInfo, error) {
	kind, err := classifyBranch(branchName)
	if err != nil {
		return VersionInfo{}, err
	}

	switch kind {
	case KindProduction:
		base, err := nearestReleaseBase(repo, head)
		if err != nil {
			return VersionInfo{}, err
		}
		return NewProduction(base), nil

	case KindAlpha:
		// The branch name itself parses as a bare release triple.
		named, err := ParseSemver(branchName)
		if err != nil {
			return VersionInfo{}, fmt.Errorf("release branch name: %w", err)
		}
		base := *named.Production

		highest, err := highestReachableRC(repo, head, base)
		if err != nil {
			return VersionInfo{}, err
		}
		if highest == 255 {
			return VersionInfo{}, fmt.Errorf("rc after %s-rc.%d: %w", base, highest, ErrComponentOutOfRange)
		}
		return NewAlpha(SemverRC{Base: base, RC: highest + 1}), nil

	case KindDevelopment:
		return NewDevelopment(), nil

	default:
		return NewLocal(), nil
	}
}

// countAncestors returns the per-path ancestor count of a commit: the sum
// over every parent edge of one plus the parent's own count. Commits
// reachable via several merge paths are counted once per path; that
// semantic is relied on as a stable ordering key and must not be changed
// to unique-ancestor counting. Counts are memoized per call, which keeps
// the walk linear without changing any result.
func countAncestors(head *object.Commit) (uint64, error) {
	memo := make(map[plumbing.Hash]uint64)

	var count func(commit *object.Commit) (uint64, error)
	count = func(commit *object.Commit) (uint64, error) {
		if cached, ok := memo[commit.Hash]; ok {
			return cached, nil
		}

		var total uint64
		err := commit.Parents().ForEach(func(parent *object.Commit) error {
			fromParent, err := count(parent)
			if err != nil {
				return err
			}
			total += 1 + fromParent
			return nil
		})
		if err != nil {
			return 0, err
		}

		memo[commit.Hash] = total
		return total, nil
	}

	return count(head)
}
