package gitflow

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// OpenRepository opens a Git repository at the specified path.
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// headCommit resolves the repository head to its commit object.
func headCommit(repo *git.Repository) (*object.Commit, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving head: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("peeling head to commit: %w", err)
	}

	return commit, nil
}

// branchesAtHead returns the short names of every branch whose tip is the
// given commit, in iteration order. The arity check on the result belongs
// to the caller.
func branchesAtHead(repo *git.Repository, head plumbing.Hash) ([]string, error) {
	branches, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	var names []string
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		if ref.Hash() == head {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	return names, nil
}

// tagsAt returns the short names of every tag pointing at the given
// commit, peeling annotated tags to their target.
func tagsAt(repo *git.Repository, hash plumbing.Hash) ([]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var names []string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			if obj.Target == hash {
				names = append(names, ref.Name().Short())
			}
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
			if ref.Hash() == hash {
				names = append(names, ref.Name().Short())
			}
		default:
			return err
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	return names, nil
}

// nearestReleaseBase walks the ancestry of from and returns the base triple
// of the first commit carrying a version tag. Both vX.Y.Z and vX.Y.Z-rc.W
// tags qualify: a master commit descends from release-branch commits whose
// rc tags carry the released base. Tags that do not parse as versions are
// skipped.
func nearestReleaseBase(repo *git.Repository, from *object.Commit) (SemverBase, error) {
	var (
		base  SemverBase
		found bool
	)

	walker := object.NewCommitPreorderIter(from, nil, nil)
	err := walker.ForEach(func(commit *object.Commit) error {
		tags, err := tagsAt(repo, commit.Hash)
		if err != nil {
			return err
		}

		for _, tag := range tags {
			version, err := ParseSemver(tag)
			if err != nil {
				continue
			}

			switch version.Kind {
			case KindProduction:
				base, found = *version.Production, true
			case KindAlpha:
				base, found = version.Alpha.Base, true
			}
			if found {
				return storer.ErrStop
			}
		}

		return nil
	})
	if err != nil {
		return SemverBase{}, fmt.Errorf("walking ancestry for release tag: %w", err)
	}

	if !found {
		return SemverBase{}, fmt.Errorf("no release tag reachable from %s: %w", from.Hash, ErrNoReleaseAncestor)
	}

	return base, nil
}

// highestReachableRC walks the ancestry of from and returns the highest
// release-candidate number among rc tags for the given base, or 0 when the
// base has no rc tags yet.
func highestReachableRC(repo *git.Repository, from *object.Commit, base SemverBase) (uint8, error) {
	var highest uint8

	walker := object.NewCommitPreorderIter(from, nil, nil)
	err := walker.ForEach(func(commit *object.Commit) error {
		tags, err := tagsAt(repo, commit.Hash)
		if err != nil {
			return err
		}

		for _, tag := range tags {
			version, err := ParseSemver(tag)
			if err != nil || !version.IsAlpha() {
				continue
			}
			if version.Alpha.Base == base && version.Alpha.RC > highest {
				highest = version.Alpha.RC
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking ancestry for rc tags: %w", err)
	}

	return highest, nil
}
