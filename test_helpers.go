package gitflow

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate creates a new in-memory git repository for testing.
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// writeFile writes content to a file in the given filesystem.
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

// commitFile writes and stages a file, then commits it on the current
// branch, returning the commit hash.
func commitFile(repo *git.Repository, filename, content string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := writeFile(workTree.Filesystem, filename, content); err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := workTree.Add(filename); err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Add "+filename, &git.CommitOptions{Author: testSignature})
}

// commitChain commits n files on the current branch, returning the final
// commit hash. Used to build linear histories of a known depth.
func commitChain(repo *git.Repository, prefix string, n int) (plumbing.Hash, error) {
	head := plumbing.ZeroHash
	for i := 0; i < n; i++ {
		filename := prefix + "_" + string(rune('a'+i)) + ".txt"
		hash, err := commitFile(repo, filename, "content "+filename)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		head = hash
	}
	return head, nil
}

// checkoutBranch switches the worktree to the named branch, optionally
// creating it at the current head.
func checkoutBranch(repo *git.Repository, name string, create bool) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}

	return workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: create,
	})
}

// mergeCommit commits a file on the current branch with an explicit parent
// list, standing in for a real merge.
func mergeCommit(repo *git.Repository, filename string, parents []plumbing.Hash) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := writeFile(workTree.Filesystem, filename, "merged"); err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := workTree.Add(filename); err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Merge "+filename, &git.CommitOptions{
		Author:  testSignature,
		Parents: parents,
	})
}

// createBranchAt points a new branch at an arbitrary commit without
// checking it out.
func createBranchAt(repo *git.Repository, name string, hash plumbing.Hash) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)
	return repo.Storer.SetReference(ref)
}

// detachHeadAt points HEAD directly at a commit, leaving no symbolic
// branch reference.
func detachHeadAt(repo *git.Repository, hash plumbing.Hash) error {
	return repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, hash))
}

// testRepoReleaseFlow builds the canonical gitflow shape used by several
// tests: two commits on master tagged v1.0.0 at the tip, a develop branch
// with one more commit, and a v1.1.0 release branch off develop with a
// commit tagged v1.1.0-rc.1 followed by one untagged commit. The worktree
// is left on the release branch.
func testRepoReleaseFlow(repo *git.Repository) (*git.Repository, error) {
	released, err := commitChain(repo, "master", 2)
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateTag("v1.0.0", released, nil); err != nil {
		return nil, err
	}

	if err := checkoutBranch(repo, "develop", true); err != nil {
		return nil, err
	}
	if _, err := commitFile(repo, "feature.txt", "feature work"); err != nil {
		return nil, err
	}

	if err := checkoutBranch(repo, "v1.1.0", true); err != nil {
		return nil, err
	}
	candidate, err := commitFile(repo, "stabilize.txt", "release prep")
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateTag("v1.1.0-rc.1", candidate, nil); err != nil {
		return nil, err
	}
	if _, err := commitFile(repo, "fixup.txt", "post-rc fix"); err != nil {
		return nil, err
	}

	return repo, nil
}
