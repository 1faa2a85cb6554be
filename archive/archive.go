// Package archive commits the collected stores into a git repository.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/libgit2/git2go.v26"
)

var signature = git.Signature{
	Name:  "BOJ Collector",
	Email: "null",
}

// Commit stages files, which must live in the work tree of the repository at
// repoPath, and commits them on HEAD. It returns nil when the staged tree
// equals HEAD's tree.
func Commit(repoPath string, files []string, message string) (*git.Oid, error) {
	repo, err := git.OpenRepository(repoPath)
	if err != nil {
		return nil, err
	}
	defer repo.Free()
	workdir, err := filepath.Abs(repo.Workdir())
	if err != nil {
		return nil, err
	}

	index, err := repo.Index()
	if err != nil {
		return nil, err
	}
	defer index.Free()
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(workdir, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is outside of %s", file, workdir)
		}
		if err := index.AddByPath(filepath.ToSlash(rel)); err != nil {
			return nil, err
		}
	}
	if err := index.Write(); err != nil {
		return nil, err
	}
	treeID, err := index.WriteTree()
	if err != nil {
		return nil, err
	}

	var parents []*git.Commit
	unborn, err := repo.IsHeadUnborn()
	if err != nil {
		return nil, err
	}
	if !unborn {
		head, err := repo.Head()
		if err != nil {
			return nil, err
		}
		defer head.Free()
		tip, err := repo.LookupCommit(head.Target())
		if err != nil {
			return nil, err
		}
		defer tip.Free()
		if tip.TreeId().Equal(treeID) {
			return nil, nil
		}
		parents = append(parents, tip)
	}

	tree, err := repo.LookupTree(treeID)
	if err != nil {
		return nil, err
	}
	defer tree.Free()
	sig := signature
	sig.When = time.Now()
	return repo.CreateCommit("HEAD", &sig, &sig, message, tree, parents...)
}
