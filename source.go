package pagemill

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/memory"
)

// OpenSource resolves a content source to a filesystem. Local
// directories are used as-is, git sources are cloned in memory and
// the resolved revision is materialized to a scratch directory.
func OpenSource(conf SourceConfig) (fs.FS, error) {
	if conf.Clone == "" {
		if conf.Dir == "" {
			return nil, errors.New("no content source configured")
		}

		return subPath(os.DirFS(conf.Dir), conf.Path)
	}

	repo, err := git.Clone(memory.NewStorage(), nil, &git.CloneOptions{
		URL:      conf.Clone,
		Progress: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("git clone: %w", err)
	}

	commit, err := resolveCommit(repo, conf.Ref)
	if err != nil {
		return nil, err
	}

	dir, err := materializeCommit(commit)
	if err != nil {
		return nil, err
	}

	return subPath(os.DirFS(dir), conf.Path)
}

func subPath(fsys fs.FS, p string) (fs.FS, error) {
	if p == "" {
		return fsys, nil
	}

	sub, err := fs.Sub(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("resolve content path %q: %w", p, err)
	}

	return sub, nil
}

func resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	if ref == "" || ref == "latest" {
		commit, err := latestVersionCommit(repo)
		if err != nil {
			return nil, err
		}

		if commit != nil {
			return commit, nil
		}

		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolve HEAD: %w", err)
		}

		commit, err = repo.CommitObject(head.Hash())
		if err != nil {
			return nil, fmt.Errorf("get HEAD commit: %w", err)
		}

		return commit, nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", ref, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("get commit for %q: %w", ref, err)
	}

	return commit, nil
}

// latestVersionCommit returns the commit of the highest
// non-prerelease version tag, or nil when the repository has no
// version tags.
func latestVersionCommit(repo *git.Repository) (*object.Commit, error) {
	type tagged struct {
		Version *semver.Version
		Commit  *object.Commit
	}

	var versions []tagged

	tagRefs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	err = tagRefs.ForEach(func(tagRef *plumbing.Reference) error {
		version, err := semver.NewVersion(tagRef.Name().Short())
		if err != nil || version.Prerelease() != "" {
			return nil
		}

		commit, err := getCommitObjectForTag(repo, tagRef)
		if err != nil {
			return err
		}

		versions = append(versions, tagged{
			Version: version,
			Commit:  commit,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect version tags: %w", err)
	}

	if len(versions) == 0 {
		return nil, nil
	}

	slices.SortFunc(versions, func(a, b tagged) int {
		return a.Version.Compare(b.Version)
	})

	return versions[len(versions)-1].Commit, nil
}

func getCommitObjectForTag(repo *git.Repository, tagRef *plumbing.Reference) (*object.Commit, error) {
	var commit *object.Commit

	t, err := repo.TagObject(tagRef.Hash())

	switch {
	case errors.Is(err, plumbing.ErrObjectNotFound):
		c, err := repo.CommitObject(tagRef.Hash())
		if err != nil {
			return nil, fmt.Errorf("get tag commit: %w", err)
		}

		commit = c
	case err != nil:
		return nil, fmt.Errorf("get tag object: %w", err)
	default:
		c, err := t.Commit()
		if err != nil {
			return nil, fmt.Errorf("get tag commit: %w", err)
		}

		commit = c
	}

	return commit, nil
}

func materializeCommit(commit *object.Commit) (string, error) {
	dir, err := os.MkdirTemp("", "pagemill-content-")
	if err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("get commit tree: %w", err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		contents, err := f.Contents()
		if err != nil {
			return fmt.Errorf("read %q: %w", f.Name, err)
		}

		target := filepath.Join(dir, filepath.FromSlash(f.Name))

		err = os.MkdirAll(filepath.Dir(target), 0o770)
		if err != nil {
			return fmt.Errorf("create directory for %q: %w", f.Name, err)
		}

		err = os.WriteFile(target, []byte(contents), 0o660)
		if err != nil {
			return fmt.Errorf("write %q: %w", f.Name, err)
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("materialize commit: %w", err)
	}

	return dir, nil
}
