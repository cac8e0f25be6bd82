package changeset

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
)

// LocalGitRepository implements the LocalRepository interface by reading
// the checked-out repository with go-git.
type LocalGitRepository struct {
	path string
}

var _ contract.LocalRepository = &LocalGitRepository{} // Compile-time check

// NewLocalGitRepository creates a repository reader rooted at or above path.
func NewLocalGitRepository(path string) *LocalGitRepository {
	return &LocalGitRepository{path: path}
}

// ChangedFiles returns the files changed by HEAD relative to its first parent.
// A root commit is compared against the empty tree.
func (g *LocalGitRepository) ChangedFiles(ctx context.Context) ([]schema.ChangedFile, error) {
	repo, err := git.PlainOpenWithOptions(g.path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %q: %w. If this is not a Git repository, set the filelist input", g.path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	headTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to read parent of %s: %w", commit.Hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, headTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff HEAD: %w", err)
	}

	files := make([]schema.ChangedFile, 0, len(changes))
	for _, change := range changes {
		file, err := toChangedFile(ctx, change)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func toChangedFile(ctx context.Context, change *object.Change) (schema.ChangedFile, error) {
	action, err := change.Action()
	if err != nil {
		return schema.ChangedFile{}, err
	}

	file := schema.ChangedFile{Filename: change.To.Name}
	switch action {
	case merkletrie.Insert:
		file.Status = schema.AddedStatus
	case merkletrie.Delete:
		file.Filename = change.From.Name
		file.Status = schema.RemovedStatus
	case merkletrie.Modify:
		file.Status = schema.ModifiedStatus
		if change.From.Name != change.To.Name {
			file.Status = schema.RenamedStatus
		}
	default:
		return schema.ChangedFile{}, errors.New("unknown change action for " + change.String())
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return schema.ChangedFile{}, fmt.Errorf("failed to compute patch of %s: %w", file.Filename, err)
	}
	for _, stat := range patch.Stats() {
		file.Additions += stat.Addition
		file.Deletions += stat.Deletion
	}
	file.Changes = file.Additions + file.Deletions
	return file, nil
}
