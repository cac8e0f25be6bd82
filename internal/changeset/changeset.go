// Package changeset resolves the files changed by the triggering event.
package changeset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
)

// RESTFileLimit is the maximum number of files the REST listing returns for a pull request.
const RESTFileLimit = 3000

// zeroSHA is the before commit of a push that created a branch.
const zeroSHA = "0000000000000000000000000000000000000000"

// ErrNoPlatform is returned when a platform event needs the GitHub API but no client is configured.
var ErrNoPlatform = errors.New("a github-token is required to resolve the changed files of this event")

// Options tunes the resolution and filtering of the change-set.
type Options struct {
	FileList                string // Explicit file list, used as-is
	TmpDir                  string // Directory of the written file list, cwd when empty
	ExcludeMovedFiles       bool
	IncludeUnchangedRenames bool
}

// Resolver picks the change-set source matching the run context.
type Resolver struct {
	platform contract.Platform
	local    contract.LocalRepository
	run      contract.RunContext
	opts     Options
	log      *logging.Logger
}

// NewResolver creates a Resolver. platform may be nil outside GitHub.
func NewResolver(platform contract.Platform, local contract.LocalRepository, run contract.RunContext, opts Options, log *logging.Logger) *Resolver {
	return &Resolver{platform: platform, local: local, run: run, opts: opts, log: log}
}

// Resolve returns the filtered change-set and the path of its file list.
// Zero files yields an empty set and an empty path.
func (r *Resolver) Resolve(ctx context.Context) (schema.ChangeSet, error) {
	if r.opts.FileList != "" {
		files, err := ReadFileList(r.opts.FileList)
		if err != nil {
			return schema.ChangeSet{}, err
		}
		r.log.Infof("Using file list %s with %d file(s)", r.opts.FileList, len(files))
		return schema.ChangeSet{Files: files, Path: r.opts.FileList}, nil
	}

	files, err := r.fetch(ctx)
	if err != nil {
		return schema.ChangeSet{}, err
	}
	files = Filter(files, r.opts)
	r.log.Infof("Found %d changed file(s) to analyze", len(files))
	if len(files) == 0 {
		return schema.ChangeSet{}, nil
	}

	path, err := WriteFileList(r.opts.TmpDir, files)
	if err != nil {
		return schema.ChangeSet{}, err
	}
	return schema.ChangeSet{Files: files, Path: path}, nil
}

// fetch reads the unfiltered change-set from the source matching the event.
func (r *Resolver) fetch(ctx context.Context) ([]schema.ChangedFile, error) {
	switch {
	case r.run.IsPullRequest():
		if r.platform == nil {
			return nil, ErrNoPlatform
		}
		return r.pullRequestFiles(ctx)
	case r.run.IsPush() && r.run.Before != "" && r.run.Before != zeroSHA:
		if r.platform == nil {
			return nil, ErrNoPlatform
		}
		r.log.Debugf("Comparing commits %s...%s", r.run.Before, r.run.After)
		files, err := r.platform.CompareCommits(ctx, r.run.Before, r.run.After)
		if err != nil {
			return nil, fmt.Errorf("failed to compare commits: %w", err)
		}
		return files, nil
	default:
		r.log.Debug("Resolving changed files from the local repository")
		files, err := r.local.ChangedFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read local changes: %w", err)
		}
		return files, nil
	}
}

func (r *Resolver) pullRequestFiles(ctx context.Context) ([]schema.ChangedFile, error) {
	number := r.run.PullRequest
	count, err := r.platform.PullRequestFileCount(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to read pull request #%d: %w", number, err)
	}

	if count > RESTFileLimit {
		r.log.Debugf("Pull request #%d changes %d files, querying them through GraphQL", number, count)
		files, err := r.platform.QueryPullRequestFiles(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("failed to query files of pull request #%d: %w", number, err)
		}
		return files, nil
	}

	files, err := r.platform.ListPullRequestFiles(ctx, number, func(f schema.ChangedFile) {
		r.log.Debugf("%s: %s (+%d -%d)", f.Status, f.Filename, f.Additions, f.Deletions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files of pull request #%d: %w", number, err)
	}
	return files, nil
}

// Filter drops files with nothing to analyze.
func Filter(files []schema.ChangedFile, opts Options) []schema.ChangedFile {
	var kept []schema.ChangedFile
	for _, f := range files {
		switch {
		case f.Status == schema.RemovedStatus:
			continue
		case f.Status == schema.RenamedStatus && opts.ExcludeMovedFiles:
			continue
		case f.Status == schema.RenamedStatus && f.Changes == 0 && !opts.IncludeUnchangedRenames:
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// WriteFileList writes one filename per line to changedFiles.txt in dir
// (or the working directory) and returns its absolute path.
func WriteFileList(dir string, files []schema.ChangedFile) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var b strings.Builder
	for _, f := range files {
		b.WriteString(f.Filename)
		b.WriteByte('\n')
	}

	path, err := filepath.Abs(filepath.Join(dir, contract.FileListName))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file list: %w", err)
	}
	return path, nil
}

// ReadFileList reads a file list written by hand or by WriteFileList.
func ReadFileList(path string) ([]schema.ChangedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var files []schema.ChangedFile
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			files = append(files, schema.ChangedFile{Filename: name, Status: schema.ChangedStatus})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file list: %w", err)
	}
	return files, nil
}
