// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/ticsgate/schema"
)

// Platform defines the code-hosting operations needed to resolve change-sets and report results.
// This allows the pipeline to be tested without talking to GitHub.
type Platform interface {
	// --- Change-sets ---

	// PullRequestFileCount returns the number of files changed by a pull request.
	PullRequestFileCount(ctx context.Context, number int) (int, error)

	// ListPullRequestFiles pages through the REST file listing of a pull request,
	// invoking onFile for every file as it is received.
	ListPullRequestFiles(ctx context.Context, number int, onFile func(schema.ChangedFile)) ([]schema.ChangedFile, error)

	// QueryPullRequestFiles pages through the GraphQL file connection of a pull request.
	QueryPullRequestFiles(ctx context.Context, number int) ([]schema.ChangedFile, error)

	// CompareCommits returns the files changed between two commits.
	CompareCommits(ctx context.Context, base, head string) ([]schema.ChangedFile, error)

	// --- Conversation ---

	// ListIssueComments returns the conversation comments of a pull request.
	ListIssueComments(ctx context.Context, number int) ([]schema.Comment, error)

	// CreateIssueComment posts a conversation comment on a pull request.
	CreateIssueComment(ctx context.Context, number int, body string) error

	// DeleteIssueComment removes a conversation comment.
	DeleteIssueComment(ctx context.Context, id int64) error

	// ListReviewComments returns the inline review comments of a pull request.
	ListReviewComments(ctx context.Context, number int) ([]schema.Comment, error)

	// DeleteReviewComment removes an inline review comment.
	DeleteReviewComment(ctx context.Context, id int64) error

	// CreateReview submits a review with a verdict on a pull request.
	CreateReview(ctx context.Context, number int, review schema.ReviewRequest) error

	// RateLimitRemaining returns the number of core API calls left.
	RateLimitRemaining(ctx context.Context) (int, error)
}

// Executor runs a composed command line and classifies its output.
type Executor interface {
	Run(ctx context.Context, commandLine string, env map[string]string) schema.AnalysisResult
}

// QualityGateFetcher reads quality-gate data from the TICS viewer.
type QualityGateFetcher interface {
	// QualityGate fetches the quality gate status for the filter.
	QualityGate(ctx context.Context, filter schema.GateFilter) (*schema.QualityGate, error)

	// Annotations fetches the findings behind the given annotation links.
	Annotations(ctx context.Context, links []schema.Link) ([]schema.ViewerAnnotation, error)

	// LastRunDate returns the epoch seconds of the last QServer run of a project branch.
	LastRunDate(ctx context.Context, project, branch string) (int64, error)
}

// Installer resolves the bootstrap script that installs TICS on the runner.
type Installer interface {
	InstallURL(ctx context.Context, platform schema.Platform) (string, error)
}

// LocalRepository reads change-sets from the checked-out working copy.
type LocalRepository interface {
	ChangedFiles(ctx context.Context) ([]schema.ChangedFile, error)
}
