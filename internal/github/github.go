// Package github implements the Platform interface on the GitHub REST and GraphQL APIs.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/httpclient"
	"github.com/huangsam/ticsgate/schema"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// perPage is the page size of every paginated listing.
const perPage = 100

// Client talks to one repository on GitHub or GitHub Enterprise Server.
type Client struct {
	rest    *gh.Client
	graphql *githubv4.Client
	owner   string
	repo    string
}

var _ contract.Platform = &Client{} // Compile-time check

// NewHTTPClient returns a retrying *http.Client that authenticates with token.
func NewHTTPClient(token string, opts httpclient.Options) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	opts.AuthToken = ""
	opts.WrapTransport = func(base http.RoundTripper) http.RoundTripper {
		return &oauth2.Transport{Source: src, Base: base}
	}
	return httpclient.New(opts).StandardClient()
}

// New creates a client for owner/repo. apiURL and graphqlURL select the host.
func New(hc *http.Client, owner, repo, apiURL, graphqlURL string) (*Client, error) {
	rest := gh.NewClient(hc)
	if apiURL != "" {
		base, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		rest.BaseURL = base
	}
	if graphqlURL == "" {
		graphqlURL = contract.DefaultGraphQLURL
	}
	return &Client{
		rest:    rest,
		graphql: githubv4.NewEnterpriseClient(graphqlURL, hc),
		owner:   owner,
		repo:    repo,
	}, nil
}

// PullRequestFileCount implements the Platform interface.
func (c *Client) PullRequestFileCount(ctx context.Context, number int) (int, error) {
	pr, _, err := c.rest.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return 0, err
	}
	return pr.GetChangedFiles(), nil
}

// ListPullRequestFiles implements the Platform interface.
func (c *Client) ListPullRequestFiles(ctx context.Context, number int, onFile func(schema.ChangedFile)) ([]schema.ChangedFile, error) {
	var files []schema.ChangedFile
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		page, resp, err := c.rest.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range page {
			file := fromCommitFile(f)
			if onFile != nil {
				onFile(file)
			}
			files = append(files, file)
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// CompareCommits implements the Platform interface.
func (c *Client) CompareCommits(ctx context.Context, base, head string) ([]schema.ChangedFile, error) {
	var files []schema.ChangedFile
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		cmp, resp, err := c.rest.Repositories.CompareCommits(ctx, c.owner, c.repo, base, head, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range cmp.Files {
			files = append(files, fromCommitFile(f))
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

func fromCommitFile(f *gh.CommitFile) schema.ChangedFile {
	return schema.ChangedFile{
		Filename:  f.GetFilename(),
		Status:    schema.FileStatus(f.GetStatus()),
		Additions: f.GetAdditions(),
		Deletions: f.GetDeletions(),
		Changes:   f.GetChanges(),
	}
}

// ListIssueComments implements the Platform interface.
func (c *Client) ListIssueComments(ctx context.Context, number int) ([]schema.Comment, error) {
	var comments []schema.Comment
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		page, resp, err := c.rest.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, err
		}
		for _, ic := range page {
			comments = append(comments, schema.Comment{ID: ic.GetID(), Body: ic.GetBody(), Author: ic.GetUser().GetLogin()})
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateIssueComment implements the Platform interface.
func (c *Client) CreateIssueComment(ctx context.Context, number int, body string) error {
	_, _, err := c.rest.Issues.CreateComment(ctx, c.owner, c.repo, number, &gh.IssueComment{Body: gh.String(body)})
	return err
}

// DeleteIssueComment implements the Platform interface.
func (c *Client) DeleteIssueComment(ctx context.Context, id int64) error {
	_, err := c.rest.Issues.DeleteComment(ctx, c.owner, c.repo, id)
	return err
}

// ListReviewComments implements the Platform interface.
func (c *Client) ListReviewComments(ctx context.Context, number int) ([]schema.Comment, error) {
	var comments []schema.Comment
	opts := &gh.PullRequestListCommentsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		page, resp, err := c.rest.PullRequests.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, err
		}
		for _, rc := range page {
			comments = append(comments, schema.Comment{ID: rc.GetID(), Body: rc.GetBody(), Author: rc.GetUser().GetLogin()})
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// DeleteReviewComment implements the Platform interface.
func (c *Client) DeleteReviewComment(ctx context.Context, id int64) error {
	_, err := c.rest.PullRequests.DeleteComment(ctx, c.owner, c.repo, id)
	return err
}

// CreateReview implements the Platform interface.
func (c *Client) CreateReview(ctx context.Context, number int, review schema.ReviewRequest) error {
	req := &gh.PullRequestReviewRequest{Event: gh.String(string(review.Event))}
	if review.Body != "" {
		req.Body = gh.String(review.Body)
	}
	_, _, err := c.rest.PullRequests.CreateReview(ctx, c.owner, c.repo, number, req)
	return err
}

// RateLimitRemaining implements the Platform interface.
func (c *Client) RateLimitRemaining(ctx context.Context) (int, error) {
	limits, _, err := c.rest.RateLimit.Get(ctx)
	if err != nil {
		return 0, err
	}
	return limits.GetCore().Remaining, nil
}
