package github

import (
	"context"

	"github.com/huangsam/ticsgate/schema"
	"github.com/shurcooL/githubv4"
)

type pullRequestFilesQuery struct {
	Repository struct {
		PullRequest struct {
			Files struct {
				Nodes []struct {
					Path       string
					ChangeType githubv4.PatchStatus
					Additions  int
					Deletions  int
				}
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage bool
				}
			} `graphql:"files(first: $first, after: $cursor)"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// QueryPullRequestFiles implements the Platform interface.
// The REST listing stops at 3000 files, the GraphQL connection does not.
func (c *Client) QueryPullRequestFiles(ctx context.Context, number int) ([]schema.ChangedFile, error) {
	vars := map[string]any{
		"owner":  githubv4.String(c.owner),
		"name":   githubv4.String(c.repo),
		"number": githubv4.Int(number),
		"first":  githubv4.Int(perPage),
		"cursor": (*githubv4.String)(nil),
	}

	var files []schema.ChangedFile
	for {
		var q pullRequestFilesQuery
		if err := c.graphql.Query(ctx, &q, vars); err != nil {
			return nil, err
		}
		conn := q.Repository.PullRequest.Files
		for _, n := range conn.Nodes {
			files = append(files, schema.ChangedFile{
				Filename:  n.Path,
				Status:    fromPatchStatus(n.ChangeType),
				Additions: n.Additions,
				Deletions: n.Deletions,
				Changes:   n.Additions + n.Deletions,
			})
		}
		if !conn.PageInfo.HasNextPage {
			return files, nil
		}
		vars["cursor"] = githubv4.NewString(conn.PageInfo.EndCursor)
	}
}

// fromPatchStatus maps GraphQL change types onto the REST file statuses.
func fromPatchStatus(s githubv4.PatchStatus) schema.FileStatus {
	switch s {
	case githubv4.PatchStatusAdded:
		return schema.AddedStatus
	case githubv4.PatchStatusDeleted:
		return schema.RemovedStatus
	case githubv4.PatchStatusRenamed:
		return schema.RenamedStatus
	case githubv4.PatchStatusCopied:
		return schema.CopiedStatus
	case githubv4.PatchStatusChanged:
		return schema.ChangedStatus
	default:
		return schema.ModifiedStatus
	}
}
