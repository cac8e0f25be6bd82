package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/ticsgate/internal/changeset"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/execution"
	"github.com/huangsam/ticsgate/internal/github"
	"github.com/huangsam/ticsgate/internal/httpclient"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/internal/notify"
	"github.com/huangsam/ticsgate/internal/outwriter"
	"github.com/huangsam/ticsgate/internal/viewer"
	"github.com/huangsam/ticsgate/schema"
)

// NewDependencies wires the production collaborators for cfg.
func NewDependencies(cfg *contract.Config, log *logging.Logger, out io.Writer) (Dependencies, error) {
	viewerHTTP := httpclient.New(httpclient.Options{
		RetryCodes:           cfg.RetryCodes,
		RetryDelay:           cfg.RetryDelay,
		MaxRetries:           cfg.MaxRetries,
		TrustStrategy:        cfg.TrustStrategy,
		HostnameVerification: cfg.HostnameVerification,
		AuthToken:            cfg.TicsAuthToken,
		Logger:               log,
	})
	tics := viewer.New(viewerHTTP, cfg.BaseURL, cfg.ViewerURL, log)

	deps := Dependencies{
		Local:     changeset.NewLocalGitRepository(workingDir(cfg.Run)),
		Executor:  execution.NewRunner(log, cfg.DisplayURL),
		Viewer:    tics,
		Installer: tics,
		Writer:    outwriter.NewOutWriter(out, 0),
		Log:       log,
	}
	if len(cfg.NotifyURLs) > 0 {
		deps.Notifier = notify.New(cfg.NotifyURLs, log)
	}

	if cfg.GithubToken != "" && cfg.Run.Owner != "" {
		hc := github.NewHTTPClient(cfg.GithubToken, httpclient.Options{
			RetryCodes: cfg.RetryCodes,
			RetryDelay: cfg.RetryDelay,
			MaxRetries: cfg.MaxRetries,
			Logger:     log,
		})
		platform, err := github.New(hc, cfg.Run.Owner, cfg.Run.Repo, cfg.Run.APIURL, cfg.Run.GraphQLURL)
		if err != nil {
			return Dependencies{}, err
		}
		deps.Platform = platform
	}
	return deps, nil
}

// ExecuteAnalysis runs the whole pipeline and returns the verdict.
// Errors are only returned for configuration and change-set failures that
// prevent the analyzer from running.
func ExecuteAnalysis(ctx context.Context, cfg *contract.Config, deps Dependencies) (*schema.Verdict, error) {
	start := time.Now()
	builder := NewAnalysisBuilder(ctx, cfg, deps)

	if _, err := builder.ResolveChangeSet(); err != nil {
		return nil, err
	}
	if verdict := builder.GetResult(); verdict != nil {
		// Early success case
		return verdict, nil
	}

	if _, err := builder.PrepareCommand(); err != nil {
		return nil, err
	}

	builder.RunAnalysis().BuildVerdict().Publish()

	logRateLimit(ctx, deps)
	deps.Log.Debugf("Pipeline finished in %v", time.Since(start).Round(time.Millisecond))
	return builder.GetResult(), nil
}

// ComposeCommand resolves the change-set and returns the command line that
// ExecuteAnalysis would run. Nothing is executed.
func ComposeCommand(ctx context.Context, cfg *contract.Config, deps Dependencies) (string, error) {
	builder := NewAnalysisBuilder(ctx, cfg, deps)
	if _, err := builder.ResolveChangeSet(); err != nil {
		return "", err
	}
	if builder.GetResult() != nil {
		return "", fmt.Errorf("no changed files found to analyze")
	}
	if _, err := builder.PrepareCommand(); err != nil {
		return "", err
	}
	return builder.GetCommandLine(), nil
}

func logRateLimit(ctx context.Context, deps Dependencies) {
	if deps.Platform == nil || !deps.Log.DebugEnabled() {
		return
	}
	remaining, err := deps.Platform.RateLimitRemaining(ctx)
	if err != nil {
		deps.Log.Debugf("Could not read the GitHub rate limit: %v", err)
		return
	}
	deps.Log.Debugf("GitHub API calls remaining: %d", remaining)
}
