package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/internal/outwriter"
	"github.com/huangsam/ticsgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testViewerURL = "http://viewer.com/tiobeweb/TICS/api/cfg?name=default"

type pipeline struct {
	cfg      *contract.Config
	platform *contract.MockPlatform
	local    *contract.MockLocalRepository
	executor *contract.MockExecutor
	viewer   *contract.MockQualityGateFetcher
	out      *bytes.Buffer
	log      *bytes.Buffer
}

func newPipeline(t *testing.T, mode schema.Mode) *pipeline {
	return &pipeline{
		cfg: &contract.Config{
			Mode:               mode,
			ViewerURL:          testViewerURL,
			BaseURL:            "http://viewer.com/tiobeweb/TICS",
			Project:            "proj",
			TmpDir:             t.TempDir(),
			TrustStrategy:      schema.StrictTrust,
			PostAnnotations:    true,
			PostToConversation: true,
			Platform:           schema.LinuxPlatform,
			Run: contract.RunContext{
				EventName:   contract.PullRequestEvent,
				Owner:       "octo",
				Repo:        "repo",
				PullRequest: 7,
				Workflow:    "W",
				Job:         "J",
				RunNumber:   "2",
				RunAttempt:  "1",
			},
		},
		platform: &contract.MockPlatform{},
		local:    &contract.MockLocalRepository{},
		executor: &contract.MockExecutor{},
		viewer:   &contract.MockQualityGateFetcher{},
		out:      &bytes.Buffer{},
		log:      &bytes.Buffer{},
	}
}

func (p *pipeline) deps() Dependencies {
	return Dependencies{
		Platform: p.platform,
		Local:    p.local,
		Executor: p.executor,
		Viewer:   p.viewer,
		Writer:   outwriter.NewOutWriter(p.out, 120),
		Log:      logging.New(logging.Options{Writer: p.log}),
	}
}

func TestExecuteAnalysis_PullRequest(t *testing.T) {
	p := newPipeline(t, schema.ClientMode)
	previous := schema.RunIdentity{Workflow: "W", Job: "J", RunNumber: "1", RunAttempt: "1"}

	p.platform.On("PullRequestFileCount", mock.Anything, 7).Return(2, nil)
	p.platform.On("ListPullRequestFiles", mock.Anything, 7, mock.Anything).Return([]schema.ChangedFile{
		{Filename: "a.go", Status: schema.ModifiedStatus, Changes: 3},
		{Filename: "b.go", Status: schema.RemovedStatus},
	}, nil)
	p.platform.On("ListIssueComments", mock.Anything, 7).Return([]schema.Comment{
		{ID: 1, Body: "old report\n" + previous.Stamp()},
		{ID: 2, Body: "LGTM"},
	}, nil)
	p.platform.On("ListReviewComments", mock.Anything, 7).Return(nil, nil)
	p.platform.On("DeleteIssueComment", mock.Anything, int64(1)).Return(nil)
	p.platform.On("CreateIssueComment", mock.Anything, 7, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "## TICS Quality Gate") &&
			strings.HasSuffix(body, "<!--tics-decoration:W|J|2|1-->")
	})).Return(nil)

	p.executor.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.Contains(cmd, "TICS -ide github '@"+filepath.Join(p.cfg.TmpDir, contract.FileListName)+"' -viewer")
	}), mock.Anything).Return(schema.AnalysisResult{
		Completed:    true,
		ExplorerURLs: []string{explorerA},
	})
	p.viewer.On("QualityGate", mock.Anything, schema.GateFilter{Project: "proj", ClientData: "tokA"}).Return(failingGate(1), nil)

	v, err := ExecuteAnalysis(context.Background(), p.cfg, p.deps())
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.False(t, v.Passed)
	assert.Equal(t, "Quality gate failed: 1 condition(s) did not pass", v.Message)
	p.platform.AssertExpectations(t)
	p.executor.AssertExpectations(t)
	p.viewer.AssertExpectations(t)
	p.platform.AssertNotCalled(t, "DeleteIssueComment", mock.Anything, int64(2))

	data, err := os.ReadFile(filepath.Join(p.cfg.TmpDir, contract.FileListName))
	require.NoError(t, err)
	assert.Equal(t, "a.go\n", string(data))
	assert.Contains(t, p.out.String(), "Quality gate failed")
}

func TestExecuteAnalysis_EmptyChangeSetPasses(t *testing.T) {
	p := newPipeline(t, schema.ClientMode)
	p.platform.On("PullRequestFileCount", mock.Anything, 7).Return(1, nil)
	p.platform.On("ListPullRequestFiles", mock.Anything, 7, mock.Anything).Return([]schema.ChangedFile{
		{Filename: "gone.go", Status: schema.RemovedStatus},
	}, nil)

	v, err := ExecuteAnalysis(context.Background(), p.cfg, p.deps())
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Empty(t, p.executor.Calls)
	assert.Empty(t, p.viewer.Calls)
	assert.Contains(t, p.log.String(), "No changed files found to analyze")
}

func TestExecuteAnalysis_IncompleteRun(t *testing.T) {
	p := newPipeline(t, schema.ClientMode)
	p.cfg.Run = contract.RunContext{Workflow: "W", Job: "J", RunNumber: "2"}

	p.local.On("ChangedFiles", mock.Anything).Return([]schema.ChangedFile{
		{Filename: "main.go", Status: schema.AddedStatus},
	}, nil)
	p.executor.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(schema.AnalysisResult{
		StatusCode: schema.StatusNotStarted,
		ErrorList:  []string{"exec: \"/bin/bash\": not found"},
	})

	v, err := ExecuteAnalysis(context.Background(), p.cfg, p.deps())
	require.NoError(t, err)
	assert.False(t, v.Passed)
	assert.Equal(t, schema.IncompleteRunMessage, v.Message)
	assert.Empty(t, p.viewer.Calls)
	assert.Empty(t, p.platform.Calls)
}

func TestExecuteAnalysis_Diagnostic(t *testing.T) {
	p := newPipeline(t, schema.DiagnosticMode)
	p.cfg.PostToConversation = false
	p.platform.On("ListIssueComments", mock.Anything, 7).Return(nil, errors.New("403"))
	p.platform.On("ListReviewComments", mock.Anything, 7).Return(nil, nil)
	p.executor.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.Contains(cmd, "TICS -ide github -help")
	}), mock.Anything).Return(schema.AnalysisResult{Completed: true})

	v, err := ExecuteAnalysis(context.Background(), p.cfg, p.deps())
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Empty(t, p.viewer.Calls)
	p.platform.AssertNotCalled(t, "PullRequestFileCount", mock.Anything, mock.Anything)
	p.platform.AssertNotCalled(t, "CreateIssueComment", mock.Anything, mock.Anything, mock.Anything)
	assert.Contains(t, p.log.String(), "::notice::Could not list comments: 403")
}

func TestExecuteAnalysis_ChangeSetError(t *testing.T) {
	p := newPipeline(t, schema.ClientMode)
	p.platform.On("PullRequestFileCount", mock.Anything, 7).Return(0, errors.New("401 Bad credentials"))

	v, err := ExecuteAnalysis(context.Background(), p.cfg, p.deps())
	assert.Nil(t, v)
	assert.ErrorContains(t, err, "failed to resolve changed files")
	assert.Empty(t, p.executor.Calls)
}

func TestExecuteAnalysis_InstallURL(t *testing.T) {
	p := newPipeline(t, schema.QServerMode)
	p.cfg.InstallTics = true
	p.cfg.Run = contract.RunContext{}

	installer := &contract.MockInstaller{}
	installer.On("InstallURL", mock.Anything, schema.LinuxPlatform).Return("", errors.New("no install url"))
	deps := p.deps()
	deps.Installer = installer

	_, err := ExecuteAnalysis(context.Background(), p.cfg, deps)
	assert.ErrorContains(t, err, "failed to retrieve the TICS install url")
	assert.Empty(t, p.executor.Calls)
}

func TestComposeCommand(t *testing.T) {
	p := newPipeline(t, schema.ClientMode)
	p.cfg.Run = contract.RunContext{}
	p.cfg.Calc = "GATE"
	p.local.On("ChangedFiles", mock.Anything).Return([]schema.ChangedFile{
		{Filename: "main.go", Status: schema.ModifiedStatus},
	}, nil)

	cmd, err := ComposeCommand(context.Background(), p.cfg, p.deps())
	require.NoError(t, err)
	path := filepath.Join(p.cfg.TmpDir, contract.FileListName)
	assert.Equal(t, `/bin/bash -c "TICS='`+testViewerURL+`' TICS -ide github '@`+path+`' -viewer -project 'proj' -calc GATE -tmpdir '`+p.cfg.TmpDir+`'"`, cmd)
	assert.Empty(t, p.executor.Calls)
}

func TestComposeCommand_NoFiles(t *testing.T) {
	p := newPipeline(t, schema.ClientMode)
	p.cfg.Run = contract.RunContext{}
	p.local.On("ChangedFiles", mock.Anything).Return(nil, nil)

	_, err := ComposeCommand(context.Background(), p.cfg, p.deps())
	assert.ErrorContains(t, err, "no changed files")
}

func TestNewDependencies(t *testing.T) {
	cfg := &contract.Config{
		ViewerURL: testViewerURL,
		BaseURL:   "http://viewer.com/tiobeweb/TICS",
		Run:       contract.RunContext{APIURL: contract.DefaultAPIURL, GraphQLURL: contract.DefaultGraphQLURL},
	}

	deps, err := NewDependencies(cfg, logging.Nop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, deps.Platform)
	assert.Nil(t, deps.Notifier)
	assert.NotNil(t, deps.Viewer)
	assert.NotNil(t, deps.Executor)

	cfg.GithubToken = "token"
	cfg.Run.Owner, cfg.Run.Repo = "octo", "repo"
	cfg.NotifyURLs = []string{"generic://example.com/hook"}
	deps, err = NewDependencies(cfg, logging.Nop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotNil(t, deps.Platform)
	assert.NotNil(t, deps.Notifier)
}

func TestMessageData(t *testing.T) {
	tests := []struct {
		name string
		run  contract.RunContext
		ref  string
		url  string
	}{
		{
			name: "pull request run",
			run: contract.RunContext{EventName: contract.PullRequestEvent, Owner: "octo", Repo: "repo", PullRequest: 7,
				ServerURL: contract.DefaultServerURL, RunID: "555"},
			ref: "#7",
			url: "https://github.com/octo/repo/actions/runs/555",
		},
		{
			name: "push without run id",
			run:  contract.RunContext{EventName: contract.PushEvent, Owner: "octo", Repo: "repo", After: "def"},
			ref:  "def",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := messageData(schema.Verdict{Passed: true}, tt.run)
			assert.Equal(t, "octo/repo", data.Repository)
			assert.Equal(t, tt.ref, data.Ref)
			assert.Equal(t, tt.url, data.RunURL)
		})
	}
}
