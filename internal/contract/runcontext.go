package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/ticsgate/schema"
)

// GitHub event names that carry a change-set.
const (
	PullRequestEvent       = "pull_request"
	PullRequestTargetEvent = "pull_request_target"
	PushEvent              = "push"
)

// Public GitHub endpoints used when the job does not name its own.
const (
	DefaultAPIURL     = "https://api.github.com"
	DefaultGraphQLURL = "https://api.github.com/graphql"
	DefaultServerURL  = "https://github.com"
)

// RunContext is the CI job context read from the standard GitHub Actions environment.
type RunContext struct {
	Actions     bool
	EventName   string
	Owner       string
	Repo        string
	PullRequest int
	Before      string
	After       string
	Workflow    string
	Job         string
	RunNumber   string
	RunAttempt  string
	RunID       string
	RunnerOS    string
	ServerURL   string
	APIURL      string
	GraphQLURL  string
	Workspace   string
	StepSummary string
	Debug       bool
}

// eventPayload holds the fields of the webhook payload that ticsgate needs.
type eventPayload struct {
	Number      int `json:"number"`
	PullRequest *struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// LoadRunContext reads the run context through getenv, parsing the event payload file if present.
func LoadRunContext(getenv func(string) string) (RunContext, error) {
	run := RunContext{
		Actions:     getenv("GITHUB_ACTIONS") == "true",
		EventName:   getenv("GITHUB_EVENT_NAME"),
		Workflow:    getenv("GITHUB_WORKFLOW"),
		Job:         getenv("GITHUB_JOB"),
		RunNumber:   getenv("GITHUB_RUN_NUMBER"),
		RunAttempt:  getenv("GITHUB_RUN_ATTEMPT"),
		RunID:       getenv("GITHUB_RUN_ID"),
		RunnerOS:    getenv("RUNNER_OS"),
		ServerURL:   getenv("GITHUB_SERVER_URL"),
		APIURL:      getenv("GITHUB_API_URL"),
		GraphQLURL:  getenv("GITHUB_GRAPHQL_URL"),
		Workspace:   getenv("GITHUB_WORKSPACE"),
		StepSummary: getenv("GITHUB_STEP_SUMMARY"),
		Debug:       getenv("RUNNER_DEBUG") == "1",
	}
	if run.APIURL == "" {
		run.APIURL = DefaultAPIURL
	}
	if run.GraphQLURL == "" {
		run.GraphQLURL = DefaultGraphQLURL
	}
	if run.ServerURL == "" {
		run.ServerURL = DefaultServerURL
	}

	if repository := getenv("GITHUB_REPOSITORY"); repository != "" {
		owner, repo, ok := strings.Cut(repository, "/")
		if !ok {
			return run, fmt.Errorf("GITHUB_REPOSITORY must be in the form owner/repo (received %q)", repository)
		}
		run.Owner, run.Repo = owner, repo
	}

	if eventPath := getenv("GITHUB_EVENT_PATH"); eventPath != "" {
		data, err := os.ReadFile(eventPath)
		if err != nil {
			return run, fmt.Errorf("failed to read event payload %q: %w", eventPath, err)
		}
		var payload eventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return run, fmt.Errorf("failed to parse event payload %q: %w", eventPath, err)
		}
		run.Before = payload.Before
		run.After = payload.After
		if payload.PullRequest != nil {
			run.PullRequest = payload.PullRequest.Number
		} else if run.IsPullRequest() {
			run.PullRequest = payload.Number
		}
	}
	return run, nil
}

// IsPullRequest reports whether the job was triggered by a pull request event.
func (r RunContext) IsPullRequest() bool {
	return r.EventName == PullRequestEvent || r.EventName == PullRequestTargetEvent
}

// IsPush reports whether the job was triggered by a push event.
func (r RunContext) IsPush() bool {
	return r.EventName == PushEvent
}

// RunURL returns the web page of this workflow run, or "" outside a run.
func (r RunContext) RunURL() string {
	if r.RunID == "" || r.Owner == "" || r.Repo == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/actions/runs/%s", strings.TrimSuffix(r.ServerURL, "/"), r.Owner, r.Repo, r.RunID)
}

// Identity returns the stamp identity of this job run.
func (r RunContext) Identity() schema.RunIdentity {
	return schema.RunIdentity{
		Workflow:   r.Workflow,
		Job:        r.Job,
		RunNumber:  r.RunNumber,
		RunAttempt: r.RunAttempt,
	}
}

// Platform returns the runner platform, falling back to goos when RUNNER_OS is unset.
func (r RunContext) Platform(goos string) schema.Platform {
	runnerOS := strings.ToLower(r.RunnerOS)
	if runnerOS == "" {
		runnerOS = goos
	}
	if runnerOS == string(schema.WindowsPlatform) {
		return schema.WindowsPlatform
	}
	return schema.LinuxPlatform
}
