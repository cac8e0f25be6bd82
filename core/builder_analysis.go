package core

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/ticsgate/internal/changeset"
	"github.com/huangsam/ticsgate/internal/command"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/internal/notify"
	"github.com/huangsam/ticsgate/internal/outwriter"
	"github.com/huangsam/ticsgate/schema"
)

// Dependencies bundles the collaborators of one pipeline run.
type Dependencies struct {
	Platform  contract.Platform // Nil without a GitHub token
	Local     contract.LocalRepository
	Executor  contract.Executor
	Viewer    contract.QualityGateFetcher
	Installer contract.Installer
	Writer    *outwriter.OutWriter
	Notifier  *notify.Notifier
	Log       *logging.Logger
}

// AnalysisBuilder runs the pipeline using a builder pattern.
type AnalysisBuilder struct {
	ctx         context.Context
	cfg         *contract.Config
	deps        Dependencies
	changeSet   schema.ChangeSet
	commandLine string
	result      schema.AnalysisResult
	verdict     *schema.Verdict
}

// NewAnalysisBuilder creates a new builder for one pipeline run.
func NewAnalysisBuilder(ctx context.Context, cfg *contract.Config, deps Dependencies) *AnalysisBuilder {
	return &AnalysisBuilder{ctx: ctx, cfg: cfg, deps: deps}
}

// ResolveChangeSet resolves the files to analyze in client mode. An empty
// change-set ends the run with a passing verdict.
func (b *AnalysisBuilder) ResolveChangeSet() (*AnalysisBuilder, error) {
	if b.cfg.Mode != schema.ClientMode {
		return b, nil
	}

	resolver := changeset.NewResolver(b.deps.Platform, b.deps.Local, b.cfg.Run, changeset.Options{
		FileList:                b.cfg.FileList,
		TmpDir:                  b.cfg.TmpDir,
		ExcludeMovedFiles:       b.cfg.ExcludeMovedFiles,
		IncludeUnchangedRenames: b.cfg.IncludeUnchangedRenames,
	}, b.deps.Log)

	set, err := resolver.Resolve(b.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve changed files: %w", err)
	}
	if len(set.Files) == 0 {
		b.deps.Log.Info("No changed files found to analyze")
		b.verdict = &schema.Verdict{Passed: true}
		return b, nil
	}
	b.changeSet = set
	return b, nil
}

// PrepareCommand validates the options and composes the command line.
func (b *AnalysisBuilder) PrepareCommand() (*AnalysisBuilder, error) {
	warnings, err := command.ValidateOptions(b.cfg.Mode, b.cfg.OptionValues())
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		b.deps.Log.Warn(w)
	}

	var installURL string
	if b.cfg.InstallTics {
		installURL, err = b.deps.Installer.InstallURL(b.ctx, b.cfg.Platform)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve the TICS install url: %w", err)
		}
	}

	b.commandLine, err = command.Build(command.Invocation{
		Platform:      b.cfg.Platform,
		Mode:          b.cfg.Mode,
		FileListPath:  b.changeSet.Path,
		Values:        b.cfg.OptionValues(),
		ViewerURL:     b.cfg.ViewerURL,
		InstallURL:    installURL,
		TrustStrategy: b.cfg.TrustStrategy,
		Debug:         b.cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RunAnalysis runs the analyzer. Its failures are carried in the result.
func (b *AnalysisBuilder) RunAnalysis() *AnalysisBuilder {
	b.deps.Log.Infof("Running TICS in %s mode", b.cfg.Mode)
	b.result = b.deps.Executor.Run(b.ctx, b.commandLine, b.cfg.AnalyzerEnv())
	return b
}

// BuildVerdict assembles the verdict and fetches the annotations of failing conditions.
func (b *AnalysisBuilder) BuildVerdict() *AnalysisBuilder {
	filterFor := ClientFilter
	if b.cfg.Mode == schema.QServerMode {
		filterFor = QServerFilter(b.deps.Viewer, b.cfg.Project, b.cfg.BranchName)
	}

	verdict := AssembleVerdict(b.ctx, b.cfg.Mode, b.result, b.deps.Viewer, filterFor)
	if b.cfg.PostAnnotations && !verdict.Passed {
		AttachAnnotations(b.ctx, b.deps.Viewer, &verdict, b.deps.Log)
	}
	b.verdict = &verdict
	return b
}

// Publish prints the verdict and reports it to every configured channel.
// Nothing published here changes the verdict.
func (b *AnalysisBuilder) Publish() *AnalysisBuilder {
	v := *b.verdict
	log := b.deps.Log

	if err := b.deps.Writer.WriteVerdict(v); err != nil {
		log.Warnf("Could not print the verdict: %v", err)
	}

	report, err := b.deps.Writer.Report(outwriter.ReportData{Verdict: v, Mode: b.cfg.Mode, FileCount: len(b.changeSet.Files)})
	if err != nil {
		log.Warnf("Could not render the report: %v", err)
	}
	if report != "" {
		if err := b.deps.Writer.WriteSummary(b.cfg.Run.StepSummary, report); err != nil {
			log.Warnf("Could not write the step summary: %v", err)
		}
	}

	b.reconcile(report)

	if b.deps.Notifier != nil {
		b.deps.Notifier.Notify(messageData(v, b.cfg.Run))
	}
	return b
}

// reconcile replaces the comments of earlier runs and posts annotations.
func (b *AnalysisBuilder) reconcile(report string) {
	run := b.cfg.Run
	log := b.deps.Log
	in := ReconcileInput{
		Verdict:           *b.verdict,
		Identity:          run.Identity(),
		ShowBlockingAfter: b.cfg.ShowBlockingAfter,
		PostAnnotations:   b.cfg.PostAnnotations,
	}

	onPullRequest := run.IsPullRequest() && run.PullRequest > 0 && b.deps.Platform != nil
	if onPullRequest {
		in.Approval = b.cfg.PullRequestApproval
		if b.cfg.PostToConversation {
			in.Body = report
		}
		comments, err := b.deps.Platform.ListIssueComments(b.ctx, run.PullRequest)
		if err != nil {
			log.Notice(fmt.Sprintf("Could not list comments: %v", err))
		}
		in.Comments = comments
		reviewComments, err := b.deps.Platform.ListReviewComments(b.ctx, run.PullRequest)
		if err != nil {
			log.Notice(fmt.Sprintf("Could not list review comments: %v", err))
		}
		in.ReviewComments = reviewComments
	}

	plan := Reconcile(in, log)
	platform := b.deps.Platform
	if !onPullRequest {
		platform = nil
	}
	if failed := Report(b.ctx, platform, run.PullRequest, plan, log); failed > 0 {
		log.Debugf("%d reporting call(s) failed", failed)
	}
}

// GetResult returns the verdict, nil until one is known.
func (b *AnalysisBuilder) GetResult() *schema.Verdict {
	return b.verdict
}

// GetCommandLine returns the composed command line.
func (b *AnalysisBuilder) GetCommandLine() string {
	return b.commandLine
}

// messageData describes the verdict of this run for notifications.
func messageData(v schema.Verdict, run contract.RunContext) notify.MessageData {
	return notify.MessageData{
		Verdict:    v,
		Repository: repository(run),
		Ref:        ref(run),
		RunURL:     run.RunURL(),
	}
}

func repository(run contract.RunContext) string {
	if run.Owner == "" {
		return ""
	}
	return run.Owner + "/" + run.Repo
}

func ref(run contract.RunContext) string {
	switch {
	case run.IsPullRequest() && run.PullRequest > 0:
		return fmt.Sprintf("#%d", run.PullRequest)
	case run.After != "":
		return run.After
	default:
		return ""
	}
}

// workingDir returns the job workspace or the current directory.
func workingDir(run contract.RunContext) string {
	if run.Workspace != "" {
		return run.Workspace
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
