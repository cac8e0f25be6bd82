package cmd

import (
	"github.com/huangsam/ticsgate/core"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd runs the full pipeline for the current CI job.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the changed files and enforce the TICS quality gate",
	Long: `Resolve the changed files of the triggering event, run TICS on them and check
the quality gate. The verdict is printed, written to the step summary and posted
on the pull request. The command exits non-zero when the quality gate fails.

Examples:
  # Inside a GitHub workflow, inputs come from INPUT_* variables
  ticsgate analyze

  # Run locally against the last commit
  ticsgate analyze --viewer-url https://host/tiobeweb/TICS/api/cfg?name=default --project my-project

  # Server-side analysis of a branch
  ticsgate analyze --mode qserver --project my-project --branchname main`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		deps, err := core.NewDependencies(cfg, log, cmd.OutOrStdout())
		if err != nil {
			contract.LogFatal("Failed to set up the pipeline", err)
		}

		verdict, err := core.ExecuteAnalysis(rootCtx, cfg, deps)
		if err != nil {
			contract.LogFatal("Analysis failed", err)
		}
		if !verdict.Passed {
			log.Error(nil, verdict.Message)
			return ErrQualityGateFailed
		}
		return nil
	},
}
