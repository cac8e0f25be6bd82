package cmd

import (
	"github.com/huangsam/ticsgate/core"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/spf13/cobra"
)

// commandCmd prints the analyzer command without running it.
var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Print the TICS command line that analyze would run",
	Long: `Resolve the changed files and print the composed TICS command line.
Nothing is executed and nothing is posted. Useful to check the option mapping
of a workflow before enabling the quality gate.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		deps, err := core.NewDependencies(cfg, log, cmd.OutOrStdout())
		if err != nil {
			contract.LogFatal("Failed to set up the pipeline", err)
		}
		line, err := core.ComposeCommand(rootCtx, cfg, deps)
		if err != nil {
			contract.LogFatal("Failed to compose the command", err)
		}
		cmd.Println(log.Mask(line))
	},
}
