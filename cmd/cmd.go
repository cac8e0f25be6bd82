// Package cmd defines the command-line interface for ticsgate.
package cmd

import (
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("mode", string(schema.ClientMode), "Analysis mode: client or qserver or diagnostic")
	flags.String("viewer-url", "", "TICS configuration URL, e.g. https://host/tiobeweb/TICS/api/cfg?name=default")
	flags.String("display-url", "", "Viewer URL used in explorer links, defaults to the viewer-url base")
	flags.String("project", contract.DefaultProject, "TICS project name")
	flags.String("branchname", "", "TICS branch name")
	flags.String("branchdir", "", "Branch directory for qserver runs")
	flags.String("cdtoken", "", "Client-data token for client runs")
	flags.String("codetype", "", "Code type: PRODUCTION or TESTCODE or EXTERNAL or GENERATED")
	flags.String("calc", "", "Metrics to calculate")
	flags.String("nocalc", "", "Metrics not to calculate")
	flags.String("norecalc", "", "Metrics not to recalculate")
	flags.String("recalc", "", "Metrics to recalculate")
	flags.String("filelist", "", "Path to a file listing the files to analyze")
	flags.String("tmpdir", "", "Directory for the file list and analyzer logs")
	flags.String("additional-flags", "", "Extra flags appended to the analyzer command")
	flags.Bool("install-tics", false, "Install TICS before running the analysis")
	flags.String("trust-strategy", string(schema.StrictTrust), "TLS trust: strict or self-signed or all")
	flags.String("hostname-verification", "true", "Verify the viewer hostname (true/false/1/0)")
	flags.Bool("exclude-moved-files", false, "Do not analyze renamed files")
	flags.Bool("include-unchanged-renames", false, "Analyze renamed files without content changes")
	flags.Bool("show-blocking-after", false, "Post annotations for findings that block in the future")
	flags.Bool("post-annotations", true, "Post findings as annotations")
	flags.Bool("post-to-conversation", true, "Post the quality gate report on the pull request")
	flags.Bool("pull-request-approval", false, "Approve or request changes based on the verdict")
	flags.String("retry-codes", "", "Comma-separated HTTP status codes to retry")
	flags.Int("retry-delay", contract.DefaultRetryDelay, "Seconds between retries")
	flags.Int("max-retries", contract.DefaultMaxRetries, "Retries of a failed request; the first attempt is not counted, so up to max-retries+1 requests are sent")
	flags.String("secrets-filter", "", "Comma-separated words whose values are masked in the log")
	flags.String("notify-urls", "", "Comma-separated shoutrrr URLs notified of the verdict")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}
}
