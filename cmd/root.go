package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ErrQualityGateFailed is returned by the analyze command when the verdict did not pass.
var ErrQualityGateFailed = errors.New("quality gate failed")

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// log is the job logger, ready after sharedSetup.
var log = logging.Nop()

// envPrefix is the prefix GitHub Actions puts in front of action inputs.
const envPrefix = "INPUT"

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "ticsgate",
	Short:              "Run TICS on the changes of a CI job and enforce its quality gate.",
	Long:               `Ticsgate runs the TICS analyzer on the changed files of a pull request or push, checks the quality gate and reports the verdict back to GitHub.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".ticsgate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for key, value := range contract.Defaults() {
		viper.SetDefault(key, value)
	}
	bindInputEnv()
}

// bindInputEnv also accepts the hyphenated variable names the runner exports
// and the conventional token variables.
func bindInputEnv() {
	bind := func(key string, extra ...string) {
		names := []string{
			envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_")),
			envPrefix + "_" + strings.ToUpper(key),
		}
		if err := viper.BindEnv(append(append([]string{key}, names...), extra...)...); err != nil {
			contract.LogFatal("Error binding environment", err)
		}
	}
	for _, key := range viper.AllKeys() {
		switch key {
		case "config", "github-token", "tics-auth-token":
			continue
		}
		bind(key)
	}
	bind("github-token", "GITHUB_TOKEN")
	bind("tics-auth-token", "TICSAUTHTOKEN")
}

// sharedSetup unmarshals config, reads the run context and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	input.FileKeys = configFileKeys()

	// 3. Read the CI job context.
	run, err := contract.LoadRunContext(os.Getenv)
	if err != nil {
		return err
	}

	// 4. Run all validation and complex parsing into the global 'cfg'.
	if err := contract.ProcessAndValidate(cfg, input, run); err != nil {
		return err
	}

	setupColor(run.Actions)
	log = logging.New(logging.Options{Debug: cfg.Debug, Writer: os.Stdout, Secrets: cfg.SecretsFilter})
	contract.SetFatalMask(log.Mask)
	return nil
}

// configFileKeys lists the inputs whose resolved value comes from the config
// file rather than from a flag or the environment.
func configFileKeys() map[string]bool {
	keys := make(map[string]bool)
	path := viper.ConfigFileUsed()
	if path == "" {
		return keys
	}
	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return keys
	}
	for _, key := range file.AllKeys() {
		if viper.InConfig(key) && file.GetString(key) == viper.GetString(key) {
			keys[key] = true
		}
	}
	return keys
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// setupColor keeps colors in the job log, which is not a terminal.
func setupColor(actions bool) {
	color.NoColor = !actions && !term.IsTerminal(int(os.Stdout.Fd()))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
