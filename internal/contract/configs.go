package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/a8m/envsubst"
	"github.com/huangsam/ticsgate/schema"
)

// Default values for configuration.
const (
	DefaultRetryDelay  = 5 // seconds
	DefaultMaxRetries  = 10
	DefaultProject     = "auto"
	FileListName       = "changedFiles.txt"
	apiPathSegment     = "/api/"
	defaultTmpDirName  = "ticsgate"
	defaultRetryCodes  = "419,500,501,502,503,504"
	defaultHostnameVer = "true"
)

// Names of the analyzer options, shared by the configuration and the option table.
const (
	ProjectOption         = "project"
	BranchNameOption      = "branchname"
	BranchDirOption       = "branchdir"
	CdTokenOption         = "cdtoken"
	CodeTypeOption        = "codetype"
	CalcOption            = "calc"
	NoCalcOption          = "nocalc"
	NoRecalcOption        = "norecalc"
	RecalcOption          = "recalc"
	TmpDirOption          = "tmpdir"
	AdditionalFlagsOption = "additionalFlags"
)

// Config holds the runtime configuration for one job.
// This struct is the "final, validated" config.
type Config struct {
	Mode       schema.Mode
	ViewerURL  string // Configuration URL handed to the analyzer
	BaseURL    string // ViewerURL up to the /api/ segment
	DisplayURL string // Externally reachable viewer, used for explorer links

	Project         string
	BranchName      string
	BranchDir       string
	CdToken         string
	CodeType        string
	Calc            string
	NoCalc          string
	NoRecalc        string
	Recalc          string
	TmpDir          string
	AdditionalFlags string
	FileList        string

	InstallTics          bool
	TrustStrategy        schema.TrustStrategy
	HostnameVerification bool
	TicsAuthToken        string // Please use env var as this is plaintext
	GithubToken          string // Please use env var as this is plaintext

	ExcludeMovedFiles       bool
	IncludeUnchangedRenames bool
	ShowBlockingAfter       bool
	PostAnnotations         bool
	PostToConversation      bool
	PullRequestApproval     bool

	RetryCodes    []int
	RetryDelay    time.Duration
	MaxRetries    int
	SecretsFilter []string
	NotifyURLs    []string

	Debug    bool
	Platform schema.Platform
	Run      RunContext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Mode       string `mapstructure:"mode" validate:"oneof=client qserver diagnostic"`
	ViewerURL  string `mapstructure:"viewer-url" validate:"required,url"`
	DisplayURL string `mapstructure:"display-url" validate:"omitempty,url"`

	Project         string `mapstructure:"project"`
	BranchName      string `mapstructure:"branchname"`
	BranchDir       string `mapstructure:"branchdir"`
	CdToken         string `mapstructure:"cdtoken"`
	CodeType        string `mapstructure:"codetype"`
	Calc            string `mapstructure:"calc"`
	NoCalc          string `mapstructure:"nocalc"`
	NoRecalc        string `mapstructure:"norecalc"`
	Recalc          string `mapstructure:"recalc"`
	FileList        string `mapstructure:"filelist"`
	TmpDir          string `mapstructure:"tmpdir"`
	AdditionalFlags string `mapstructure:"additional-flags"`

	InstallTics          bool   `mapstructure:"install-tics"`
	TrustStrategy        string `mapstructure:"trust-strategy" validate:"oneof=strict self-signed all"`
	HostnameVerification string `mapstructure:"hostname-verification" validate:"boolstring"`
	TicsAuthToken        string `mapstructure:"tics-auth-token"`
	GithubToken          string `mapstructure:"github-token"`

	ExcludeMovedFiles       bool `mapstructure:"exclude-moved-files"`
	IncludeUnchangedRenames bool `mapstructure:"include-unchanged-renames"`
	ShowBlockingAfter       bool `mapstructure:"show-blocking-after"`
	PostAnnotations         bool `mapstructure:"post-annotations"`
	PostToConversation      bool `mapstructure:"post-to-conversation"`
	PullRequestApproval     bool `mapstructure:"pull-request-approval"`

	RetryCodes    string `mapstructure:"retry-codes" validate:"retrycodes"`
	RetryDelay    int    `mapstructure:"retry-delay" validate:"gte=0"`
	MaxRetries    int    `mapstructure:"max-retries" validate:"gte=0"`
	SecretsFilter string `mapstructure:"secrets-filter"`
	NotifyURLs    string `mapstructure:"notify-urls"`

	Debug bool `mapstructure:"debug"`

	// FileKeys names the inputs whose value was read from the config file.
	// Only those are expanded.
	FileKeys map[string]bool `mapstructure:"-"`
}

// Defaults returns the default value of every input that has one, keyed by input name.
func Defaults() map[string]any {
	return map[string]any{
		"mode":                  string(schema.ClientMode),
		"project":               DefaultProject,
		"trust-strategy":        string(schema.StrictTrust),
		"hostname-verification": defaultHostnameVer,
		"retry-codes":           defaultRetryCodes,
		"retry-delay":           DefaultRetryDelay,
		"max-retries":           DefaultMaxRetries,
		"post-annotations":      true,
		"post-to-conversation":  true,
	}
}

// OptionValues returns the analyzer option values keyed by option name.
func (c *Config) OptionValues() map[string]string {
	return map[string]string{
		ProjectOption:         c.Project,
		BranchNameOption:      c.BranchName,
		BranchDirOption:       c.BranchDir,
		CdTokenOption:         c.CdToken,
		CodeTypeOption:        c.CodeType,
		CalcOption:            c.Calc,
		NoCalcOption:          c.NoCalc,
		NoRecalcOption:        c.NoRecalc,
		RecalcOption:          c.Recalc,
		TmpDirOption:          c.TmpDir,
		AdditionalFlagsOption: c.AdditionalFlags,
	}
}

// AnalyzerEnv returns the environment handed to the analyzer process.
func (c *Config) AnalyzerEnv() map[string]string {
	env := map[string]string{
		"TICSTRUSTSTRATEGY":        string(c.TrustStrategy),
		"TICSHOSTNAMEVERIFICATION": strconv.FormatBool(c.HostnameVerification),
	}
	if c.TicsAuthToken != "" {
		env["TICSAUTHTOKEN"] = c.TicsAuthToken
	}
	return env
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, run RunContext) error {
	if err := expandInputs(input); err != nil {
		return err
	}
	if err := validatorInstance().Struct(input); err != nil {
		return convertValidationError(err)
	}
	if err := validateSimpleInputs(cfg, input, run); err != nil {
		return err
	}
	if err := processViewerURLs(cfg, input); err != nil {
		return err
	}
	if err := processRetrySettings(cfg, input); err != nil {
		return err
	}
	processSecrets(cfg, input)
	processTmpDir(cfg, input)
	return nil
}

// unexpandedInputs never go through expansion, as their values are secrets.
var unexpandedInputs = map[string]bool{
	"tics-auth-token": true,
	"github-token":    true,
}

// expandInputs resolves ${VAR} references in the string inputs read from the
// config file. Values from the environment or flags are taken literally.
func expandInputs(input *ConfigRawInput) error {
	v := reflect.ValueOf(input).Elem()
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if field.Kind() != reflect.String || field.String() == "" {
			continue
		}
		key := t.Field(i).Tag.Get("mapstructure")
		if !input.FileKeys[key] || unexpandedInputs[key] {
			continue
		}
		expanded, err := envsubst.String(field.String())
		if err != nil {
			return &ConfigError{Param: key, Reason: err.Error()}
		}
		field.SetString(expanded)
	}
	return nil
}

// validateSimpleInputs transfers the fields that need no further processing.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput, run RunContext) error {
	cfg.Run = run
	cfg.Mode = schema.Mode(input.Mode)
	cfg.TrustStrategy = schema.TrustStrategy(input.TrustStrategy)
	cfg.Platform = run.Platform(runtimeGOOS)

	cfg.Project = strings.TrimSpace(input.Project)
	cfg.BranchName = input.BranchName
	cfg.BranchDir = input.BranchDir
	cfg.CdToken = input.CdToken
	cfg.CodeType = input.CodeType
	cfg.Calc = input.Calc
	cfg.NoCalc = input.NoCalc
	cfg.NoRecalc = input.NoRecalc
	cfg.Recalc = input.Recalc
	cfg.AdditionalFlags = strings.TrimSpace(input.AdditionalFlags)

	cfg.InstallTics = input.InstallTics
	cfg.TicsAuthToken = input.TicsAuthToken
	cfg.GithubToken = input.GithubToken
	cfg.ExcludeMovedFiles = input.ExcludeMovedFiles
	cfg.IncludeUnchangedRenames = input.IncludeUnchangedRenames
	cfg.ShowBlockingAfter = input.ShowBlockingAfter
	cfg.PostAnnotations = input.PostAnnotations
	cfg.PostToConversation = input.PostToConversation
	cfg.PullRequestApproval = input.PullRequestApproval
	cfg.NotifyURLs = SplitList(input.NotifyURLs)
	cfg.Debug = input.Debug || run.Debug

	hv := input.HostnameVerification
	if hv == "" {
		hv = defaultHostnameVer
	}
	hostnameVerification, err := ParseBoolString(hv)
	if err != nil {
		return &ConfigError{Param: "hostname-verification", Reason: err.Error()}
	}
	cfg.HostnameVerification = hostnameVerification

	if input.FileList != "" {
		abs, err := filepath.Abs(input.FileList)
		if err != nil {
			return &ConfigError{Param: "filelist", Reason: err.Error()}
		}
		cfg.FileList = abs
	}
	return nil
}

// processViewerURLs derives the viewer base and display URLs.
func processViewerURLs(cfg *Config, input *ConfigRawInput) error {
	cfg.ViewerURL = input.ViewerURL
	base, _, found := strings.Cut(input.ViewerURL, apiPathSegment)
	if !found {
		return &ConfigError{Param: "viewer-url", Reason: fmt.Sprintf("missing %q segment in %q", "api/", input.ViewerURL)}
	}
	cfg.BaseURL = base
	cfg.DisplayURL = strings.TrimSuffix(input.DisplayURL, "/")
	if cfg.DisplayURL == "" {
		cfg.DisplayURL = base
	}
	return nil
}

// processRetrySettings parses the retry codes and delay.
func processRetrySettings(cfg *Config, input *ConfigRawInput) error {
	codes, err := ParseRetryCodes(input.RetryCodes)
	if err != nil {
		return &ConfigError{Param: "retry-codes", Reason: err.Error()}
	}
	cfg.RetryCodes = codes
	cfg.RetryDelay = time.Duration(input.RetryDelay) * time.Second
	cfg.MaxRetries = input.MaxRetries
	return nil
}

// processSecrets merges the user secrets filter into the defaults.
func processSecrets(cfg *Config, input *ConfigRawInput) {
	cfg.SecretsFilter = slices.Clone(schema.DefaultSecretsFilter)
	for _, word := range SplitList(input.SecretsFilter) {
		if !slices.Contains(cfg.SecretsFilter, word) {
			cfg.SecretsFilter = append(cfg.SecretsFilter, word)
		}
	}
}

// processTmpDir keeps the analyzer logs of debug runs in a per-run directory.
func processTmpDir(cfg *Config, input *ConfigRawInput) {
	cfg.TmpDir = strings.TrimSpace(input.TmpDir)
	if cfg.TmpDir != "" || !cfg.Debug {
		return
	}
	id := cfg.Run.Identity()
	name := strings.Join([]string{id.Workflow, id.Job, id.RunNumber, id.RunAttempt}, "_")
	name = strings.Trim(strings.Map(sanitizePathRune, name), "_")
	if name == "" {
		name = "local"
	}
	cfg.TmpDir = filepath.Join(os.TempDir(), defaultTmpDirName, name)
}

func sanitizePathRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		return r
	default:
		return '_'
	}
}

// ParseRetryCodes parses a comma separated list of HTTP status codes.
func ParseRetryCodes(s string) ([]int, error) {
	parts := SplitList(s)
	if len(parts) == 0 {
		return slices.Clone(schema.DefaultRetryCodes), nil
	}
	codes := make([]int, 0, len(parts))
	for _, p := range parts {
		code, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q is not a status code", p)
		}
		if code < 100 || code > 599 {
			return nil, fmt.Errorf("status code %d is out of range", code)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
