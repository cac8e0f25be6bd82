// Package command composes the shell command line that runs the TICS analyzer.
package command

import (
	"fmt"
	"strings"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
)

// Invocation is everything needed to compose one analyzer command line.
type Invocation struct {
	Platform      schema.Platform
	Mode          schema.Mode
	FileListPath  string            // Empty analyzes the working directory
	Values        map[string]string // Option values keyed by option name
	ViewerURL     string            // Exported as TICS when not installing
	InstallURL    string            // Bootstrap script, empty when TICS is preinstalled
	TrustStrategy schema.TrustStrategy
	Debug         bool
}

// shell holds the platform specific command syntax.
type shell struct {
	quote         func(string) string
	envPrefix     func(viewerURL string) string
	installPrefix func(installURL string, insecure bool) string
	wrap          func(prefix, analysis string) string
}

var shells = map[schema.Platform]shell{
	schema.LinuxPlatform: {
		quote: singleQuote,
		envPrefix: func(viewerURL string) string {
			return "TICS=" + singleQuote(viewerURL)
		},
		installPrefix: func(installURL string, insecure bool) string {
			curl := "curl --silent --show-error "
			if insecure {
				curl += "--insecure "
			}
			return "source <(" + curl + singleQuote(installURL) + ") &&"
		},
		wrap: func(prefix, analysis string) string {
			return `/bin/bash -c "` + prefix + " " + analysis + `"`
		},
	},
	schema.WindowsPlatform: {
		quote: singleQuote,
		envPrefix: func(viewerURL string) string {
			return "$env:TICS=" + singleQuote(viewerURL)
		},
		installPrefix: func(installURL string, insecure bool) string {
			var b strings.Builder
			b.WriteString("Set-ExecutionPolicy Bypass -Scope Process -Force; ")
			b.WriteString("[System.Net.ServicePointManager]::SecurityProtocol = [System.Net.ServicePointManager]::SecurityProtocol -bor 3072; ")
			if insecure {
				b.WriteString("[System.Net.ServicePointManager]::ServerCertificateValidationCallback = {$true}; ")
			}
			b.WriteString("iex ((New-Object System.Net.WebClient).DownloadString(" + singleQuote(installURL) + "))")
			return b.String()
		},
		wrap: func(prefix, analysis string) string {
			return `powershell "` + prefix + "; if ($?) {" + analysis + `}"`
		},
	},
}

// singleQuote quotes s for both supported shells. Embedded single quotes are not escaped.
func singleQuote(s string) string {
	return "'" + s + "'"
}

// Build composes the full command line for the invocation.
func Build(inv Invocation) (string, error) {
	sh, ok := shells[inv.Platform]
	if !ok {
		return "", fmt.Errorf("unsupported platform %q", inv.Platform)
	}

	analysis, err := analysisCommand(sh, inv)
	if err != nil {
		return "", err
	}

	prefix := sh.envPrefix(inv.ViewerURL)
	if inv.InstallURL != "" {
		insecure := inv.TrustStrategy == schema.SelfSignedTrust || inv.TrustStrategy == schema.AllTrust
		prefix = sh.installPrefix(inv.InstallURL, insecure)
	}
	return sh.wrap(prefix, analysis), nil
}

// analysisCommand composes the TICS invocation itself, without install prefix.
func analysisCommand(sh shell, inv Invocation) (string, error) {
	var parts []string
	switch inv.Mode {
	case schema.ClientMode:
		changeSet := "."
		if inv.FileListPath != "" {
			changeSet = sh.quote("@" + inv.FileListPath)
		}
		parts = []string{"TICS", "-ide", "github", changeSet, "-viewer"}
	case schema.QServerMode:
		parts = []string{"TICSQServer"}
	case schema.DiagnosticMode:
		parts = []string{"TICS", "-ide", "github", "-help"}
	default:
		return "", fmt.Errorf("unsupported mode %q", inv.Mode)
	}

	parts = append(parts, optionFlags(sh, inv.Mode, inv.Values)...)

	if inv.Debug && !strings.Contains(inv.Values[contract.AdditionalFlagsOption], "-log") {
		parts = append(parts, "-log", "9")
	}
	return strings.Join(parts, " "), nil
}

// optionFlags walks the option table and emits the flags applicable to mode.
func optionFlags(sh shell, mode schema.Mode, values map[string]string) []string {
	var flags []string
	for _, opt := range Options {
		value := values[opt.Name]
		if !opt.AppliesTo(mode) || !isSet(opt, value) {
			continue
		}
		if opt.Flag == "" {
			flags = append(flags, strings.TrimSpace(value))
			continue
		}
		if opt.Quoted {
			value = sh.quote(value)
		}
		flags = append(flags, opt.Flag, value)
	}
	return flags
}
