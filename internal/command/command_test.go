package command

import (
	"testing"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cfgURL = "http://viewer.com/tiobeweb/TICS/api/cfg?name=default"

func TestBuild(t *testing.T) {
	minimal := map[string]string{
		contract.ProjectOption: "project",
		contract.CalcOption:    "GATE",
	}

	tests := []struct {
		name     string
		inv      Invocation
		expected string
	}{
		{
			name: "linux client minimal",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.ClientMode,
				FileListPath: "/path/to", Values: minimal, ViewerURL: cfgURL,
			},
			expected: `/bin/bash -c "TICS='` + cfgURL + `' TICS -ide github '@/path/to' -viewer -project 'project' -calc GATE"`,
		},
		{
			name: "windows client minimal",
			inv: Invocation{
				Platform: schema.WindowsPlatform, Mode: schema.ClientMode,
				FileListPath: "/path/to", Values: minimal, ViewerURL: cfgURL,
			},
			expected: `powershell "$env:TICS='` + cfgURL + `'; if ($?) {TICS -ide github '@/path/to' -viewer -project 'project' -calc GATE}"`,
		},
		{
			name: "client without file list analyzes working directory",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.ClientMode,
				Values: map[string]string{contract.ProjectOption: contract.DefaultProject}, ViewerURL: cfgURL,
			},
			expected: `/bin/bash -c "TICS='` + cfgURL + `' TICS -ide github . -viewer"`,
		},
		{
			name: "qserver with branch options",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.QServerMode, FileListPath: "/path/to",
				Values: map[string]string{
					contract.ProjectOption:    "project",
					contract.BranchNameOption: "main",
					contract.BranchDirOption:  "/src dir",
					contract.CdTokenOption:    "token",
					contract.RecalcOption:     "ALL",
				},
				ViewerURL: cfgURL,
			},
			expected: `/bin/bash -c "TICS='` + cfgURL + `' TICSQServer -project 'project' -branchname 'main' -branchdir '/src dir' -recalc ALL"`,
		},
		{
			name: "diagnostic keeps only all-mode options",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.DiagnosticMode,
				Values: map[string]string{
					contract.ProjectOption:         "project",
					contract.CalcOption:            "GATE",
					contract.TmpDirOption:          "/tmp/tics",
					contract.AdditionalFlagsOption: "-verbose",
				},
				ViewerURL: cfgURL,
			},
			expected: `/bin/bash -c "TICS='` + cfgURL + `' TICS -ide github -help -tmpdir '/tmp/tics' -verbose"`,
		},
		{
			name: "debug adds log level",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.QServerMode,
				Values: map[string]string{contract.ProjectOption: "p"}, ViewerURL: cfgURL, Debug: true,
			},
			expected: `/bin/bash -c "TICS='` + cfgURL + `' TICSQServer -project 'p' -log 9"`,
		},
		{
			name: "debug keeps user log flag",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.QServerMode,
				Values: map[string]string{contract.ProjectOption: "p", contract.AdditionalFlagsOption: "-log 3"},
				ViewerURL: cfgURL, Debug: true,
			},
			expected: `/bin/bash -c "TICS='` + cfgURL + `' TICSQServer -project 'p' -log 3"`,
		},
		{
			name: "linux install strict",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.QServerMode,
				Values: map[string]string{contract.ProjectOption: "p"}, ViewerURL: cfgURL,
				InstallURL: "http://viewer.com/install", TrustStrategy: schema.StrictTrust,
			},
			expected: `/bin/bash -c "source <(curl --silent --show-error 'http://viewer.com/install') && TICSQServer -project 'p'"`,
		},
		{
			name: "linux install self-signed",
			inv: Invocation{
				Platform: schema.LinuxPlatform, Mode: schema.QServerMode,
				Values: map[string]string{contract.ProjectOption: "p"}, ViewerURL: cfgURL,
				InstallURL: "http://viewer.com/install", TrustStrategy: schema.SelfSignedTrust,
			},
			expected: `/bin/bash -c "source <(curl --silent --show-error --insecure 'http://viewer.com/install') && TICSQServer -project 'p'"`,
		},
		{
			name: "windows install all",
			inv: Invocation{
				Platform: schema.WindowsPlatform, Mode: schema.QServerMode,
				Values: map[string]string{contract.ProjectOption: "p"}, ViewerURL: cfgURL,
				InstallURL: "http://viewer.com/install", TrustStrategy: schema.AllTrust,
			},
			expected: `powershell "Set-ExecutionPolicy Bypass -Scope Process -Force; ` +
				`[System.Net.ServicePointManager]::SecurityProtocol = [System.Net.ServicePointManager]::SecurityProtocol -bor 3072; ` +
				`[System.Net.ServicePointManager]::ServerCertificateValidationCallback = {$true}; ` +
				`iex ((New-Object System.Net.WebClient).DownloadString('http://viewer.com/install')); if ($?) {TICSQServer -project 'p'}"`,
		},
		{
			name: "windows install strict",
			inv: Invocation{
				Platform: schema.WindowsPlatform, Mode: schema.DiagnosticMode, ViewerURL: cfgURL,
				InstallURL: "http://viewer.com/install", TrustStrategy: schema.StrictTrust,
			},
			expected: `powershell "Set-ExecutionPolicy Bypass -Scope Process -Force; ` +
				`[System.Net.ServicePointManager]::SecurityProtocol = [System.Net.ServicePointManager]::SecurityProtocol -bor 3072; ` +
				`iex ((New-Object System.Net.WebClient).DownloadString('http://viewer.com/install')); if ($?) {TICS -ide github -help}"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.inv)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Invocation{Platform: "plan9", Mode: schema.ClientMode})
	assert.Error(t, err)

	_, err = Build(Invocation{Platform: schema.LinuxPlatform, Mode: "server"})
	assert.Error(t, err)
}

func TestBuild_ModeGating(t *testing.T) {
	values := map[string]string{
		contract.ProjectOption:    "project",
		contract.BranchNameOption: "main",
		contract.BranchDirOption:  "dir",
		contract.CdTokenOption:    "token",
		contract.CodeTypeOption:   "TESTCODE",
		contract.CalcOption:       "GATE",
		contract.NoCalcOption:     "ALL",
		contract.NoRecalcOption:   "ALL",
		contract.RecalcOption:     "ALL",
		contract.TmpDirOption:     "/tmp",
	}

	for _, platform := range []schema.Platform{schema.LinuxPlatform, schema.WindowsPlatform} {
		qserver, err := Build(Invocation{Platform: platform, Mode: schema.QServerMode, FileListPath: "/path/to", Values: values})
		require.NoError(t, err)
		assert.NotContains(t, qserver, "-viewer")
		assert.NotContains(t, qserver, "'@")
		assert.NotContains(t, qserver, "-cdtoken")

		diagnostic, err := Build(Invocation{Platform: platform, Mode: schema.DiagnosticMode, FileListPath: "/path/to", Values: values})
		require.NoError(t, err)
		assert.NotContains(t, diagnostic, "-project")
		assert.NotContains(t, diagnostic, "-calc")
		assert.Contains(t, diagnostic, "-tmpdir '/tmp'")

		client, err := Build(Invocation{Platform: platform, Mode: schema.ClientMode, FileListPath: "/path/to", Values: values})
		require.NoError(t, err)
		assert.NotContains(t, client, "-branchdir")
		assert.Contains(t, client, "-cdtoken token")
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name         string
		mode         schema.Mode
		values       map[string]string
		wantErr      bool
		wantWarnings int
	}{
		{name: "qserver with auto project", mode: schema.QServerMode, values: map[string]string{contract.ProjectOption: "auto"}, wantErr: true},
		{name: "qserver without project", mode: schema.QServerMode, values: map[string]string{}, wantErr: true},
		{name: "client with auto project", mode: schema.ClientMode, values: map[string]string{contract.ProjectOption: "auto"}},
		{name: "diagnostic with auto project", mode: schema.DiagnosticMode, values: map[string]string{contract.ProjectOption: "auto"}},
		{name: "qserver with project", mode: schema.QServerMode, values: map[string]string{contract.ProjectOption: "p"}},
		{
			name: "client with qserver-only option",
			mode: schema.ClientMode,
			values: map[string]string{
				contract.ProjectOption:   "p",
				contract.BranchDirOption: "dir",
			},
			wantWarnings: 1,
		},
		{
			name: "diagnostic with analysis options",
			mode: schema.DiagnosticMode,
			values: map[string]string{
				contract.ProjectOption: "p",
				contract.CalcOption:    "GATE",
				contract.TmpDirOption:  "/tmp",
			},
			wantWarnings: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := ValidateOptions(tt.mode, tt.values)
			if tt.wantErr {
				var cfgErr *contract.ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, contract.ProjectOption, cfgErr.Param)
				return
			}
			require.NoError(t, err)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestSingleQuote(t *testing.T) {
	assert.Equal(t, "'a b'", singleQuote("a b"))
	assert.Equal(t, "''", singleQuote(""))
}
