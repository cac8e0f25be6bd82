package contract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		passed   bool
		skipped  bool
		expected string
	}{
		{name: "passed", passed: true, expected: PassedValue},
		{name: "failed", passed: false, expected: FailedValue},
		{name: "skipped wins over failed", passed: false, skipped: true, expected: SkippedValue},
		{name: "skipped wins over passed", passed: true, skipped: true, expected: SkippedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.passed, tt.skipped))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	assert.Contains(t, GetColorLabel(true, false), PassedValue)
	assert.Contains(t, GetColorLabel(false, false), FailedValue)
	assert.Contains(t, GetColorLabel(false, true), SkippedValue)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "commas", input: "a, b ,c", expected: []string{"a", "b", "c"}},
		{name: "newlines", input: "a\nb\n", expected: []string{"a", "b"}},
		{name: "mixed with blanks", input: " ,a,\n ,b", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{input: "yes", expected: true},
		{input: "TRUE", expected: true},
		{input: "1", expected: true},
		{input: "no", expected: false},
		{input: "False", expected: false},
		{input: " 0 ", expected: false},
		{input: "maybe", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))

	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestFatalMessage(t *testing.T) {
	t.Cleanup(func() { fatalMask = func(s string) string { return s } })
	err := errors.New("request failed: Authorization: Bearer abc123")

	assert.Equal(t, "::error::Analysis failed: request failed: Authorization: Bearer abc123\n", FatalMessage("Analysis failed", err))

	SetFatalMask(logging.NewMasker([]string{"Authorization"}).Mask)
	SetFatalMask(nil)
	assert.Equal(t, "::error::Analysis failed: request failed: Authorization: ***\n", FatalMessage("Analysis failed", err))
}
