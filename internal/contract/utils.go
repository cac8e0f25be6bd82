package contract

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

// Verdict label constants.
const (
	PassedValue  = "Passed"  // Passed value
	FailedValue  = "Failed"  // Failed value
	SkippedValue = "Skipped" // Skipped value
)

// Color variables for console output.
var (
	FailedColor  = color.New(color.FgRed, color.Bold) // FailedColor represents standard danger.
	PassedColor  = color.New(color.FgGreen)           // PassedColor represents success.
	SkippedColor = color.New(color.FgCyan)            // SkippedColor represents informational / not evaluated.
)

var runtimeGOOS = runtime.GOOS

// GetPlainLabel returns a plain text label for a condition outcome.
// This is the core logic used for markdown and table printing.
func GetPlainLabel(passed, skipped bool) string {
	switch {
	case skipped:
		return SkippedValue
	case passed:
		return PassedValue
	default:
		return FailedValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(passed, skipped bool) string {
	text := GetPlainLabel(passed, skipped)

	switch text {
	case SkippedValue:
		return SkippedColor.Sprint(text)
	case PassedValue:
		return PassedColor.Sprint(text)
	default:
		return FailedColor.Sprint(text)
	}
}

// SelectOutputFile returns the file handle for output, falling back to os.Stdout
// when no path is given. Existing files are appended to.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// SplitList splits a comma or newline separated input into trimmed, non-empty parts.
func SplitList(s string) []string {
	var parts []string
	for p := range strings.FieldsFuncSeq(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// fatalMask hides secrets in fatal messages. Identity until the job logger exists.
var fatalMask = func(s string) string { return s }

// SetFatalMask sets the function every fatal message passes through.
func SetFatalMask(mask func(string) string) {
	if mask != nil {
		fatalMask = mask
	}
}

// FatalMessage formats the error command written by LogFatal.
func FatalMessage(msg string, err error) string {
	return "::error::" + fatalMask(fmt.Sprintf("%s: %v", msg, err)) + "\n"
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprint(os.Stderr, FatalMessage(msg, err))
	os.Exit(1)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
