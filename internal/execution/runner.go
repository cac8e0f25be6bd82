// Package execution runs the analyzer and classifies its output as it streams.
package execution

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
	"github.com/mattn/go-shellwords"
)

// maxLineSize bounds a single output line.
const maxLineSize = 1024 * 1024

// Runner spawns the analyzer and feeds its combined output through a Classifier.
type Runner struct {
	log     *logging.Logger
	baseURL string
}

var _ contract.Executor = &Runner{} // Compile-time check

// NewRunner creates a runner that rewrites explorer links onto baseURL.
func NewRunner(log *logging.Logger, baseURL string) *Runner {
	return &Runner{log: log, baseURL: baseURL}
}

// Run executes the command line and returns the classified result.
// Failures to start are reported in the result, never returned.
func (r *Runner) Run(ctx context.Context, commandLine string, env map[string]string) schema.AnalysisResult {
	classifier := NewClassifier(r.baseURL)
	notStarted := func(err error) schema.AnalysisResult {
		r.log.Error(err, "Failed to run TICS")
		return classifier.Result(false, schema.StatusNotStarted)
	}

	args, err := splitCommandLine(commandLine, runtime.GOOS)
	if err != nil {
		return notStarted(err)
	}
	if len(args) == 0 {
		return notStarted(errors.New("empty command line"))
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = MergeEnv(os.Environ(), env)

	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.log.Debugf("Running %s", r.log.Mask(commandLine))
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return notStarted(err)
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		waitErr <- err
	}()

	err = readLines(pr, maxLineSize, func(text string) {
		line := r.log.Mask(text)
		r.log.Echo(line)
		classifier.Classify(line)
	})
	if err != nil {
		r.log.Warnf("Stopped reading TICS output: %v", err)
		// Keep the child's writes flowing so Wait can return.
		_, _ = io.Copy(io.Discard, pr)
	}

	err = <-waitErr
	if err == nil {
		return classifier.Result(true, 0)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return classifier.Result(true, exitErr.ExitCode())
	}
	r.log.Error(err, "TICS did not run to completion")
	return classifier.Result(false, schema.StatusNotStarted)
}

// readLines calls onLine for every line of r. Lines longer than limit bytes
// are cut to their first limit bytes and the rest up to the newline is skipped.
func readLines(r io.Reader, limit int, onLine func(string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if room := limit - len(line); len(chunk) > room {
			chunk = chunk[:room]
		}
		line = append(line, chunk...)
		if err != nil {
			if len(line) > 0 {
				onLine(string(line))
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if isPrefix {
			continue
		}
		onLine(string(line))
		line = line[:0]
	}
}

// splitCommandLine splits line into argv. Backslashes are path separators on
// Windows, so they are escaped before splitting.
func splitCommandLine(line, goos string) ([]string, error) {
	if goos == "windows" {
		line = strings.ReplaceAll(line, `\`, `\\`)
	}
	return shellwords.Parse(line)
}

// MergeEnv returns base with every key of overrides replaced or added.
// Overrides are appended in sorted key order.
func MergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}
