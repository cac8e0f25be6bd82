// Package outwriter renders verdicts for the console, the pull request conversation and the job summary.
package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct {
	out   io.Writer
	width int
}

// NewOutWriter creates an output writer printing to out. A width of zero
// detects the terminal width.
func NewOutWriter(out io.Writer, width int) *OutWriter {
	return &OutWriter{out: out, width: width}
}

// WriteVerdict prints the verdict to the console.
func (ow *OutWriter) WriteVerdict(v schema.Verdict) error {
	return PrintVerdict(ow.out, v, ow.width)
}

// Report renders the markdown report of the verdict.
func (ow *OutWriter) Report(data ReportData) (string, error) {
	return RenderReport(data)
}

// WriteSummary appends the report to the job step summary file.
// Nothing is written when path is empty.
func (ow *OutWriter) WriteSummary(path, report string) error {
	if path == "" {
		return nil
	}
	return writeWithFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, report)
		return err
	})
}

// writeWithFile opens path for appending, writes to it and closes it.
func writeWithFile(path string, writer func(io.Writer) error) error {
	file, err := contract.SelectOutputFile(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}
	return writer(file)
}
