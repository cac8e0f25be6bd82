package logging

import (
	"io"
	"regexp"
	"strings"
)

// MaskedValue replaces every secret in the output.
const MaskedValue = "***"

// Masker hides the values that follow configured secret words.
// A value is the first whitespace-free token after any run of spaces, '=' or ':'
// following the word, with an optional authorization scheme in between.
type Masker struct {
	pattern *regexp.Regexp
}

// NewMasker creates a masker for the given secret words. Empty words are ignored.
func NewMasker(words []string) *Masker {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return &Masker{}
	}
	expr := `(` + strings.Join(quoted, "|") + `)([ =:]+)(?:(?:Basic|Bearer|token) )?\S+`
	return &Masker{pattern: regexp.MustCompile(expr)}
}

// Mask returns s with every secret value replaced.
func (m *Masker) Mask(s string) string {
	if m == nil || m.pattern == nil {
		return s
	}
	return m.pattern.ReplaceAllString(s, "${1}${2}"+MaskedValue)
}

// Writer wraps w so that every write is masked first.
func (m *Masker) Writer(w io.Writer) io.Writer {
	return &maskedWriter{masker: m, out: w}
}

type maskedWriter struct {
	masker *Masker
	out    io.Writer
}

// Write masks p and reports the full input length on success, as callers
// compare it against len(p).
func (w *maskedWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.out, w.masker.Mask(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
