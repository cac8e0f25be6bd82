// Package logging writes the job log as GitHub workflow commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/ticsgate/schema"
	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Debug   bool
	Writer  io.Writer
	Secrets []string
}

// Logger wraps zerolog to render levels as workflow commands on a masked sink.
type Logger struct {
	base   zerolog.Logger
	out    io.Writer
	masker *Masker
}

// New creates a configured Logger instance based on Options.
func New(opts Options) *Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	masker := NewMasker(opts.Secrets)
	out := masker.Writer(writer)

	console := zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     true,
		PartsOrder:  []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: formatLevel,
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	return &Logger{
		base:   zerolog.New(console).Level(level),
		out:    out,
		masker: masker,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop(), out: io.Discard}
}

// formatLevel maps zerolog levels onto workflow command prefixes. Info is plain.
func formatLevel(i any) string {
	switch fmt.Sprint(i) {
	case zerolog.DebugLevel.String(), zerolog.TraceLevel.String():
		return "::debug::"
	case zerolog.WarnLevel.String():
		return "::warning::"
	case zerolog.ErrorLevel.String(), zerolog.FatalLevel.String(), zerolog.PanicLevel.String():
		return "::error::"
	default:
		return ""
	}
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

// Debugf writes a formatted debug-level log entry if enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		return
	}
	l.base.Debug().Msgf(format, args...)
}

// Debugw writes a debug-level entry with alternating key/value fields.
func (l *Logger) Debugw(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.base.Debug().Fields(keysAndValues).Msg(msg)
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Infof writes a formatted informational log entry.
func (l *Logger) Infof(format string, args ...any) {
	if l == nil {
		return
	}
	l.base.Info().Msgf(format, args...)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

// Warnf writes a formatted warning level log entry.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.base.Warn().Msgf(format, args...)
}

// Warnw writes a warning level entry with alternating key/value fields.
func (l *Logger) Warnw(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.base.Warn().Fields(keysAndValues).Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	l.base.Error().Msg(msg)
}

// Notice writes a notice workflow command.
func (l *Logger) Notice(msg string) {
	if l == nil {
		return
	}
	_, _ = fmt.Fprintf(l.out, "::notice::%s\n", escapeData(msg))
}

// Annotate writes an inline annotation workflow command.
func (l *Logger) Annotate(a schema.Annotation) {
	if l == nil {
		return
	}
	props := []string{"file=" + escapeProperty(a.Path)}
	if a.Line > 0 {
		props = append(props, "line="+strconv.Itoa(a.Line))
	}
	if a.Title != "" {
		props = append(props, "title="+escapeProperty(a.Title))
	}
	_, _ = fmt.Fprintf(l.out, "::%s %s::%s\n", a.Severity, strings.Join(props, ","), escapeData(a.Message))
}

// Echo writes a raw line of child process output.
func (l *Logger) Echo(line string) {
	if l == nil {
		return
	}
	_, _ = io.WriteString(l.out, line+"\n")
}

// Mask returns s with all configured secrets hidden.
func (l *Logger) Mask(s string) string {
	if l == nil {
		return s
	}
	return l.masker.Mask(s)
}

// DebugEnabled reports whether debug entries are written.
func (l *Logger) DebugEnabled() bool {
	return l != nil && l.base.GetLevel() <= zerolog.DebugLevel
}

var (
	dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

func escapeProperty(s string) string {
	return propEscaper.Replace(s)
}
