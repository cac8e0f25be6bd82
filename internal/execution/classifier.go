package execution

import (
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/ticsgate/schema"
)

// NoFilesWarningPrefix is prepended to the unprefixed "no files to analyze" message.
const NoFilesWarningPrefix = "[WARNING 5057] "

var (
	errorPattern    = regexp.MustCompile(`\[ERROR.*`)
	warningPattern  = regexp.MustCompile(`\[WARNING.*`)
	noFilesPattern  = regexp.MustCompile(`No files to analyze with option '-changed':.*`)
	explorerPattern = regexp.MustCompile(`/Explorer.*`)
)

// Classifier accumulates the classified output of a single analyzer invocation.
// It is not safe for concurrent use.
type Classifier struct {
	baseURL  string
	errors   []string
	warnings []string
	urls     []string
	seen     map[string]struct{}
}

// NewClassifier creates a classifier that rewrites explorer links onto baseURL.
func NewClassifier(baseURL string) *Classifier {
	return &Classifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		seen:    make(map[string]struct{}),
	}
}

// Classify applies every rule to one output line.
func (c *Classifier) Classify(line string) {
	if m := errorPattern.FindString(line); m != "" {
		c.errors = c.addOnce(c.errors, m)
	}

	if m := warningPattern.FindString(line); m != "" {
		c.warnings = c.addOnce(c.warnings, m)
	} else if m := noFilesPattern.FindString(line); m != "" {
		c.warnings = c.addOnce(c.warnings, NoFilesWarningPrefix+m)
	}

	if m := explorerPattern.FindString(line); m != "" {
		c.urls = append(c.urls, c.baseURL+m)
	}
}

// addOnce appends text unless it was seen before. Errors and warnings share
// the seen set, as their texts start with different markers.
func (c *Classifier) addOnce(list []string, text string) []string {
	if _, ok := c.seen[text]; ok {
		return list
	}
	c.seen[text] = struct{}{}
	return append(list, text)
}

// Result returns the classified output together with the process outcome.
func (c *Classifier) Result(completed bool, statusCode int) schema.AnalysisResult {
	return schema.AnalysisResult{
		Completed:    completed,
		StatusCode:   statusCode,
		ExplorerURLs: slices.Clone(c.urls),
		ErrorList:    slices.Clone(c.errors),
		WarningList:  slices.Clone(c.warnings),
	}
}
