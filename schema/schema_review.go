package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Stamp layout embedded in every posted comment.
const (
	StampMarker    = "<!--tics-decoration:"
	stampSuffix    = "-->"
	stampDelimiter = "|"
)

var stampPattern = regexp.MustCompile(`<!--tics-decoration:(.*?)-->`)

// ErrNoStamp is returned when a comment body carries no decoration marker.
var ErrNoStamp = errors.New("comment carries no tics decoration marker")

// RunIdentity identifies a logical pipeline position across retries and runs.
type RunIdentity struct {
	Workflow   string
	Job        string
	RunNumber  string
	RunAttempt string
}

// Stamp renders the identity as the opaque token embedded in comment bodies.
func (r RunIdentity) Stamp() string {
	fields := []string{r.Workflow, r.Job, r.RunNumber, r.RunAttempt}
	return StampMarker + strings.Join(fields, stampDelimiter) + stampSuffix
}

// SameStep reports whether both identities point at the same workflow job.
func (r RunIdentity) SameStep(other RunIdentity) bool {
	return r.Workflow == other.Workflow && r.Job == other.Job
}

// ParseStamp extracts the run identity from a comment body.
func ParseStamp(body string) (RunIdentity, error) {
	m := stampPattern.FindStringSubmatch(body)
	if m == nil {
		return RunIdentity{}, ErrNoStamp
	}
	fields := strings.Split(m[1], stampDelimiter)
	if len(fields) != 4 {
		return RunIdentity{}, fmt.Errorf("malformed stamp %q: expected 4 fields, got %d", m[1], len(fields))
	}
	return RunIdentity{
		Workflow:   fields[0],
		Job:        fields[1],
		RunNumber:  fields[2],
		RunAttempt: fields[3],
	}, nil
}

// Comment is a previously posted issue or review comment.
type Comment struct {
	ID     int64
	Body   string
	Author string
}

// Annotation is an inline finding emitted on the platform.
type Annotation struct {
	Path     string
	Line     int
	Title    string
	Message  string
	Severity Severity
}

// Key is the deduplication key of the annotation.
func (a Annotation) Key() string {
	return fmt.Sprintf("%s\x00%s\x00%d", a.Path, a.Title, a.Line)
}

// ReviewRequest is the verdict review to create on a pull request.
type ReviewRequest struct {
	Event ReviewEvent
	Body  string
}

// ReconcilePlan is the full set of platform changes computed before any call is issued.
type ReconcilePlan struct {
	DeleteComments       []int64
	DeleteReviewComments []int64
	CommentBody          string // Empty when nothing is posted to the conversation
	Annotations          []Annotation
	Review               *ReviewRequest
}
