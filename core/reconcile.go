package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
)

// fileItemType is the item type of a condition item that points at a file.
const fileItemType = "file"

// ReconcileInput is everything the reconciler decides on. It performs no I/O.
type ReconcileInput struct {
	Verdict           schema.Verdict
	Comments          []schema.Comment // Issue comments on the pull request
	ReviewComments    []schema.Comment
	Identity          schema.RunIdentity
	Body              string // Comment body without stamp, empty to post nothing
	ShowBlockingAfter bool
	PostAnnotations   bool
	Approval          bool
}

// Reconcile computes the full set of platform changes for this run.
func Reconcile(in ReconcileInput, log *logging.Logger) schema.ReconcilePlan {
	plan := schema.ReconcilePlan{
		DeleteComments:       staleComments(in.Comments, in.Identity, log),
		DeleteReviewComments: staleComments(in.ReviewComments, in.Identity, log),
	}
	if in.Body != "" {
		plan.CommentBody = in.Body + "\n" + in.Identity.Stamp()
	}
	if in.PostAnnotations {
		plan.Annotations = BuildAnnotations(in.Verdict, in.ShowBlockingAfter)
	}
	if in.Approval {
		review := schema.ReviewRequest{Event: schema.ApproveEvent, Body: "TICS quality gate passed"}
		if !in.Verdict.Passed {
			review = schema.ReviewRequest{Event: schema.RequestChangesEvent, Body: in.Verdict.Message}
		}
		plan.Review = &review
	}
	return plan
}

// IsStale reports whether a comment was posted by the same workflow job in a
// different run. Earlier attempts of the current run are kept.
func IsStale(body string, current schema.RunIdentity) (bool, error) {
	previous, err := schema.ParseStamp(body)
	if err != nil {
		return false, err
	}
	return previous.SameStep(current) && previous.RunNumber != current.RunNumber, nil
}

func staleComments(comments []schema.Comment, current schema.RunIdentity, log *logging.Logger) []int64 {
	var ids []int64
	for _, c := range comments {
		stale, err := IsStale(c.Body, current)
		if errors.Is(err, schema.ErrNoStamp) {
			log.Debugf("Keeping comment %d: no run stamp", c.ID)
			continue
		}
		if err != nil {
			log.Debugf("Keeping comment %d: %v", c.ID, err)
			continue
		}
		if stale {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// BuildAnnotations routes the findings of every failing condition by blocking
// tier. Duplicates on path, title and line are dropped, keeping a warning over
// a notice.
func BuildAnnotations(v schema.Verdict, showBlockingAfter bool) []schema.Annotation {
	var annotations []schema.Annotation
	seen := make(map[string]int)
	add := func(a schema.Annotation, blocking *schema.Blocking) {
		severity, ok := severityFor(blocking, showBlockingAfter)
		if !ok {
			return
		}
		a.Severity = severity
		if blocking != nil && blocking.State == schema.BlockingAfter && blocking.After > 0 {
			a.Message += fmt.Sprintf("\nBlocking after: %s", time.UnixMilli(blocking.After).UTC().Format(time.DateOnly))
		}
		if i, dup := seen[a.Key()]; dup {
			if a.Severity == schema.WarningSeverity && annotations[i].Severity != schema.WarningSeverity {
				annotations[i] = a
			}
			return
		}
		seen[a.Key()] = len(annotations)
		annotations = append(annotations, a)
	}

	for _, qg := range v.QualityGates {
		for _, g := range qg.Gates {
			for _, c := range g.Conditions {
				if !c.Failing() {
					continue
				}
				if len(c.Annotations) > 0 {
					for _, va := range c.Annotations {
						add(fromViewerAnnotation(va), va.Blocking)
					}
					continue
				}
				if c.Details == nil {
					continue
				}
				for _, item := range c.Details.Items {
					if item.ItemType != fileItemType {
						continue
					}
					add(schema.Annotation{
						Path:    item.Name,
						Title:   c.Message,
						Message: fmt.Sprintf("%s: %s", c.Message, item.Data.ActualValue.FormattedValue),
					}, item.Blocking)
				}
			}
		}
	}
	return annotations
}

// severityFor maps a blocking tier onto an annotation severity.
// Items without blocking information are treated as blocking.
func severityFor(b *schema.Blocking, showBlockingAfter bool) (schema.Severity, bool) {
	if b == nil {
		return schema.WarningSeverity, true
	}
	switch b.State {
	case schema.BlockingYes, "":
		return schema.WarningSeverity, true
	case schema.BlockingAfter:
		return schema.NoticeSeverity, showBlockingAfter
	default:
		return "", false
	}
}

func fromViewerAnnotation(va schema.ViewerAnnotation) schema.Annotation {
	title := va.Type
	if va.Rule != "" {
		title = strings.TrimSpace(va.Type + " " + va.Rule)
	}
	msg := va.Msg
	if va.Category != "" {
		msg = fmt.Sprintf("%s: %s", va.Category, va.Msg)
	}
	if va.Count > 1 {
		msg += fmt.Sprintf("\nNumber of occurrences: %d", va.Count)
	}
	return schema.Annotation{Path: va.Path, Line: va.Line, Title: title, Message: msg}
}

// Report applies the plan to the pull request. Every failing call is logged
// as a notice and skipped. It returns the number of failed calls.
func Report(ctx context.Context, platform contract.Platform, number int, plan schema.ReconcilePlan, log *logging.Logger) int {
	failures := 0
	try := func(what string, err error) {
		if err != nil {
			failures++
			log.Notice(fmt.Sprintf("Could not %s: %v", what, err))
		}
	}

	if platform != nil && number > 0 {
		for _, id := range plan.DeleteComments {
			try(fmt.Sprintf("delete comment %d", id), platform.DeleteIssueComment(ctx, id))
		}
		for _, id := range plan.DeleteReviewComments {
			try(fmt.Sprintf("delete review comment %d", id), platform.DeleteReviewComment(ctx, id))
		}
		if plan.CommentBody != "" {
			try("post the quality gate comment", platform.CreateIssueComment(ctx, number, plan.CommentBody))
		}
		if plan.Review != nil {
			try("submit the review", platform.CreateReview(ctx, number, *plan.Review))
		}
	}

	for _, a := range plan.Annotations {
		log.Annotate(a)
	}
	return failures
}
