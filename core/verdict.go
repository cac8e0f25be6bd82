package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/internal/viewer"
	"github.com/huangsam/ticsgate/schema"
)

// GateFilterFunc derives the quality-gate filter of one explorer URL.
type GateFilterFunc func(ctx context.Context, explorerURL string) (schema.GateFilter, error)

// ClientFilter reads the project and client-data token from the explorer URL.
func ClientFilter(_ context.Context, explorerURL string) (schema.GateFilter, error) {
	filter := schema.GateFilter{
		Project:    viewer.ItemFromURL(explorerURL, viewer.ProjectItem),
		ClientData: viewer.ItemFromURL(explorerURL, viewer.ClientDataItem),
	}
	if filter.ClientData == "" {
		return filter, fmt.Errorf("no client data found in %s", explorerURL)
	}
	return filter, nil
}

// QServerFilter returns a filter on the configured project and branch as of
// the last QServer run.
func QServerFilter(fetcher contract.QualityGateFetcher, project, branch string) GateFilterFunc {
	return func(ctx context.Context, _ string) (schema.GateFilter, error) {
		date, err := fetcher.LastRunDate(ctx, project, branch)
		if err != nil {
			return schema.GateFilter{}, fmt.Errorf("could not read the last run date: %w", err)
		}
		return schema.GateFilter{Project: project, Branch: branch, Date: date}, nil
	}
}

// AssembleVerdict folds the analysis result and the quality gates behind its
// explorer URLs into a single verdict. The fetcher is only called for a
// completed client or qserver run that reported at least one explorer URL.
func AssembleVerdict(ctx context.Context, mode schema.Mode, result schema.AnalysisResult, fetcher contract.QualityGateFetcher, filterFor GateFilterFunc) schema.Verdict {
	verdict := schema.Verdict{
		ErrorList:    slices.Clone(result.ErrorList),
		WarningList:  slices.Clone(result.WarningList),
		ExplorerURLs: slices.Clone(result.ExplorerURLs),
	}

	if mode == schema.DiagnosticMode {
		verdict.Passed = result.StatusCode == 0
		if !verdict.Passed {
			verdict.Message = schema.DiagnosticFailedMessage
		}
		return verdict
	}

	if !result.Completed || len(result.ExplorerURLs) == 0 {
		verdict.Message = schema.IncompleteRunMessage
		return verdict
	}

	for _, explorerURL := range result.ExplorerURLs {
		qg, err := fetchQualityGate(ctx, fetcher, filterFor, explorerURL)
		if err != nil {
			verdict.QualityGates = nil
			verdict.Message = "quality gate could not be retrieved: " + err.Error()
			return verdict
		}
		verdict.QualityGates = append(verdict.QualityGates, *qg)
	}

	verdict.Passed = true
	for _, qg := range verdict.QualityGates {
		verdict.Passed = verdict.Passed && qg.Passed
	}
	if !verdict.Passed {
		verdict.Message = fmt.Sprintf("Quality gate failed: %d condition(s) did not pass", verdict.FailedConditions())
	}
	return verdict
}

func fetchQualityGate(ctx context.Context, fetcher contract.QualityGateFetcher, filterFor GateFilterFunc, explorerURL string) (*schema.QualityGate, error) {
	filter, err := filterFor(ctx, explorerURL)
	if err != nil {
		return nil, err
	}
	return fetcher.QualityGate(ctx, filter)
}

// AttachAnnotations fetches the viewer annotations of every failing condition
// that links to them. Failures are logged and leave the condition without annotations.
func AttachAnnotations(ctx context.Context, fetcher contract.QualityGateFetcher, v *schema.Verdict, log *logging.Logger) {
	for i := range v.QualityGates {
		for j := range v.QualityGates[i].Gates {
			conditions := v.QualityGates[i].Gates[j].Conditions
			for k := range conditions {
				c := &conditions[k]
				if !c.Failing() || len(c.AnnotationsAPIV1Links) == 0 {
					continue
				}
				annotations, err := fetcher.Annotations(ctx, c.AnnotationsAPIV1Links)
				if err != nil {
					log.Warnf("Could not retrieve annotations for %q: %v", c.Message, err)
					continue
				}
				c.Annotations = annotations
			}
		}
	}
}
