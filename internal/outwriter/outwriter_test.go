package outwriter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/ticsgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingVerdict() schema.Verdict {
	return schema.Verdict{
		Passed:       false,
		Message:      "Quality gate failed: 1 condition(s) did not pass",
		ExplorerURLs: []string{"http://viewer.com/Explorer.html#axes=ClientData(abc)"},
		WarningList:  []string{"[WARNING 5057] No files to analyze"},
		QualityGates: []schema.QualityGate{{
			Gates: []schema.Gate{{
				Name: "Coding Standards",
				Conditions: []schema.Condition{
					{Passed: true, Message: "No new level 1 violations"},
					{
						Passed:  false,
						Message: "No new level 2 violations | strict",
						Details: &schema.ConditionDetails{Items: []schema.Item{{
							Name:     "src/a.go",
							Data:     schema.ItemData{ActualValue: schema.Value{FormattedValue: "+3"}},
							Blocking: &schema.Blocking{State: schema.BlockingYes},
						}}},
					},
					{Skipped: true, Message: "Coverage"},
				},
			}},
		}},
	}
}

func TestRenderReport_Failing(t *testing.T) {
	report, err := RenderReport(ReportData{Verdict: failingVerdict(), Mode: schema.ClientMode, FileCount: 4})
	require.NoError(t, err)

	for _, want := range []string{
		"## TICS Quality Gate",
		":x: Failed",
		"Quality gate failed: 1 condition(s) did not pass",
		"#### Coding Standards: Failed",
		":heavy_check_mark: Passed",
		":heavy_minus_sign: Skipped",
		"<summary>No new level 2 violations | strict</summary>",
		"src/a.go",
		"+3",
		"[http://viewer.com/Explorer.html#axes=ClientData(abc)](http://viewer.com/Explorer.html#axes=ClientData(abc))",
		"#### Warnings",
		"- [WARNING 5057] No files to analyze",
		"CLIENT analysis of 4 file(s)",
	} {
		assert.Contains(t, report, want)
	}
	assert.NotContains(t, report, "#### Errors")
}

func TestRenderReport_Passing(t *testing.T) {
	v := schema.Verdict{Passed: true, QualityGates: []schema.QualityGate{{
		Passed: true,
		Gates:  []schema.Gate{{Name: "", Passed: true, Conditions: []schema.Condition{{Passed: true, Message: "ok"}}}},
	}}}

	report, err := RenderReport(ReportData{Verdict: v, Mode: schema.QServerMode})
	require.NoError(t, err)

	assert.Contains(t, report, ":heavy_check_mark: Passed")
	assert.Contains(t, report, "#### Quality gate: Passed")
	assert.NotContains(t, report, "<details>")
	assert.NotContains(t, report, "#### Explorer")
}

func TestItemsTable_Capped(t *testing.T) {
	details := &schema.ConditionDetails{}
	for i := range maxItemRows + 5 {
		details.Items = append(details.Items, schema.Item{Name: fmt.Sprintf("file%d.go", i)})
	}

	table, err := itemsTable(details)
	require.NoError(t, err)
	assert.Contains(t, table, "file24.go")
	assert.NotContains(t, table, "file25.go")
	assert.Contains(t, table, "... 5 more")
}

func TestMarkdownCell(t *testing.T) {
	assert.Equal(t, `a \| b c`, markdownCell("a | b\r\nc"))
}

func TestPrintVerdict(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintVerdict(&buf, failingVerdict(), 80))

	out := buf.String()
	assert.Contains(t, out, "Coding Standards")
	assert.Contains(t, out, "No new level 1 violations")
	assert.Contains(t, out, "Skipped")
	assert.True(t, strings.HasSuffix(out, "Quality gate failed: 1 condition(s) did not pass\n"))

	buf.Reset()
	require.NoError(t, PrintVerdict(&buf, schema.Verdict{Passed: true}, 80))
	assert.Equal(t, "TICS quality gate passed\n", buf.String())
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in       string
		width    int
		expected string
	}{
		{in: "short", width: 10, expected: "short"},
		{in: "a long condition message", width: 10, expected: "a long ..."},
		{in: "abcdef", width: 3, expected: "abcdef"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, truncateText(tt.in, tt.width))
	}
}

func TestGetMaxMessageWidth(t *testing.T) {
	assert.Equal(t, 20, GetMaxMessageWidth(30))
	assert.Equal(t, 60, GetMaxMessageWidth(100))
	assert.Equal(t, 100, GetMaxMessageWidth(400))
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	ow := NewOutWriter(&bytes.Buffer{}, 80)

	require.NoError(t, ow.WriteSummary(path, "first\n"))
	require.NoError(t, ow.WriteSummary(path, "second\n"))
	require.NoError(t, ow.WriteSummary("", "ignored"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
