package outwriter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// maxItemRows bounds the item rows listed per failing condition.
const maxItemRows = 25

// ReportData is the input of the markdown report.
type ReportData struct {
	Verdict   schema.Verdict
	Mode      schema.Mode
	FileCount int // Files in the analyzed change-set
}

const reportTemplate = `## TICS Quality Gate

### {{ if .Verdict.Passed }}:heavy_check_mark: Passed{{ else }}:x: Failed{{ end }}
{{- with .Verdict.Message }}

{{ . }}
{{- end }}
{{- range $qg := .Verdict.QualityGates }}
{{- range $qg.Gates }}

#### {{ .Name | default "Quality gate" }}: {{ label .Passed false }}

{{ conditionsTable .Conditions }}
{{- range .Conditions }}
{{- if and (failing .) .Details }}

<details><summary>{{ .Message }}</summary>

{{ itemsTable .Details }}
</details>
{{- end }}
{{- end }}
{{- end }}
{{- end }}
{{- with .Verdict.ExplorerURLs }}

#### Explorer
{{ range . }}
- [{{ trunc 100 . }}]({{ . }})
{{- end }}
{{- end }}
{{- with .Verdict.ErrorList }}

#### Errors
{{ range . }}
- {{ . }}
{{- end }}
{{- end }}
{{- with .Verdict.WarningList }}

#### Warnings
{{ range . }}
- {{ . }}
{{- end }}
{{- end }}

<sub>{{ .Mode | toString | upper }} analysis of {{ .FileCount }} file(s)</sub>
`

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs()).Parse(reportTemplate))

func reportFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["label"] = contract.GetPlainLabel
	funcs["failing"] = func(c schema.Condition) bool { return c.Failing() }
	funcs["conditionsTable"] = conditionsTable
	funcs["itemsTable"] = itemsTable
	return funcs
}

// RenderReport renders the verdict as the markdown used for the pull request
// comment and the job step summary.
func RenderReport(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// conditionsTable renders one markdown row per condition.
func conditionsTable(conditions []schema.Condition) (string, error) {
	rows := make([][]string, 0, len(conditions))
	for _, c := range conditions {
		rows = append(rows, []string{statusIcon(c), markdownCell(c.Message)})
	}
	return markdownTable([]string{"Status", "Condition"}, rows)
}

// itemsTable renders the offending items of a condition, capped at maxItemRows.
func itemsTable(details *schema.ConditionDetails) (string, error) {
	rows := make([][]string, 0, min(len(details.Items), maxItemRows))
	for i, item := range details.Items {
		if i == maxItemRows {
			rows = append(rows, []string{fmt.Sprintf("... %d more", len(details.Items)-maxItemRows), "", ""})
			break
		}
		rows = append(rows, []string{markdownCell(item.Name), item.Data.ActualValue.FormattedValue, blockingLabel(item.Blocking)})
	}
	return markdownTable([]string{"Item", "Value", "Blocking"}, rows)
}

func markdownTable(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return "", err
	}
	if err := table.Render(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func statusIcon(c schema.Condition) string {
	switch {
	case c.Skipped:
		return ":heavy_minus_sign: " + contract.SkippedValue
	case c.Passed:
		return ":heavy_check_mark: " + contract.PassedValue
	default:
		return ":x: " + contract.FailedValue
	}
}

func blockingLabel(b *schema.Blocking) string {
	if b == nil {
		return ""
	}
	return string(b.State)
}

// markdownCell keeps a value on one table row.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
