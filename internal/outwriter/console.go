package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintVerdict prints the conditions of every gate followed by the final verdict line.
func PrintVerdict(w io.Writer, v schema.Verdict, width int) error {
	if len(v.QualityGates) > 0 {
		if err := writeConditionTable(w, v, width); err != nil {
			return err
		}
	}

	if v.Passed {
		_, err := fmt.Fprintln(w, contract.PassedColor.Sprint("TICS quality gate passed"))
		return err
	}
	_, err := fmt.Fprintln(w, contract.FailedColor.Sprint(v.Message))
	return err
}

func writeConditionTable(w io.Writer, v schema.Verdict, width int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Gate", "Condition", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	messageWidth := GetMaxMessageWidth(width)
	var data [][]string
	for _, qg := range v.QualityGates {
		for _, g := range qg.Gates {
			for _, c := range g.Conditions {
				data = append(data, []string{
					g.Name,
					truncateText(c.Message, messageWidth),
					contract.GetColorLabel(c.Passed, c.Skipped),
				})
			}
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// truncateText cuts s to maxWidth runes with an ellipsis suffix.
func truncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}
