package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"squeeze/internal/runner"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows formats run totals for RenderSummary.
func SummaryRows(s runner.Summary) []SummaryRow {
	saved := "0 B"
	if s.BytesSaved > 0 {
		saved = humanize.Bytes(uint64(s.BytesSaved))
	}
	return []SummaryRow{
		{Label: "Images", Value: humanize.Comma(int64(s.Total))},
		{Label: "Optimized", Value: humanize.Comma(int64(s.Optimized))},
		{Label: "Skipped", Value: humanize.Comma(int64(s.Skipped))},
		{Label: "Errors", Value: humanize.Comma(int64(s.Errors))},
		{Label: "Saved", Value: saved},
	}
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderReports lists one line per file: size change and outcome.
func RenderReports(reports []runner.Report) string {
	nameWidth := 0
	for _, r := range reports {
		if len(r.Display) > nameWidth {
			nameWidth = len(r.Display)
		}
	}

	lines := make([]string, 0, len(reports))
	for _, r := range reports {
		name := labelStyle.Render(padRight(r.Display, nameWidth))
		switch {
		case r.Err != nil:
			lines = append(lines, fmt.Sprintf("%s  %s", name, errorStyle.Render(r.Err.Error())))
		case r.Skipped:
			lines = append(lines, fmt.Sprintf("%s  %s", name, dimStyle.Render("skipped ("+humanize.Bytes(uint64(r.OriginalSize))+")")))
		case r.Saved() <= 0:
			lines = append(lines, fmt.Sprintf("%s  %s", name, warnStyle.Render("kept original")))
		default:
			pct := 100 * float64(r.Saved()) / float64(r.OriginalSize)
			lines = append(lines, fmt.Sprintf("%s  %s -> %s  %s  %s",
				name,
				humanize.Bytes(uint64(r.OriginalSize)),
				humanize.Bytes(uint64(r.Size)),
				savedStyle.Render(fmt.Sprintf("-%.0f%%", pct)),
				dimStyle.Render(r.Provenance.String()+" "+r.MIME),
			))
		}
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
