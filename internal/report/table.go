package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/go-liveness/internal/ui"
)

// RenderTable renders the report headline figures as a terminal table.
func RenderTable(r *Report) string {
	rows := [][]string{
		{"Samples", humanize.Comma(int64(r.Samples))},
		{"Attacks", humanize.Comma(int64(r.Attacks))},
		{"Bona fide", humanize.Comma(int64(r.BonaFide))},
		{"Dropped rows", humanize.Comma(int64(r.Dropped))},
	}
	if r.EER != nil {
		rows = append(rows, []string{"EER", fmt.Sprintf("%.4f @ %.4f", r.EER.ACER, r.EER.Threshold)})
	}
	if r.MinACER != nil {
		rows = append(rows, []string{"Min ACER", fmt.Sprintf("%.4f @ %.4f", r.MinACER.ACER, r.MinACER.Threshold)})
	}
	rows = append(rows,
		[]string{"Accuracy", fmt.Sprintf("%.2f%% @ %.2f", r.Decision.Accuracy*100, r.Decision.Threshold)},
	)
	if r.Decision.MeanTimeMS > 0 {
		rows = append(rows, []string{"Mean time", fmt.Sprintf("%.2f ms", r.Decision.MeanTimeMS)})
	}

	var b strings.Builder
	b.WriteString(ui.Title.Render(r.Dataset))
	b.WriteString("\n")
	if r.Source != "" {
		b.WriteString(ui.Dim.Render(r.Source))
		b.WriteString("\n")
	}
	b.WriteString(Table([]string{"Metric", "Value"}, rows))
	return b.String()
}

// RenderPoints renders every step-th sweep point, always including the last one.
func RenderPoints(r *Report, step int) string {
	if step < 1 {
		step = 1
	}
	var rows [][]string
	for i, p := range r.Points {
		if i%step != 0 && i != len(r.Points)-1 {
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%.4f", p.Threshold),
			fmt.Sprintf("%.4f", p.APCER),
			fmt.Sprintf("%.4f", p.BPCER),
		})
	}
	return Table([]string{"Threshold", "APCER", "BPCER"}, rows)
}

// Table renders rows under headers in the shared table style.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(ui.TableBorder.Lipgloss()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return ui.TableHeader.Lipgloss()
			}
			return ui.TableCell.Lipgloss()
		}).
		String()
}
