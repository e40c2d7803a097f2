package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stitts-dev/fpa-dashboard/internal/analysis"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

func newTableWriter(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func render(t table.Writer, format string) error {
	switch format {
	case "csv":
		t.RenderCSV()
	case "md", "markdown":
		t.RenderMarkdown()
	case "", "table":
		t.Render()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func renderDefenseAverages(w io.Writer, bars []analysis.DefenseAverage, scoring analysis.ScoringSystem, format string) error {
	t := newTableWriter(w)
	t.AppendHeader(table.Row{"Rank", "Defense", "Points", "Opp Avg", "Diff vs Opp", "Diff vs League"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, b := range bars {
		own := scoring.Points(b.FantasyPoints, b.FantasyPointsPPR)
		opp := scoring.Points(b.OppAvg, b.OppAvgPPR)
		league := scoring.Points(b.LeagueAverage, b.LeagueAveragePPR)
		t.AppendRow(table.Row{
			b.Rank + 1,
			b.DefTeam,
			fmt.Sprintf("%.2f", own),
			fmt.Sprintf("%.2f", opp),
			fmt.Sprintf("%.2f", own-opp),
			fmt.Sprintf("%.2f", own-league),
		})
	}
	return render(t, format)
}

func renderAllowanceRows(w io.Writer, rows []nfl.AllowanceRow, format string) error {
	t := newTableWriter(w)
	t.AppendHeader(table.Row{"Week", "Defense", "Offense", "Position", "Std", "PPR"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Week,
			r.DefTeam,
			r.PosTeam,
			r.Position,
			fmt.Sprintf("%.2f", r.FantasyPoints),
			fmt.Sprintf("%.2f", r.FantasyPointsPPR),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(rows), ""})
	return render(t, format)
}
