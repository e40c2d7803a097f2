package analysis

import (
	"fmt"
	"sort"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// FPARow is an allowance row annotated with the offense's average output at
// the same position across the filtered season
type FPARow struct {
	nfl.AllowanceRow
	OppAvg    float64 `json:"opp_avg"`
	OppAvgPPR float64 `json:"opp_avg_ppr"`
}

// FinalWeek is the last regular season week present, 17 or 18 depending on the season
func FinalWeek(rows []nfl.AllowanceRow) int {
	final := 0
	for _, r := range rows {
		if r.Week > final {
			final = r.Week
		}
	}
	return final
}

// FinalWeekLabel is the checkbox caption for including the final week
func FinalWeekLabel(finalWeek int) string {
	return fmt.Sprintf("Include Week %d", finalWeek)
}

// Teams lists the defenses in the table in alphabetical order
func Teams(rows []nfl.AllowanceRow) []string {
	seen := make(map[string]bool)
	teams := []string{}
	for _, r := range rows {
		if r.DefTeam == "" || seen[r.DefTeam] {
			continue
		}
		seen[r.DefTeam] = true
		teams = append(teams, r.DefTeam)
	}
	sort.Strings(teams)
	return teams
}

type pointSum struct {
	standard float64
	ppr      float64
	n        int
}

func (s *pointSum) add(standard, ppr float64) {
	s.standard += standard
	s.ppr += ppr
	s.n++
}

func (s pointSum) mean() (float64, float64) {
	if s.n == 0 {
		return 0, 0
	}
	return s.standard / float64(s.n), s.ppr / float64(s.n)
}

// FilterPosition keeps one position's rows, drops the final week unless asked
// to include it, and attaches each offense's average at that position.
func FilterPosition(rows []nfl.AllowanceRow, position string, includeFinalWeek bool) []FPARow {
	final := FinalWeek(rows)

	var filtered []nfl.AllowanceRow
	for _, r := range rows {
		if r.Position != position {
			continue
		}
		if !includeFinalWeek && r.Week == final {
			continue
		}
		filtered = append(filtered, r)
	}

	offense := make(map[string]*pointSum)
	for _, r := range filtered {
		sum, ok := offense[r.PosTeam]
		if !ok {
			sum = &pointSum{}
			offense[r.PosTeam] = sum
		}
		sum.add(r.FantasyPoints, r.FantasyPointsPPR)
	}

	out := make([]FPARow, 0, len(filtered))
	for _, r := range filtered {
		std, ppr := offense[r.PosTeam].mean()
		out = append(out, FPARow{AllowanceRow: r, OppAvg: std, OppAvgPPR: ppr})
	}
	return out
}
