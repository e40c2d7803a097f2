package pipeline

import (
	"sort"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// NonSkillThreshold is the standard fantasy point total a game's unconventional
// ball carriers must exceed to show up as a non_skill row.
const NonSkillThreshold = 6.0

var conventionalPositions = map[string]bool{
	nfl.PositionQB: true,
	nfl.PositionRB: true,
	nfl.PositionFB: true,
	nfl.PositionTE: true,
	nfl.PositionWR: true,
}

var reportedPositions = map[string]bool{
	nfl.PositionQB:       true,
	nfl.PositionRB:       true,
	nfl.PositionWR:       true,
	nfl.PositionTE:       true,
	nfl.PositionNonSkill: true,
}

type allowanceKey struct {
	week     int
	defTeam  string
	posTeam  string
	position string
}

type points struct {
	standard float64
	ppr      float64
}

// nonSkillRows sums unconventional ball carriers per game and keeps the games
// above NonSkillThreshold.
func nonSkillRows(rows []nfl.AttributedParticipation) []nfl.AttributedParticipation {
	sums := make(map[nfl.GameKey]*points)
	var order []nfl.GameKey
	for _, r := range rows {
		if conventionalPositions[r.Position] {
			continue
		}
		sum, ok := sums[r.GameKey]
		if !ok {
			sum = &points{}
			sums[r.GameKey] = sum
			order = append(order, r.GameKey)
		}
		sum.standard += r.FantasyPoints
		sum.ppr += r.FantasyPointsPPR
	}

	var out []nfl.AttributedParticipation
	for _, key := range order {
		sum := sums[key]
		if sum.standard <= NonSkillThreshold {
			continue
		}
		out = append(out, nfl.AttributedParticipation{
			Participation:    nfl.Participation{ParticipationKey: nfl.ParticipationKey{GameKey: key}},
			Position:         nfl.PositionNonSkill,
			FantasyPoints:    sum.standard,
			FantasyPointsPPR: sum.ppr,
		})
	}
	return out
}

func normalizePosition(position string) string {
	if position == nfl.PositionFB {
		return nfl.PositionRB
	}
	return position
}

// AggregateByPosition produces the allowance table: fantasy points per
// (week, defense, offense, position) for QB, RB (FB folded in), WR, TE and
// the synthetic non_skill bucket. Games with nothing to report are absent.
func AggregateByPosition(rows []nfl.AttributedParticipation) []nfl.AllowanceRow {
	all := make([]nfl.AttributedParticipation, 0, len(rows))
	all = append(all, rows...)
	all = append(all, nonSkillRows(rows)...)

	sums := make(map[allowanceKey]*points)
	for _, r := range all {
		position := normalizePosition(r.Position)
		if !reportedPositions[position] {
			continue
		}
		key := allowanceKey{week: r.Week, defTeam: r.DefTeam, posTeam: r.PosTeam, position: position}
		sum, ok := sums[key]
		if !ok {
			sum = &points{}
			sums[key] = sum
		}
		sum.standard += r.FantasyPoints
		sum.ppr += r.FantasyPointsPPR
	}

	out := make([]nfl.AllowanceRow, 0, len(sums))
	for key, sum := range sums {
		out = append(out, nfl.AllowanceRow{
			Week:             key.week,
			DefTeam:          key.defTeam,
			PosTeam:          key.posTeam,
			Position:         key.position,
			FantasyPoints:    sum.standard,
			FantasyPointsPPR: sum.ppr,
		})
	}
	SortAllowances(out)
	return out
}

// SortAllowances orders rows by week, defense, offense and position
func SortAllowances(rows []nfl.AllowanceRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.DefTeam != b.DefTeam {
			return a.DefTeam < b.DefTeam
		}
		if a.PosTeam != b.PosTeam {
			return a.PosTeam < b.PosTeam
		}
		return a.Position < b.Position
	})
}
