package analysis

import (
	"fmt"
	"sort"
)

// DefenseAverage is one bar of the season chart: a defense's per-game
// averages against a position, compared to its opponents and the league
type DefenseAverage struct {
	Rank    int    `json:"rank"`
	DefTeam string `json:"defteam"`

	FantasyPoints        float64 `json:"fantasy_points"`
	FantasyPointsHalfPPR float64 `json:"fantasy_points_half_ppr"`
	FantasyPointsPPR     float64 `json:"fantasy_points_ppr"`

	OppAvg        float64 `json:"opp_avg"`
	OppAvgHalfPPR float64 `json:"opp_avg_half_ppr"`
	OppAvgPPR     float64 `json:"opp_avg_ppr"`

	DiffOppAvg        float64 `json:"diff_opp_avg"`
	DiffOppAvgHalfPPR float64 `json:"diff_opp_avg_half_ppr"`
	DiffOppAvgPPR     float64 `json:"diff_opp_avg_ppr"`

	LeagueAverage        float64 `json:"league_average"`
	LeagueAverageHalfPPR float64 `json:"league_average_half_ppr"`
	LeagueAveragePPR     float64 `json:"league_average_ppr"`

	Difference        float64 `json:"difference"`
	DifferenceHalfPPR float64 `json:"difference_half_ppr"`
	DifferencePPR     float64 `json:"difference_ppr"`

	// Bar is drawn from Base; raw charts start at the league average
	Bar  float64 `json:"bar"`
	Base float64 `json:"base"`
}

// points returns (own, opponent average, diff vs opponent, league average, diff vs league)
func (d DefenseAverage) points(scoring ScoringSystem) (float64, float64, float64, float64, float64) {
	switch scoring {
	case PPR:
		return d.FantasyPointsPPR, d.OppAvgPPR, d.DiffOppAvgPPR, d.LeagueAveragePPR, d.DifferencePPR
	case HalfPPR:
		return d.FantasyPointsHalfPPR, d.OppAvgHalfPPR, d.DiffOppAvgHalfPPR, d.LeagueAverageHalfPPR, d.DifferenceHalfPPR
	default:
		return d.FantasyPoints, d.OppAvg, d.DiffOppAvg, d.LeagueAverage, d.Difference
	}
}

// SortValue is the column the season chart is ordered by
func (d DefenseAverage) SortValue(scoring ScoringSystem, graph GraphType) float64 {
	own, _, diffOpp, _, _ := d.points(scoring)
	if graph == Raw {
		return own
	}
	return diffOpp
}

type defenseSum struct {
	points pointSum
	opp    pointSum
}

// DefenseAverages builds the season bar chart for one position. Rows are
// ordered ascending by average points allowed (Raw) or by the difference from
// the opponents' averages (Adjusted); Rank is the position in that order.
func DefenseAverages(rows []FPARow, scoring ScoringSystem, graph GraphType) ([]DefenseAverage, error) {
	if _, err := ParseScoringSystem(string(scoring)); err != nil {
		return nil, err
	}
	if _, err := ParseGraphType(string(graph)); err != nil {
		return nil, err
	}

	sums := make(map[string]*defenseSum)
	var order []string
	for _, r := range rows {
		if r.DefTeam == "" {
			continue
		}
		sum, ok := sums[r.DefTeam]
		if !ok {
			sum = &defenseSum{}
			sums[r.DefTeam] = sum
			order = append(order, r.DefTeam)
		}
		sum.points.add(r.FantasyPoints, r.FantasyPointsPPR)
		sum.opp.add(r.OppAvg, r.OppAvgPPR)
	}

	out := make([]DefenseAverage, 0, len(order))
	var league [3]float64
	for _, team := range order {
		std, ppr := sums[team].points.mean()
		oppStd, oppPPR := sums[team].opp.mean()
		d := DefenseAverage{
			DefTeam:              team,
			FantasyPoints:        std,
			FantasyPointsHalfPPR: HalfPoints(std, ppr),
			FantasyPointsPPR:     ppr,
			OppAvg:               oppStd,
			OppAvgHalfPPR:        HalfPoints(oppStd, oppPPR),
			OppAvgPPR:            oppPPR,
		}
		d.DiffOppAvg = d.FantasyPoints - d.OppAvg
		d.DiffOppAvgHalfPPR = d.FantasyPointsHalfPPR - d.OppAvgHalfPPR
		d.DiffOppAvgPPR = d.FantasyPointsPPR - d.OppAvgPPR

		league[0] += d.FantasyPoints
		league[1] += d.FantasyPointsHalfPPR
		league[2] += d.FantasyPointsPPR
		out = append(out, d)
	}
	if len(out) == 0 {
		return out, nil
	}

	n := float64(len(out))
	for i := range out {
		d := &out[i]
		d.LeagueAverage = league[0] / n
		d.LeagueAverageHalfPPR = league[1] / n
		d.LeagueAveragePPR = league[2] / n
		d.Difference = d.FantasyPoints - d.LeagueAverage
		d.DifferenceHalfPPR = d.FantasyPointsHalfPPR - d.LeagueAverageHalfPPR
		d.DifferencePPR = d.FantasyPointsPPR - d.LeagueAveragePPR

		_, _, diffOpp, leagueAvg, diffLeague := d.points(scoring)
		if graph == Raw {
			d.Bar, d.Base = diffLeague, leagueAvg
		} else {
			d.Bar, d.Base = diffOpp, 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SortValue(scoring, graph), out[j].SortValue(scoring, graph)
		if a != b {
			return a < b
		}
		return out[i].DefTeam < out[j].DefTeam
	})
	for i := range out {
		out[i].Rank = i
	}
	return out, nil
}

// Title is the dashboard heading for a season view
func Title(season int, scoring ScoringSystem, position string) string {
	return fmt.Sprintf("%d %s Fantasy Points Against - %s", season, scoring, position)
}

// YAxisTitle labels the season chart
func YAxisTitle(position string, graph GraphType) string {
	if graph == Raw {
		return fmt.Sprintf("Fantasy Points Against %s", position)
	}
	return fmt.Sprintf("Fantasy Points Against %s - Opponent Avg Points", position)
}
