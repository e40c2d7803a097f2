package analysis

import (
	"fmt"
	"sort"
)

// WeeklyPoint is one game of a defense's weekly line chart
type WeeklyPoint struct {
	Week     int    `json:"week"`
	Opponent string `json:"posteam"`

	FantasyPoints        float64 `json:"fantasy_points"`
	FantasyPointsHalfPPR float64 `json:"fantasy_points_half_ppr"`
	FantasyPointsPPR     float64 `json:"fantasy_points_ppr"`

	OppAvg        float64 `json:"opp_avg"`
	OppAvgHalfPPR float64 `json:"opp_avg_half_ppr"`
	OppAvgPPR     float64 `json:"opp_avg_ppr"`

	// Value and OppValue are the two plotted series for the chosen scoring system
	Value    float64 `json:"value"`
	OppValue float64 `json:"opp_value"`
}

// Weekly returns one defense's games in week order. ErrNoData means the
// defense has no rows for the filtered position.
func Weekly(rows []FPARow, scoring ScoringSystem, team string) ([]WeeklyPoint, error) {
	if _, err := ParseScoringSystem(string(scoring)); err != nil {
		return nil, err
	}

	var out []WeeklyPoint
	for _, r := range rows {
		if r.DefTeam != team {
			continue
		}
		out = append(out, WeeklyPoint{
			Week:                 r.Week,
			Opponent:             r.PosTeam,
			FantasyPoints:        r.FantasyPoints,
			FantasyPointsHalfPPR: HalfPoints(r.FantasyPoints, r.FantasyPointsPPR),
			FantasyPointsPPR:     r.FantasyPointsPPR,
			OppAvg:               r.OppAvg,
			OppAvgHalfPPR:        HalfPoints(r.OppAvg, r.OppAvgPPR),
			OppAvgPPR:            r.OppAvgPPR,
			Value:                scoring.Points(r.FantasyPoints, r.FantasyPointsPPR),
			OppValue:             scoring.Points(r.OppAvg, r.OppAvgPPR),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, team)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Opponent < out[j].Opponent
	})
	return out, nil
}

// WeeklyTitle is the heading of a defense's weekly chart
func WeeklyTitle(team, position string) string {
	return fmt.Sprintf("%s Fantasy Points Against %s By Week", team, position)
}

// SeriesNames maps chart columns to legend labels
func SeriesNames(position string) map[string]string {
	oppAvg := fmt.Sprintf("Opponent %s Average Points", position)
	return map[string]string{
		"fantasy_points":          "Fantasy Points (Std.)",
		"fantasy_points_half_ppr": "Fantasy Points (Half-PPR)",
		"fantasy_points_ppr":      "Fantasy Points (PPR)",
		"opp_avg":                 oppAvg,
		"opp_avg_half_ppr":        oppAvg,
		"opp_avg_ppr":             oppAvg,
		"difference":              "Difference from League Average",
		"difference_half_ppr":     "Difference from League Average",
		"difference_ppr":          "Difference from League Average",
		"diff_opp_avg":            "Difference from Opponent Average",
		"diff_opp_avg_half_ppr":   "Difference from Opponent Average",
		"diff_opp_avg_ppr":        "Difference from Opponent Average",
	}
}
