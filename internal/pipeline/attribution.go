package pipeline

import (
	"errors"
	"fmt"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// ErrDuplicateRosterEntry is returned when a player is listed twice on the same season roster
var ErrDuplicateRosterEntry = errors.New("duplicate roster entry")

type statKey struct {
	playerID string
	week     int
}

// MostRecentPositions combines two seasons of roster entries and keeps, for each
// gsis id, the entry from the latest season present. Entries without a gsis id
// cannot be joined and are skipped.
func MostRecentPositions(current, previous []nfl.RosterEntry) (map[string]nfl.RosterEntry, error) {
	latest := make(map[string]nfl.RosterEntry)
	seen := make(map[string]map[int]bool)

	combined := make([]nfl.RosterEntry, 0, len(current)+len(previous))
	combined = append(combined, current...)
	combined = append(combined, previous...)

	for _, entry := range combined {
		if entry.GsisID == "" {
			continue
		}
		if seen[entry.GsisID] == nil {
			seen[entry.GsisID] = make(map[int]bool)
		}
		if seen[entry.GsisID][entry.Season] {
			return nil, fmt.Errorf("%w: gsis_id %s season %d", ErrDuplicateRosterEntry, entry.GsisID, entry.Season)
		}
		seen[entry.GsisID][entry.Season] = true

		if existing, ok := latest[entry.GsisID]; !ok || entry.Season > existing.Season {
			latest[entry.GsisID] = entry
		}
	}
	return latest, nil
}

// Attribute inner joins participation to weekly stats on (player id, week) and
// then left joins the roster lookup on player id. Rows without stats are dropped;
// rows without a roster entry keep an empty position.
func Attribute(participation []nfl.Participation, stats []nfl.PlayerWeekStat, roster map[string]nfl.RosterEntry) []nfl.AttributedParticipation {
	byKey := make(map[statKey][]nfl.PlayerWeekStat, len(stats))
	for _, s := range stats {
		k := statKey{playerID: s.PlayerID, week: s.Week}
		byKey[k] = append(byKey[k], s)
	}

	out := make([]nfl.AttributedParticipation, 0, len(participation))
	for _, p := range participation {
		matches := byKey[statKey{playerID: p.PlayerID, week: p.Week}]
		for _, s := range matches {
			out = append(out, nfl.AttributedParticipation{
				Participation:    p,
				Position:         roster[p.PlayerID].Position,
				FantasyPoints:    s.FantasyPoints,
				FantasyPointsPPR: s.FantasyPointsPPR,
			})
		}
	}
	return out
}
