package pipeline

import (
	"sort"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// role picks the player a play is credited to for one kind of involvement
type role struct {
	name string
	pick func(p nfl.Play) (id, name string)
}

var roles = []role{
	{name: "rusher", pick: func(p nfl.Play) (string, string) { return p.RusherPlayerID, p.RusherPlayerName }},
	{name: "passer", pick: func(p nfl.Play) (string, string) { return p.PasserPlayerID, p.PasserPlayerName }},
	{name: "receiver", pick: func(p nfl.Play) (string, string) { return p.ReceiverPlayerID, p.ReceiverPlayerName }},
}

// countRole groups the plays where the role's player id is present and counts them.
// Keys with an empty posteam or defteam are kept as their own group.
func countRole(plays []nfl.Play, r role) map[nfl.ParticipationKey]int {
	counts := make(map[nfl.ParticipationKey]int)
	for _, p := range plays {
		id, name := r.pick(p)
		if id == "" {
			continue
		}
		key := nfl.ParticipationKey{
			Player:   name,
			PlayerID: id,
			GameKey:  nfl.GameKey{Week: p.Week, PosTeam: p.PosTeam, DefTeam: p.DefTeam},
		}
		counts[key]++
	}
	return counts
}

// ExtractParticipation returns one row per (player, week, offense, defense) with
// rushing, passing and receiving plays summed together.
func ExtractParticipation(plays []nfl.Play) []nfl.Participation {
	total := make(map[nfl.ParticipationKey]int)
	for _, r := range roles {
		for key, n := range countRole(plays, r) {
			total[key] += n
		}
	}

	out := make([]nfl.Participation, 0, len(total))
	for key, n := range total {
		out = append(out, nfl.Participation{ParticipationKey: key, Plays: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return lessParticipationKey(out[i].ParticipationKey, out[j].ParticipationKey)
	})
	return out
}

func lessGameKey(a, b nfl.GameKey) bool {
	if a.Week != b.Week {
		return a.Week < b.Week
	}
	if a.PosTeam != b.PosTeam {
		return a.PosTeam < b.PosTeam
	}
	return a.DefTeam < b.DefTeam
}

func lessParticipationKey(a, b nfl.ParticipationKey) bool {
	if a.Player != b.Player {
		return a.Player < b.Player
	}
	if a.PlayerID != b.PlayerID {
		return a.PlayerID < b.PlayerID
	}
	return lessGameKey(a.GameKey, b.GameKey)
}
