package pipeline

import (
	"testing"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rush(week int, posteam, defteam, id, name string) nfl.Play {
	return nfl.Play{
		Week: week, PosTeam: posteam, DefTeam: defteam, PlayType: "run", SeasonType: "REG",
		RusherPlayerID: id, RusherPlayerName: name,
	}
}

func pass(week int, posteam, defteam, passerID, passer, receiverID, receiver string) nfl.Play {
	return nfl.Play{
		Week: week, PosTeam: posteam, DefTeam: defteam, PlayType: "pass", SeasonType: "REG",
		PasserPlayerID: passerID, PasserPlayerName: passer,
		ReceiverPlayerID: receiverID, ReceiverPlayerName: receiver,
	}
}

func TestExtractParticipation(t *testing.T) {
	t.Run("sums roles on the shared key", func(t *testing.T) {
		var plays []nfl.Play
		for i := 0; i < 5; i++ {
			plays = append(plays, rush(1, "BUF", "MIA", "00-1", "J.Allen"))
		}
		for i := 0; i < 3; i++ {
			plays = append(plays, pass(1, "BUF", "MIA", "00-1", "J.Allen", "00-2", "S.Diggs"))
		}

		got := ExtractParticipation(plays)
		require.Len(t, got, 2)

		byID := map[string]nfl.Participation{}
		for _, p := range got {
			byID[p.PlayerID] = p
		}
		assert.Equal(t, 8, byID["00-1"].Plays)
		assert.Equal(t, 3, byID["00-2"].Plays)
		assert.Equal(t, "BUF", byID["00-1"].PosTeam)
		assert.Equal(t, "MIA", byID["00-1"].DefTeam)
	})

	t.Run("plays without a player id are not counted", func(t *testing.T) {
		plays := []nfl.Play{
			{Week: 2, PosTeam: "KC", DefTeam: "LV", PlayType: "pass"},
			pass(2, "KC", "LV", "00-3", "P.Mahomes", "", ""),
		}

		got := ExtractParticipation(plays)
		require.Len(t, got, 1)
		assert.Equal(t, "00-3", got[0].PlayerID)
		assert.Equal(t, 1, got[0].Plays)
	})

	t.Run("missing teams are kept as their own group", func(t *testing.T) {
		plays := []nfl.Play{
			rush(3, "", "NYJ", "00-4", "B.Hall"),
			rush(3, "NE", "NYJ", "00-4", "B.Hall"),
			rush(3, "NE", "NYJ", "00-4", "B.Hall"),
		}

		got := ExtractParticipation(plays)
		require.Len(t, got, 2)
		assert.Equal(t, "", got[0].PosTeam)
		assert.Equal(t, 1, got[0].Plays)
		assert.Equal(t, "NE", got[1].PosTeam)
		assert.Equal(t, 2, got[1].Plays)
	})

	t.Run("same player against different defenses stays separate", func(t *testing.T) {
		plays := []nfl.Play{
			rush(1, "DAL", "NYG", "00-5", "T.Pollard"),
			rush(2, "DAL", "PHI", "00-5", "T.Pollard"),
		}

		got := ExtractParticipation(plays)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Week)
		assert.Equal(t, 2, got[1].Week)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ExtractParticipation(nil))
	})
}
