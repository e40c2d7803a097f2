package pipeline

import (
	"testing"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attributed(id string, week int, posteam, defteam, position string, std, ppr float64) nfl.AttributedParticipation {
	return nfl.AttributedParticipation{
		Participation:    participation(id, week, posteam, defteam, 1),
		Position:         position,
		FantasyPoints:    std,
		FantasyPointsPPR: ppr,
	}
}

func TestAggregateByPosition(t *testing.T) {
	t.Run("single running back", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("A", 1, "BUF", "MIA", "RB", 8.0, 10.0),
		})
		require.Len(t, got, 1)
		assert.Equal(t, nfl.AllowanceRow{
			Week: 1, DefTeam: "MIA", PosTeam: "BUF", Position: "RB",
			FantasyPoints: 8.0, FantasyPointsPPR: 10.0,
		}, got[0])
	})

	t.Run("kicker above threshold becomes non_skill only", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("K", 3, "KC", "DEN", "K", 9.0, 9.0),
		})
		require.Len(t, got, 1)
		assert.Equal(t, nfl.PositionNonSkill, got[0].Position)
		assert.Equal(t, 9.0, got[0].FantasyPoints)
		assert.Equal(t, 9.0, got[0].FantasyPointsPPR)
	})

	t.Run("threshold is strict", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("K", 3, "KC", "DEN", "P", 4.0, 4.0),
			attributed("U", 3, "KC", "DEN", "", 2.0, 2.0),
		})
		assert.Empty(t, got)
	})

	t.Run("unconventional players in one game are summed", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("K", 5, "SF", "SEA", "K", 4.0, 4.0),
			attributed("U", 5, "SF", "SEA", "", 3.5, 4.5),
		})
		require.Len(t, got, 1)
		assert.Equal(t, 7.5, got[0].FantasyPoints)
		// non_skill rows carry the summed PPR as well as standard points
		assert.Equal(t, 8.5, got[0].FantasyPointsPPR)
	})

	t.Run("fullback folds into running back", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("F", 2, "SF", "LA", "FB", 3.0, 4.0),
			attributed("R", 2, "SF", "LA", "RB", 10.0, 12.0),
		})
		require.Len(t, got, 1)
		assert.Equal(t, "RB", got[0].Position)
		assert.Equal(t, 13.0, got[0].FantasyPoints)
		assert.Equal(t, 16.0, got[0].FantasyPointsPPR)
	})

	t.Run("fullback never counts toward non_skill", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("F", 2, "SF", "LA", "FB", 20.0, 20.0),
		})
		require.Len(t, got, 1)
		assert.Equal(t, "RB", got[0].Position)
	})

	t.Run("positions are summed per defense", func(t *testing.T) {
		got := AggregateByPosition([]nfl.AttributedParticipation{
			attributed("W1", 1, "MIN", "GB", "WR", 10.0, 15.0),
			attributed("W2", 1, "MIN", "GB", "WR", 5.0, 9.0),
			attributed("T1", 1, "MIN", "GB", "TE", 2.0, 4.0),
			attributed("W3", 1, "DET", "CHI", "WR", 1.0, 2.0),
		})
		require.Len(t, got, 3)
		assert.Equal(t, "CHI", got[0].DefTeam)
		assert.Equal(t, "GB", got[1].DefTeam)
		assert.Equal(t, "TE", got[1].Position)
		assert.Equal(t, "WR", got[2].Position)
		assert.Equal(t, 15.0, got[2].FantasyPoints)
		assert.Equal(t, 24.0, got[2].FantasyPointsPPR)
	})

	t.Run("output is deterministic", func(t *testing.T) {
		in := []nfl.AttributedParticipation{
			attributed("Q", 4, "CIN", "BAL", "QB", 22.3, 22.3),
			attributed("W", 4, "CIN", "BAL", "WR", 11.1, 16.1),
			attributed("K", 4, "CIN", "BAL", "K", 7.0, 7.0),
			attributed("R", 4, "BAL", "CIN", "RB", 13.4, 15.4),
		}
		first := AggregateByPosition(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, AggregateByPosition(in))
		}
	})
}
