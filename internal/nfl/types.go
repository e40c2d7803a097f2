package nfl

import (
	"context"
	"time"
)

// Position buckets that survive aggregation
const (
	PositionQB       = "QB"
	PositionRB       = "RB"
	PositionFB       = "FB"
	PositionWR       = "WR"
	PositionTE       = "TE"
	PositionNonSkill = "non_skill"
)

// Play is one regular-season offensive snap from the play-by-play dataset.
// Empty strings stand for values that are missing upstream.
type Play struct {
	Week               int     `json:"week"`
	PosTeam            string  `json:"posteam"`
	DefTeam            string  `json:"defteam"`
	PlayType           string  `json:"play_type"`
	SpecialTeamsPlay   bool    `json:"special_teams_play"`
	SeasonType         string  `json:"season_type"`
	EPA                float64 `json:"epa"`
	RusherPlayerID     string  `json:"rusher_player_id,omitempty"`
	RusherPlayerName   string  `json:"rusher_player_name,omitempty"`
	PasserPlayerID     string  `json:"passer_player_id,omitempty"`
	PasserPlayerName   string  `json:"passer_player_name,omitempty"`
	ReceiverPlayerID   string  `json:"receiver_player_id,omitempty"`
	ReceiverPlayerName string  `json:"receiver_player_name,omitempty"`
}

// GameKey identifies one offense facing one defense in a week
type GameKey struct {
	Week    int    `json:"week"`
	PosTeam string `json:"posteam"`
	DefTeam string `json:"defteam"`
}

// ParticipationKey is the grouping key of a participation row
type ParticipationKey struct {
	Player   string `json:"player"`
	PlayerID string `json:"player_id"`
	GameKey
}

// Participation counts the plays a player took part in as rusher, passer or receiver
type Participation struct {
	ParticipationKey
	Plays int `json:"plays"`
}

// PlayerWeekStat holds a player's fantasy output for one week
type PlayerWeekStat struct {
	PlayerID         string  `json:"player_id"`
	Week             int     `json:"week"`
	FantasyPoints    float64 `json:"fantasy_points"`
	FantasyPointsPPR float64 `json:"fantasy_points_ppr"`
}

// RosterEntry is a player's listing on a season roster
type RosterEntry struct {
	GsisID   string `json:"gsis_id"`
	Season   int    `json:"season"`
	Position string `json:"position"`
}

// AttributedParticipation is a participation row joined with the player's
// weekly stats and most recent roster position
type AttributedParticipation struct {
	Participation
	Position         string  `json:"position"`
	FantasyPoints    float64 `json:"fantasy_points"`
	FantasyPointsPPR float64 `json:"fantasy_points_ppr"`
}

// AllowanceRow is fantasy points a defense allowed to one position in one game
type AllowanceRow struct {
	Week             int     `json:"week" parquet:"week"`
	DefTeam          string  `json:"defteam" parquet:"defteam"`
	PosTeam          string  `json:"posteam" parquet:"posteam"`
	Position         string  `json:"position" parquet:"position"`
	FantasyPoints    float64 `json:"fantasy_points" parquet:"fantasy_points"`
	FantasyPointsPPR float64 `json:"fantasy_points_ppr" parquet:"fantasy_points_ppr"`
}

// SeasonTable is the aggregated allowance table for one season
type SeasonTable struct {
	Season  int            `json:"season"`
	Rows    []AllowanceRow `json:"rows"`
	BuiltAt time.Time      `json:"built_at"`
}

// Dataset names the three upstream tables
type Dataset string

const (
	DatasetPlayByPlay  Dataset = "play_by_play"
	DatasetRoster      Dataset = "roster"
	DatasetPlayerStats Dataset = "player_stats"
)

// Source is the raw data fetcher contract used by the pipeline
type Source interface {
	PlayByPlay(ctx context.Context, season int) ([]Play, error)
	PlayerStats(ctx context.Context, season int) ([]PlayerWeekStat, error)
	Roster(ctx context.Context, season int) ([]RosterEntry, error)
}

// CacheProvider interface for response cache operations
type CacheProvider interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}
