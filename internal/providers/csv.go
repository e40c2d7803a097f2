package providers

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// SchemaError reports a dataset whose header lacks columns the pipeline needs
type SchemaError struct {
	Dataset nfl.Dataset
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: required columns missing: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

var requiredColumns = map[nfl.Dataset][]string{
	nfl.DatasetPlayByPlay: {
		"week", "posteam", "defteam", "play_type", "special_teams_play", "epa", "season_type",
		"rusher_player_id", "rusher_player_name",
		"passer_player_id", "passer_player_name",
		"receiver_player_id", "receiver_player_name",
	},
	nfl.DatasetPlayerStats: {"player_id", "week", "fantasy_points", "fantasy_points_ppr"},
	nfl.DatasetRoster:      {"gsis_id", "season", "position"},
}

// csvTable reads records by column name
type csvTable struct {
	reader *csv.Reader
	index  map[string]int
}

// newCSVTable wraps r, transparently gunzipping it, and validates the header
// against the columns required for dataset.
func newCSVTable(r io.Reader, dataset nfl.Dataset) (*csvTable, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", dataset, err)
		}
		src = gz
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Dataset: dataset, Missing: requiredColumns[dataset]}
		}
		return nil, fmt.Errorf("read %s header: %w", dataset, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, col := range requiredColumns[dataset] {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Dataset: dataset, Missing: missing}
	}

	return &csvTable{reader: reader, index: index}, nil
}

// each calls fn for every record until EOF
func (t *csvTable) each(fn func(rec record) error) error {
	for {
		rec, err := t.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if err := fn(record{values: rec, index: t.index}); err != nil {
			return err
		}
	}
}

type record struct {
	values []string
	index  map[string]int
}

// str returns the column value with upstream NA markers mapped to ""
func (r record) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	v := strings.TrimSpace(r.values[i])
	if v == "NA" {
		return ""
	}
	return v
}

func (r record) floatValue(col string) (float64, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return f, nil
}

// intValue accepts both "3" and "3.0"
func (r record) intValue(col string) (int, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return int(f), nil
}

// decodePlays keeps regular season pass and run plays with a valid epa that
// are not special teams snaps
func decodePlays(r io.Reader) ([]nfl.Play, error) {
	table, err := newCSVTable(r, nfl.DatasetPlayByPlay)
	if err != nil {
		return nil, err
	}

	plays := make([]nfl.Play, 0, 40000)
	err = table.each(func(rec record) error {
		if rec.str("season_type") != "REG" {
			return nil
		}
		playType := rec.str("play_type")
		if playType != "pass" && playType != "run" {
			return nil
		}
		if rec.str("special_teams_play") == "" {
			return nil
		}
		special, err := rec.floatValue("special_teams_play")
		if err != nil {
			return err
		}
		if special != 0 {
			return nil
		}
		if rec.str("epa") == "" {
			return nil
		}
		epa, err := rec.floatValue("epa")
		if err != nil {
			return err
		}
		week, err := rec.intValue("week")
		if err != nil {
			return err
		}

		plays = append(plays, nfl.Play{
			Week:               week,
			PosTeam:            rec.str("posteam"),
			DefTeam:            rec.str("defteam"),
			PlayType:           playType,
			SeasonType:         "REG",
			EPA:                epa,
			RusherPlayerID:     rec.str("rusher_player_id"),
			RusherPlayerName:   rec.str("rusher_player_name"),
			PasserPlayerID:     rec.str("passer_player_id"),
			PasserPlayerName:   rec.str("passer_player_name"),
			ReceiverPlayerID:   rec.str("receiver_player_id"),
			ReceiverPlayerName: rec.str("receiver_player_name"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", nfl.DatasetPlayByPlay, err)
	}
	return plays, nil
}

func decodePlayerStats(r io.Reader) ([]nfl.PlayerWeekStat, error) {
	table, err := newCSVTable(r, nfl.DatasetPlayerStats)
	if err != nil {
		return nil, err
	}

	var stats []nfl.PlayerWeekStat
	err = table.each(func(rec record) error {
		week, err := rec.intValue("week")
		if err != nil {
			return err
		}
		std, err := rec.floatValue("fantasy_points")
		if err != nil {
			return err
		}
		ppr, err := rec.floatValue("fantasy_points_ppr")
		if err != nil {
			return err
		}
		stats = append(stats, nfl.PlayerWeekStat{
			PlayerID:         rec.str("player_id"),
			Week:             week,
			FantasyPoints:    std,
			FantasyPointsPPR: ppr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", nfl.DatasetPlayerStats, err)
	}
	return stats, nil
}

func decodeRoster(r io.Reader) ([]nfl.RosterEntry, error) {
	table, err := newCSVTable(r, nfl.DatasetRoster)
	if err != nil {
		return nil, err
	}

	var roster []nfl.RosterEntry
	err = table.each(func(rec record) error {
		season, err := rec.intValue("season")
		if err != nil {
			return err
		}
		roster = append(roster, nfl.RosterEntry{
			GsisID:   rec.str("gsis_id"),
			Season:   season,
			Position: strings.ToUpper(rec.str("position")),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", nfl.DatasetRoster, err)
	}
	return roster, nil
}
