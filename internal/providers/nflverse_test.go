package providers

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pbpHeader = "play_id,week,posteam,defteam,play_type,special_teams_play,epa,season_type," +
	"rusher_player_id,rusher_player_name,passer_player_id,passer_player_name,receiver_player_id,receiver_player_name\n"

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestDecodePlays(t *testing.T) {
	data := pbpHeader +
		"1,1,BUF,MIA,run,0,0.5,REG,00-1,J.Cook,,,,\n" +
		"2,1,BUF,MIA,pass,0,-0.2,REG,,,00-2,J.Allen,00-3,S.Diggs\n" +
		"3,1,BUF,MIA,punt,1,0.1,REG,,,,,,\n" +
		"4,1,BUF,MIA,run,1,0.1,REG,00-1,J.Cook,,,,\n" +
		"5,1,BUF,MIA,run,0,NA,REG,00-1,J.Cook,,,,\n" +
		"6,19,BUF,MIA,run,0,0.3,POST,00-1,J.Cook,,,,\n" +
		"7,1,,MIA,run,0.0,0.3,REG,00-1,J.Cook,,,,\n"

	plays, err := decodePlays(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, plays, 3)

	assert.Equal(t, "00-1", plays[0].RusherPlayerID)
	assert.Equal(t, "J.Cook", plays[0].RusherPlayerName)
	assert.Equal(t, "00-2", plays[1].PasserPlayerID)
	assert.Equal(t, "00-3", plays[1].ReceiverPlayerID)
	assert.Equal(t, "", plays[2].PosTeam)
	assert.Equal(t, "MIA", plays[2].DefTeam)
}

func TestDecodePlaysGzip(t *testing.T) {
	data := gzipBytes(t, pbpHeader+"1,3,KC,LV,pass,0,1.2,REG,,,00-9,P.Mahomes,,\n")

	plays, err := decodePlays(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, plays, 1)
	assert.Equal(t, 3, plays[0].Week)
}

func TestSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		decode  func() error
		dataset nfl.Dataset
		missing []string
	}{
		{
			name: "player stats without ppr",
			decode: func() error {
				_, err := decodePlayerStats(strings.NewReader("player_id,week,fantasy_points\nA,1,3.0\n"))
				return err
			},
			dataset: nfl.DatasetPlayerStats,
			missing: []string{"fantasy_points_ppr"},
		},
		{
			name: "roster without gsis id",
			decode: func() error {
				_, err := decodeRoster(strings.NewReader("season,position\n2021,WR\n"))
				return err
			},
			dataset: nfl.DatasetRoster,
			missing: []string{"gsis_id"},
		},
		{
			name: "empty play-by-play",
			decode: func() error {
				_, err := decodePlays(strings.NewReader(""))
				return err
			},
			dataset: nfl.DatasetPlayByPlay,
			missing: requiredColumns[nfl.DatasetPlayByPlay],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.dataset, schemaErr.Dataset)
			assert.Equal(t, tt.missing, schemaErr.Missing)
		})
	}
}

func TestDecodeRosterAndStats(t *testing.T) {
	roster, err := decodeRoster(strings.NewReader("season,gsis_id,position,full_name\n2021,00-1,wr,A\n2021,,TE,B\n"))
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "WR", roster[0].Position)
	assert.Equal(t, "", roster[1].GsisID)

	stats, err := decodePlayerStats(strings.NewReader("player_id,week,fantasy_points,fantasy_points_ppr\n00-1,2,12.5,17.5\n00-2,2,NA,NA\n"))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 12.5, stats[0].FantasyPoints)
	assert.Equal(t, 17.5, stats[0].FantasyPointsPPR)
	assert.Equal(t, 0.0, stats[1].FantasyPoints)
}

func TestNFLVerseClient(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads from remote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/roster_2021.csv":
				fmt.Fprint(w, "season,gsis_id,position\n2021,00-1,RB\n")
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		client := NewNFLVerseClient(NFLVerseConfig{
			RosterURLTemplate: server.URL + "/roster_%d.csv",
		}, nil, testLogger())

		roster, err := client.Roster(ctx, 2021)
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, "RB", roster[0].Position)

		_, err = client.Roster(ctx, 1999)
		assert.Error(t, err)
	})

	t.Run("prefers raw file on disk", func(t *testing.T) {
		dir := t.TempDir()
		raw := gzipBytes(t, "player_id,week,fantasy_points,fantasy_points_ppr\n00-1,1,8,10\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, RawFileName(nfl.DatasetPlayerStats, 2020)), raw, 0o644))

		client := NewNFLVerseClient(NFLVerseConfig{
			RawDataDir:             dir,
			PlayerStatsURLTemplate: "http://127.0.0.1:1/unreachable_%d",
		}, nil, testLogger())

		stats, err := client.PlayerStats(ctx, 2020)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, 8.0, stats[0].FantasyPoints)
	})

	t.Run("breaker wraps downloads", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, pbpHeader)
		}))
		defer server.Close()

		breaker := &recordingBreaker{}
		client := NewNFLVerseClient(NFLVerseConfig{
			PlayByPlayURLTemplate: server.URL + "/pbp_%d.csv",
		}, breaker, testLogger())

		plays, err := client.PlayByPlay(ctx, 2021)
		require.NoError(t, err)
		assert.Empty(t, plays)
		assert.Equal(t, []string{BreakerServiceNFLVerse}, breaker.calls)
	})
}

type recordingBreaker struct {
	calls []string
}

func (b *recordingBreaker) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	b.calls = append(b.calls, service)
	return fn()
}

func TestLogoClientIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.csv":
			fmt.Fprintf(w, "team_code,url\nBUF,%s/buf.png\nMIA,%s/mia.png\n,\n", "http://"+r.Host, "http://"+r.Host)
		case "/buf.png":
			w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewLogoClient(server.URL+"/index.csv", 100, nil, testLogger())

	logos, err := client.Index(context.Background())
	require.NoError(t, err)
	require.Len(t, logos, 2)
	assert.Equal(t, "BUF", logos[0].TeamCode)

	data, err := client.Image(context.Background(), logos[0])
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = client.Image(context.Background(), logos[1])
	assert.Error(t, err)
}
