package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// Default nflverse release locations, formatted with the season
const (
	DefaultPlayByPlayURL  = "https://github.com/nflverse/nflverse-data/releases/download/pbp/play_by_play_%d.csv.gz"
	DefaultRosterURL      = "https://github.com/nflverse/nflverse-data/releases/download/rosters/roster_%d.csv"
	DefaultPlayerStatsURL = "https://github.com/nflverse/nflfastR-data/blob/master/data/player_stats/player_stats_%d.csv.gz?raw=True"
)

// BreakerServiceNFLVerse is the circuit breaker name for dataset downloads
const BreakerServiceNFLVerse = "nflverse"

// Breaker runs a call under circuit breaker protection
type Breaker interface {
	Execute(service string, fn func() (interface{}, error)) (interface{}, error)
}

// NFLVerseConfig locates the three datasets
type NFLVerseConfig struct {
	PlayByPlayURLTemplate  string
	RosterURLTemplate      string
	PlayerStatsURLTemplate string
	RawDataDir             string
	Timeout                time.Duration
}

// NFLVerseClient implements nfl.Source against the nflverse CSV releases
type NFLVerseClient struct {
	httpClient *http.Client
	breaker    Breaker
	config     NFLVerseConfig
	logger     *logrus.Logger
}

// NewNFLVerseClient creates a new nflverse client. A nil breaker calls upstream directly.
func NewNFLVerseClient(cfg NFLVerseConfig, breaker Breaker, logger *logrus.Logger) *NFLVerseClient {
	if cfg.PlayByPlayURLTemplate == "" {
		cfg.PlayByPlayURLTemplate = DefaultPlayByPlayURL
	}
	if cfg.RosterURLTemplate == "" {
		cfg.RosterURLTemplate = DefaultRosterURL
	}
	if cfg.PlayerStatsURLTemplate == "" {
		cfg.PlayerStatsURLTemplate = DefaultPlayerStatsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &NFLVerseClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: breaker,
		config:  cfg,
		logger:  logger,
	}
}

// PlayByPlay returns the filtered play-by-play rows for a season
func (c *NFLVerseClient) PlayByPlay(ctx context.Context, season int) ([]nfl.Play, error) {
	body, err := c.open(ctx, nfl.DatasetPlayByPlay, season)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodePlays(body)
}

// PlayerStats returns weekly fantasy points for every player in a season
func (c *NFLVerseClient) PlayerStats(ctx context.Context, season int) ([]nfl.PlayerWeekStat, error) {
	body, err := c.open(ctx, nfl.DatasetPlayerStats, season)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodePlayerStats(body)
}

// Roster returns the season roster
func (c *NFLVerseClient) Roster(ctx context.Context, season int) ([]nfl.RosterEntry, error) {
	body, err := c.open(ctx, nfl.DatasetRoster, season)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodeRoster(body)
}

// RawFileName is the local file name checked before downloading a dataset
func RawFileName(dataset nfl.Dataset, season int) string {
	return fmt.Sprintf("%s_%d.csv.gz", dataset, season)
}

func (c *NFLVerseClient) urlFor(dataset nfl.Dataset, season int) string {
	switch dataset {
	case nfl.DatasetPlayByPlay:
		return fmt.Sprintf(c.config.PlayByPlayURLTemplate, season)
	case nfl.DatasetRoster:
		return fmt.Sprintf(c.config.RosterURLTemplate, season)
	default:
		return fmt.Sprintf(c.config.PlayerStatsURLTemplate, season)
	}
}

// open prefers a raw file under RawDataDir and falls back to the remote release
func (c *NFLVerseClient) open(ctx context.Context, dataset nfl.Dataset, season int) (io.ReadCloser, error) {
	log := c.logger.WithFields(logrus.Fields{
		"dataset": dataset,
		"season":  season,
	})

	if c.config.RawDataDir != "" {
		path := filepath.Join(c.config.RawDataDir, RawFileName(dataset, season))
		f, err := os.Open(path)
		if err == nil {
			log.WithField("path", path).Debug("Reading raw dataset from disk")
			return f, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open raw %s: %w", path, err)
		}
	}

	url := c.urlFor(dataset, season)
	log.WithField("url", url).Info("Downloading dataset")

	download := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "fpa-dashboard/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", dataset, err)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("%s download %s: %s (%s)", dataset, url, resp.Status, string(b))
		}
		return resp, nil
	}

	var result interface{}
	var err error
	if c.breaker != nil {
		result, err = c.breaker.Execute(BreakerServiceNFLVerse, download)
	} else {
		result, err = download()
	}
	if err != nil {
		log.WithError(err).Error("Dataset download failed")
		return nil, err
	}
	return result.(*http.Response).Body, nil
}
