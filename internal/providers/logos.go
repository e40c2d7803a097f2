package providers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultLogoIndexURL lists team_code,url pairs for every franchise logo
const DefaultLogoIndexURL = "https://raw.githubusercontent.com/statsbylopez/BlogPosts/master/nfl_teamlogos.csv"

// BreakerServiceLogos is the circuit breaker name for logo downloads
const BreakerServiceLogos = "logos"

// TeamLogo is one entry of the logo index
type TeamLogo struct {
	TeamCode string `json:"team_code"`
	URL      string `json:"url"`
}

// LogoClient downloads the logo index and images at a limited rate
type LogoClient struct {
	httpClient *http.Client
	breaker    Breaker
	limiter    *rate.Limiter
	indexURL   string
	logger     *logrus.Logger
}

// NewLogoClient creates a new logo client allowing requestsPerSecond image downloads
func NewLogoClient(indexURL string, requestsPerSecond float64, breaker Breaker, logger *logrus.Logger) *LogoClient {
	if indexURL == "" {
		indexURL = DefaultLogoIndexURL
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 3
	}
	return &LogoClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:  breaker,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		indexURL: indexURL,
		logger:   logger,
	}
}

// Index fetches the team logo index
func (c *LogoClient) Index(ctx context.Context) ([]TeamLogo, error) {
	data, err := c.get(ctx, c.indexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logo index: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read logo index header: %w", err)
	}
	iCode, iURL := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "team_code":
			iCode = i
		case "url":
			iURL = i
		}
	}
	if iCode < 0 || iURL < 0 {
		return nil, &SchemaError{Dataset: "logo_index", Missing: []string{"team_code", "url"}}
	}

	var logos []TeamLogo
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read logo index row: %w", err)
		}
		if iCode >= len(rec) || iURL >= len(rec) || rec[iCode] == "" || rec[iURL] == "" {
			continue
		}
		logos = append(logos, TeamLogo{TeamCode: strings.TrimSpace(rec[iCode]), URL: strings.TrimSpace(rec[iURL])})
	}
	return logos, nil
}

// Image downloads one logo, waiting on the rate limiter first
func (c *LogoClient) Image(ctx context.Context, logo TeamLogo) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	data, err := c.get(ctx, logo.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logo %s: %w", logo.TeamCode, err)
	}
	return data, nil
}

func (c *LogoClient) get(ctx context.Context, url string) ([]byte, error) {
	fetch := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	var result interface{}
	var err error
	if c.breaker != nil {
		result, err = c.breaker.Execute(BreakerServiceLogos, fetch)
	} else {
		result, err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
