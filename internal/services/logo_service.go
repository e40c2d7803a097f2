package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/providers"
)

// ErrLogoNotFound is returned when no logo file exists for a team
var ErrLogoNotFound = errors.New("logo not found")

// LogoFetcher is the part of the logo client the service needs
type LogoFetcher interface {
	Index(ctx context.Context) ([]providers.TeamLogo, error)
	Image(ctx context.Context, logo providers.TeamLogo) ([]byte, error)
}

// LogoService keeps a local copy of every team logo under dir
type LogoService struct {
	fetcher LogoFetcher
	dir     string
	logger  *logrus.Logger
}

func NewLogoService(fetcher LogoFetcher, dir string, logger *logrus.Logger) *LogoService {
	return &LogoService{
		fetcher: fetcher,
		dir:     dir,
		logger:  logger,
	}
}

// logoFile maps a team code to its file under dir, rejecting codes that could
// leave it
func (s *LogoService) logoFile(team string) (string, bool) {
	team = strings.ToUpper(strings.TrimSpace(team))
	if team == "" || strings.ContainsAny(team, `/\.`) {
		return "", false
	}
	return filepath.Join(s.dir, team+".png"), true
}

// Path returns the local file of a team's logo
func (s *LogoService) Path(team string) (string, error) {
	path, ok := s.logoFile(team)
	if !ok {
		return "", ErrLogoNotFound
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrLogoNotFound
		}
		return "", err
	}
	return path, nil
}

// EnsureLogos downloads the logos that are not on disk yet and returns how
// many were fetched
func (s *LogoService) EnsureLogos(ctx context.Context) (int, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create logo dir: %w", err)
	}

	logos, err := s.fetcher.Index(ctx)
	if err != nil {
		return 0, err
	}

	fetched := 0
	for _, logo := range logos {
		path, ok := s.logoFile(logo.TeamCode)
		if !ok {
			s.logger.WithField("team_code", logo.TeamCode).Warn("Skipping logo with invalid team code")
			continue
		}
		if _, err := os.Stat(path); err == nil {
			continue
		}

		data, err := s.fetcher.Image(ctx, logo)
		if err != nil {
			return fetched, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fetched, fmt.Errorf("failed to write logo %s: %w", logo.TeamCode, err)
		}
		fetched++
	}

	s.logger.WithFields(logrus.Fields{
		"total":   len(logos),
		"fetched": fetched,
	}).Info("Team logos ready")
	return fetched, nil
}
