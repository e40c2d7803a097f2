package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// FileStore keeps season artifacts as parquet files in a cache directory
type FileStore struct {
	dir    string
	logger *logrus.Logger
}

// NewFileStore creates the cache directory if needed
func NewFileStore(dir string, logger *logrus.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(season int) string {
	return filepath.Join(s.dir, ArtifactName(season))
}

func (s *FileStore) Load(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	path := s.path(season)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &nfl.SeasonTable{Season: season, Rows: rows, BuiltAt: info.ModTime().UTC()}, nil
}

func (s *FileStore) Stat(ctx context.Context, season int) (time.Time, error) {
	info, err := os.Stat(s.path(season))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, ErrArtifactNotFound
		}
		return time.Time{}, fmt.Errorf("stat artifact: %w", err)
	}
	return info.ModTime().UTC(), nil
}

// Save writes to a temporary file and renames it into place so readers never
// see a partial artifact
func (s *FileStore) Save(ctx context.Context, table *nfl.SeasonTable) error {
	data, err := encodeRows(table.Rows)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(table.Season)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename artifact: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"season": table.Season,
		"rows":   len(table.Rows),
		"path":   s.path(table.Season),
	}).Info("Saved season artifact")
	return nil
}

func (s *FileStore) Delete(ctx context.Context, season int) error {
	if err := os.Remove(s.path(season)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrArtifactNotFound
		}
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	var seasons []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if season, ok := parseArtifactName(e.Name()); ok {
			seasons = append(seasons, season)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	return seasons, nil
}
