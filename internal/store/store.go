package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// ErrArtifactNotFound is returned when no artifact exists for a season
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore persists one aggregated allowance table per season. A stored
// artifact is authoritative until it is deleted.
type ArtifactStore interface {
	Load(ctx context.Context, season int) (*nfl.SeasonTable, error)
	// Stat returns when the stored artifact was built without reading it
	Stat(ctx context.Context, season int) (time.Time, error)
	Save(ctx context.Context, table *nfl.SeasonTable) error
	Delete(ctx context.Context, season int) error
	List(ctx context.Context) ([]int, error)
}

// ArtifactName is the file or object name of a season artifact
func ArtifactName(season int) string {
	return fmt.Sprintf("fpa_by_position_%d.parquet", season)
}

// parseArtifactName returns the season of an artifact name
func parseArtifactName(name string) (int, bool) {
	var season int
	if _, err := fmt.Sscanf(name, "fpa_by_position_%d.parquet", &season); err != nil {
		return 0, false
	}
	if ArtifactName(season) != name {
		return 0, false
	}
	return season, true
}

func encodeRows(rows []nfl.AllowanceRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return nil, fmt.Errorf("encode parquet: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRows(data []byte) ([]nfl.AllowanceRow, error) {
	rows, err := parquet.Read[nfl.AllowanceRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet: %w", err)
	}
	return rows, nil
}
