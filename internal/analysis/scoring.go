package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

var (
	ErrUnknownScoringSystem = errors.New("unknown scoring system")
	ErrUnknownGraphType     = errors.New("unknown graph type")
	ErrUnknownPosition      = errors.New("unknown position")
	ErrNoData               = errors.New("no data")
)

// ScoringSystem selects which fantasy point column drives a view
type ScoringSystem string

const (
	Standard ScoringSystem = "Standard"
	HalfPPR  ScoringSystem = "Half-PPR"
	PPR      ScoringSystem = "PPR"
)

// ScoringSystems in display order
var ScoringSystems = []ScoringSystem{Standard, HalfPPR, PPR}

// DefaultScoringSystem is selected when a request does not name one
const DefaultScoringSystem = HalfPPR

// ParseScoringSystem accepts the display names and their lowercase or
// underscore spellings. An empty string yields the default.
func ParseScoringSystem(s string) (ScoringSystem, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "":
		return DefaultScoringSystem, nil
	case "standard", "std":
		return Standard, nil
	case "half-ppr", "half":
		return HalfPPR, nil
	case "ppr":
		return PPR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScoringSystem, s)
}

// Points picks the value for this scoring system; half PPR is the mean of the two
func (s ScoringSystem) Points(standard, ppr float64) float64 {
	switch s {
	case PPR:
		return ppr
	case HalfPPR:
		return HalfPoints(standard, ppr)
	default:
		return standard
	}
}

func HalfPoints(standard, ppr float64) float64 {
	return (standard + ppr) / 2
}

// GraphType selects raw averages or averages relative to the opponents faced
type GraphType string

const (
	Raw      GraphType = "Raw"
	Adjusted GraphType = "Strength of schedule adjusted"
)

var GraphTypes = []GraphType{Raw, Adjusted}

func ParseGraphType(s string) (GraphType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return Raw, nil
	case "adjusted", "sos", strings.ToLower(string(Adjusted)):
		return Adjusted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGraphType, s)
}

// Positions that can be charted
var Positions = []string{nfl.PositionWR, nfl.PositionRB, nfl.PositionTE, nfl.PositionQB, nfl.PositionNonSkill}

// DefaultPosition is charted when a request does not name one
const DefaultPosition = nfl.PositionWR

func ParsePosition(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPosition, nil
	}
	if strings.EqualFold(s, nfl.PositionNonSkill) {
		return nfl.PositionNonSkill, nil
	}
	upper := strings.ToUpper(s)
	for _, p := range Positions {
		if p == upper {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPosition, s)
}
