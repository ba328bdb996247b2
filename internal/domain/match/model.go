package match

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key identifies one fixture: the jornada number plus both team slugs.
// It stays stable across re-scrapes of the same fixture.
type Key struct {
	Jornada  int    `json:"jornada"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
}

func (k Key) Valid() bool {
	return k.Jornada > 0 && strings.TrimSpace(k.HomeTeam) != "" && strings.TrimSpace(k.AwayTeam) != ""
}

func (k Key) String() string {
	return fmt.Sprintf("j%02d:%s:%s", k.Jornada, k.HomeTeam, k.AwayTeam)
}

// Score is a played result. The wire format is "home-away", e.g. "2-1".
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func ParseScore(raw string) (*Score, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed score %q", raw)
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || home < 0 {
		return nil, fmt.Errorf("malformed home goals in score %q", raw)
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || away < 0 {
		return nil, fmt.Errorf("malformed away goals in score %q", raw)
	}
	return &Score{Home: home, Away: away}, nil
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// ScoresEqual compares two nullable scores.
func ScoresEqual(a, b *Score) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Match represents one scheduled or played fixture. All fixtures of a season
// are created at calendar ingestion with a nil score; the score is filled in
// by the results re-scrape and never deleted within a season.
type Match struct {
	Jornada    int       `json:"jornada" validate:"gt=0"`
	HomeTeam   string    `json:"home_team" validate:"required"`
	AwayTeam   string    `json:"away_team" validate:"required"`
	Score      *Score    `json:"score,omitempty"`
	Date       time.Time `json:"date"`
	ExternalID string    `json:"external_id"`
	URL        string    `json:"url"`
}

func (m Match) Key() Key {
	return Key{Jornada: m.Jornada, HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam}
}

func (m Match) Played() bool { return m.Score != nil }

func (m Match) Equal(other Match) bool {
	return m.Jornada == other.Jornada &&
		m.HomeTeam == other.HomeTeam &&
		m.AwayTeam == other.AwayTeam &&
		ScoresEqual(m.Score, other.Score) &&
		m.Date.Equal(other.Date) &&
		m.ExternalID == other.ExternalID &&
		m.URL == other.URL
}
