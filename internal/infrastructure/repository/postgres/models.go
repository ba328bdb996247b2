package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fantasyscouter/engine/internal/domain/correction"
	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/team"
)

type teamTableModel struct {
	Slug       string `db:"slug"`
	Name       string `db:"name"`
	ExternalID int64  `db:"external_id"`
	CrestPath  string `db:"crest_path"`
	SquadSize  int    `db:"squad_size"`
	URL        string `db:"url"`
}

func teamToModel(t team.Team) teamTableModel {
	return teamTableModel{
		Slug:       t.Slug,
		Name:       t.Name,
		ExternalID: t.ExternalID,
		CrestPath:  t.CrestPath,
		SquadSize:  t.SquadSize,
		URL:        t.URL,
	}
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		Slug:       m.Slug,
		Name:       m.Name,
		ExternalID: m.ExternalID,
		CrestPath:  m.CrestPath,
		SquadSize:  m.SquadSize,
		URL:        m.URL,
	}
}

type matchTableModel struct {
	Jornada    int            `db:"jornada"`
	HomeTeam   string         `db:"home_team"`
	AwayTeam   string         `db:"away_team"`
	Score      sql.NullString `db:"score"`
	Date       time.Time      `db:"date"`
	ExternalID string         `db:"external_id"`
	URL        string         `db:"url"`
}

func matchToModel(m match.Match) matchTableModel {
	out := matchTableModel{
		Jornada:    m.Jornada,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Date:       m.Date,
		ExternalID: m.ExternalID,
		URL:        m.URL,
	}
	if m.Score != nil {
		out.Score = sql.NullString{String: m.Score.String(), Valid: true}
	}
	return out
}

func (m matchTableModel) toDomain() (match.Match, error) {
	out := match.Match{
		Jornada:    m.Jornada,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Date:       m.Date,
		ExternalID: m.ExternalID,
		URL:        m.URL,
	}
	if m.Score.Valid {
		score, err := match.ParseScore(m.Score.String)
		if err != nil {
			return out, err
		}
		out.Score = score
	}
	return out, nil
}

type playerTableModel struct {
	Slug        string  `db:"slug"`
	ExternalID  int64   `db:"external_id"`
	Name        string  `db:"name"`
	TeamSlug    string  `db:"team_slug"`
	Position    string  `db:"position"`
	Role        string  `db:"role"`
	PhotoPath   string  `db:"photo_path"`
	MarketValue int64   `db:"market_value"`
	PMR         float64 `db:"pmr"`
	ProbStarter float64 `db:"prob_starter"`
}

func playerToModel(p player.Player) playerTableModel {
	return playerTableModel{
		Slug:        p.Slug,
		ExternalID:  p.ExternalID,
		Name:        p.Name,
		TeamSlug:    p.TeamSlug,
		Position:    p.Position,
		Role:        p.Role,
		PhotoPath:   p.PhotoPath,
		MarketValue: p.MarketValue,
		PMR:         p.PMR,
		ProbStarter: p.ProbStarter,
	}
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		Slug:        m.Slug,
		ExternalID:  m.ExternalID,
		Name:        m.Name,
		TeamSlug:    m.TeamSlug,
		Position:    m.Position,
		Role:        m.Role,
		PhotoPath:   m.PhotoPath,
		MarketValue: m.MarketValue,
		PMR:         m.PMR,
		ProbStarter: m.ProbStarter,
	}
}

type performanceTableModel struct {
	PlayerSlug string `db:"player_slug"`
	Jornada    int    `db:"jornada"`
	HomeTeam   string `db:"home_team"`
	AwayTeam   string `db:"away_team"`
	Points     int    `db:"points"`
	Stats      []byte `db:"stats"`
	Breakdown  []byte `db:"breakdown"`
	Starter    bool   `db:"starter"`
	Status     string `db:"status"`
}

func performanceToModel(p performance.Performance) (performanceTableModel, error) {
	stats, err := encodeJSON(p.Stats)
	if err != nil {
		return performanceTableModel{}, err
	}
	breakdown, err := encodeJSON(p.Breakdown)
	if err != nil {
		return performanceTableModel{}, err
	}
	return performanceTableModel{
		PlayerSlug: p.PlayerSlug,
		Jornada:    p.Match.Jornada,
		HomeTeam:   p.Match.HomeTeam,
		AwayTeam:   p.Match.AwayTeam,
		Points:     p.Points,
		Stats:      stats,
		Breakdown:  breakdown,
		Starter:    p.Starter,
		Status:     string(p.Status),
	}, nil
}

func (m performanceTableModel) toDomain() (performance.Performance, error) {
	out := performance.Performance{
		PlayerSlug: m.PlayerSlug,
		Match: match.Key{
			Jornada:  m.Jornada,
			HomeTeam: m.HomeTeam,
			AwayTeam: m.AwayTeam,
		},
		Points:  m.Points,
		Starter: m.Starter,
		Status:  performance.Status(m.Status),
	}
	if err := decodeJSON(m.Stats, &out.Stats); err != nil {
		return out, err
	}
	if err := decodeJSON(m.Breakdown, &out.Breakdown); err != nil {
		return out, err
	}
	return out, nil
}

type marketValueTableModel struct {
	PlayerSlug string    `db:"player_slug"`
	Day        time.Time `db:"day"`
	Value      int64     `db:"value"`
}

func marketValueToModel(p marketvalue.Point) (marketValueTableModel, error) {
	day, err := marketvalue.ParseDay(p.Day)
	if err != nil {
		return marketValueTableModel{}, fmt.Errorf("parse market value day %q: %w", p.Day, err)
	}
	return marketValueTableModel{
		PlayerSlug: p.PlayerSlug,
		Day:        day,
		Value:      p.Value,
	}, nil
}

func (m marketValueTableModel) toDomain() marketvalue.Point {
	return marketvalue.Point{
		PlayerSlug: m.PlayerSlug,
		Day:        marketvalue.DayOf(m.Day),
		Value:      m.Value,
	}
}

type correctionTableModel struct {
	ID         int64     `db:"id"`
	Entity     string    `db:"entity"`
	RecordKey  string    `db:"record_key"`
	Field      string    `db:"field"`
	OldValue   string    `db:"old_value"`
	NewValue   string    `db:"new_value"`
	ObservedAt time.Time `db:"observed_at"`
}

func (m correctionTableModel) toDomain() correction.Event {
	return correction.Event{
		Entity:     m.Entity,
		RecordKey:  m.RecordKey,
		Field:      m.Field,
		OldValue:   m.OldValue,
		NewValue:   m.NewValue,
		ObservedAt: m.ObservedAt,
	}
}

type syncStateTableModel struct {
	ID        int64     `db:"id"`
	Version   int64     `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

type syncRunTableModel struct {
	ID         int64     `db:"id"`
	Status     string    `db:"status"`
	Summary    []byte    `db:"summary"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}
