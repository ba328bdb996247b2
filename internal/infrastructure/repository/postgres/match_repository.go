package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/match"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Get(ctx context.Context, key match.Key) (match.Match, bool, error) {
	var model matchTableModel
	err := r.db.GetContext(ctx, &model,
		`SELECT jornada, home_team, away_team, score, date, external_id, url
		 FROM matches WHERE jornada = $1 AND home_team = $2 AND away_team = $3`,
		key.Jornada, key.HomeTeam, key.AwayTeam)
	if isNotFound(err) {
		return match.Match{}, false, nil
	}
	if err != nil {
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	out, err := model.toDomain()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("decode match %s: %w", key, err)
	}
	return out, true, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) (*match.Match, error) {
	prev, found, err := r.Get(ctx, m.Key())
	if err != nil {
		return nil, err
	}

	model := matchToModel(m)
	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO matches (jornada, home_team, away_team, score, date, external_id, url)
		 VALUES (:jornada, :home_team, :away_team, :score, :date, :external_id, :url)
		 ON CONFLICT (jornada, home_team, away_team) DO UPDATE SET
			score = EXCLUDED.score,
			date = EXCLUDED.date,
			external_id = EXCLUDED.external_id,
			url = EXCLUDED.url`, model)
	if err != nil {
		return nil, fmt.Errorf("upsert match: %w", err)
	}

	if !found {
		return nil, nil
	}
	return &prev, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	var models []matchTableModel
	err := r.db.SelectContext(ctx, &models,
		`SELECT jornada, home_team, away_team, score, date, external_id, url
		 FROM matches ORDER BY jornada, home_team`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(models))
	for _, model := range models {
		m, err := model.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
