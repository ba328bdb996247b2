package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/player"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Get(ctx context.Context, slug string) (player.Player, bool, error) {
	var model playerTableModel
	err := r.db.GetContext(ctx, &model,
		`SELECT slug, external_id, name, team_slug, position, role, photo_path,
			market_value, pmr, prob_starter
		 FROM players WHERE slug = $1`, slug)
	if isNotFound(err) {
		return player.Player{}, false, nil
	}
	if err != nil {
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return model.toDomain(), true, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) (*player.Player, error) {
	prev, found, err := r.Get(ctx, p.Slug)
	if err != nil {
		return nil, err
	}

	model := playerToModel(p)
	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO players (slug, external_id, name, team_slug, position, role,
			photo_path, market_value, pmr, prob_starter)
		 VALUES (:slug, :external_id, :name, :team_slug, :position, :role,
			:photo_path, :market_value, :pmr, :prob_starter)
		 ON CONFLICT (slug) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			name = EXCLUDED.name,
			team_slug = EXCLUDED.team_slug,
			position = EXCLUDED.position,
			role = EXCLUDED.role,
			photo_path = EXCLUDED.photo_path,
			market_value = EXCLUDED.market_value,
			pmr = EXCLUDED.pmr,
			prob_starter = EXCLUDED.prob_starter`, model)
	if err != nil {
		return nil, fmt.Errorf("upsert player: %w", err)
	}

	if !found {
		return nil, nil
	}
	return &prev, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	var models []playerTableModel
	err := r.db.SelectContext(ctx, &models,
		`SELECT slug, external_id, name, team_slug, position, role, photo_path,
			market_value, pmr, prob_starter
		 FROM players ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make([]player.Player, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}
