package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/team"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Get(ctx context.Context, slug string) (team.Team, bool, error) {
	var model teamTableModel
	err := r.db.GetContext(ctx, &model,
		`SELECT slug, name, external_id, crest_path, squad_size, url
		 FROM teams WHERE slug = $1`, slug)
	if isNotFound(err) {
		return team.Team{}, false, nil
	}
	if err != nil {
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}
	return model.toDomain(), true, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, t team.Team) (*team.Team, error) {
	prev, found, err := r.Get(ctx, t.Slug)
	if err != nil {
		return nil, err
	}

	model := teamToModel(t)
	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO teams (slug, name, external_id, crest_path, squad_size, url)
		 VALUES (:slug, :name, :external_id, :crest_path, :squad_size, :url)
		 ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			external_id = EXCLUDED.external_id,
			crest_path = EXCLUDED.crest_path,
			squad_size = EXCLUDED.squad_size,
			url = EXCLUDED.url`, model)
	if err != nil {
		return nil, fmt.Errorf("upsert team: %w", err)
	}

	if !found {
		return nil, nil
	}
	return &prev, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	var models []teamTableModel
	err := r.db.SelectContext(ctx, &models,
		`SELECT slug, name, external_id, crest_path, squad_size, url
		 FROM teams ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}
