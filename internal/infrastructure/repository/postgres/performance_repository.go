package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/performance"
)

type PerformanceRepository struct {
	db *sqlx.DB
}

func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

func (r *PerformanceRepository) Get(ctx context.Context, key performance.Key) (performance.Performance, bool, error) {
	var model performanceTableModel
	err := r.db.GetContext(ctx, &model,
		`SELECT player_slug, jornada, home_team, away_team, points, stats,
			breakdown, starter, status
		 FROM performances
		 WHERE player_slug = $1 AND jornada = $2 AND home_team = $3 AND away_team = $4`,
		key.PlayerSlug, key.Match.Jornada, key.Match.HomeTeam, key.Match.AwayTeam)
	if isNotFound(err) {
		return performance.Performance{}, false, nil
	}
	if err != nil {
		return performance.Performance{}, false, fmt.Errorf("get performance: %w", err)
	}

	out, err := model.toDomain()
	if err != nil {
		return performance.Performance{}, false, fmt.Errorf("decode performance %s: %w", key, err)
	}
	return out, true, nil
}

func (r *PerformanceRepository) Upsert(ctx context.Context, p performance.Performance) (*performance.Performance, error) {
	prev, found, err := r.Get(ctx, p.Key())
	if err != nil {
		return nil, err
	}

	model, err := performanceToModel(p)
	if err != nil {
		return nil, fmt.Errorf("encode performance %s: %w", p.Key(), err)
	}
	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO performances (player_slug, jornada, home_team, away_team,
			points, stats, breakdown, starter, status)
		 VALUES (:player_slug, :jornada, :home_team, :away_team,
			:points, :stats, :breakdown, :starter, :status)
		 ON CONFLICT (player_slug, jornada, home_team, away_team) DO UPDATE SET
			points = EXCLUDED.points,
			stats = EXCLUDED.stats,
			breakdown = EXCLUDED.breakdown,
			starter = EXCLUDED.starter,
			status = EXCLUDED.status`, model)
	if err != nil {
		return nil, fmt.Errorf("upsert performance: %w", err)
	}

	if !found {
		return nil, nil
	}
	return &prev, nil
}

func (r *PerformanceRepository) List(ctx context.Context) ([]performance.Performance, error) {
	return r.selectMany(ctx,
		`SELECT player_slug, jornada, home_team, away_team, points, stats,
			breakdown, starter, status
		 FROM performances ORDER BY jornada, player_slug`)
}

func (r *PerformanceRepository) ListByPlayer(ctx context.Context, playerSlug string) ([]performance.Performance, error) {
	return r.selectMany(ctx,
		`SELECT player_slug, jornada, home_team, away_team, points, stats,
			breakdown, starter, status
		 FROM performances WHERE player_slug = $1 ORDER BY jornada`, playerSlug)
}

func (r *PerformanceRepository) selectMany(ctx context.Context, query string, args ...any) ([]performance.Performance, error) {
	var models []performanceTableModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list performances: %w", err)
	}

	out := make([]performance.Performance, 0, len(models))
	for _, model := range models {
		p, err := model.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode performance: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
