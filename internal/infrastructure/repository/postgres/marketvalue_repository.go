package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
)

type MarketValueRepository struct {
	db *sqlx.DB
}

func NewMarketValueRepository(db *sqlx.DB) *MarketValueRepository {
	return &MarketValueRepository{db: db}
}

func (r *MarketValueRepository) Upsert(ctx context.Context, p marketvalue.Point) (*marketvalue.Point, error) {
	model, err := marketValueToModel(p)
	if err != nil {
		return nil, err
	}

	var prevModel marketValueTableModel
	var prev *marketvalue.Point
	err = r.db.GetContext(ctx, &prevModel,
		`SELECT player_slug, day, value FROM market_values
		 WHERE player_slug = $1 AND day = $2`, model.PlayerSlug, model.Day)
	switch {
	case isNotFound(err):
	case err != nil:
		return nil, fmt.Errorf("get market value point: %w", err)
	default:
		point := prevModel.toDomain()
		prev = &point
	}

	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO market_values (player_slug, day, value)
		 VALUES (:player_slug, :day, :value)
		 ON CONFLICT (player_slug, day) DO UPDATE SET value = EXCLUDED.value`, model)
	if err != nil {
		return nil, fmt.Errorf("upsert market value point: %w", err)
	}
	return prev, nil
}

func (r *MarketValueRepository) ListByPlayer(ctx context.Context, playerSlug string) ([]marketvalue.Point, error) {
	var models []marketValueTableModel
	err := r.db.SelectContext(ctx, &models,
		`SELECT player_slug, day, value FROM market_values
		 WHERE player_slug = $1 ORDER BY day`, playerSlug)
	if err != nil {
		return nil, fmt.Errorf("list market values for %s: %w", playerSlug, err)
	}
	return marketValuesToDomain(models), nil
}

func (r *MarketValueRepository) List(ctx context.Context) ([]marketvalue.Point, error) {
	var models []marketValueTableModel
	err := r.db.SelectContext(ctx, &models,
		`SELECT player_slug, day, value FROM market_values
		 ORDER BY player_slug, day`)
	if err != nil {
		return nil, fmt.Errorf("list market values: %w", err)
	}
	return marketValuesToDomain(models), nil
}

func marketValuesToDomain(models []marketValueTableModel) []marketvalue.Point {
	out := make([]marketvalue.Point, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out
}
