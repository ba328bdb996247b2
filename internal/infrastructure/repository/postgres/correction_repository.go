package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/correction"
)

type CorrectionRepository struct {
	db *sqlx.DB
}

func NewCorrectionRepository(db *sqlx.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

func (r *CorrectionRepository) Append(ctx context.Context, events ...correction.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append corrections: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO corrections (entity, record_key, field, old_value, new_value, observed_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.Entity, e.RecordKey, e.Field, e.OldValue, e.NewValue, e.ObservedAt)
		if err != nil {
			return fmt.Errorf("append correction for %s: %w", e.RecordKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append corrections: %w", err)
	}
	return nil
}

func (r *CorrectionRepository) List(ctx context.Context) ([]correction.Event, error) {
	var models []correctionTableModel
	err := r.db.SelectContext(ctx, &models,
		`SELECT id, entity, record_key, field, old_value, new_value, observed_at
		 FROM corrections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}

	out := make([]correction.Event, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}
