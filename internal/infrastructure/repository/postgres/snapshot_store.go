package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantasyscouter/engine/internal/domain/snapshot"
)

// SnapshotStore publishes and fetches full snapshots against postgres. The
// sync_state row carries the version; publishing bumps it with a
// compare-and-swap so a concurrent run cannot silently overwrite a publish it
// never saw.
type SnapshotStore struct {
	db           *sqlx.DB
	teams        *TeamRepository
	matches      *MatchRepository
	players      *PlayerRepository
	performances *PerformanceRepository
	corrections  *CorrectionRepository
	marketValues *MarketValueRepository
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{
		db:           db,
		teams:        NewTeamRepository(db),
		matches:      NewMatchRepository(db),
		players:      NewPlayerRepository(db),
		performances: NewPerformanceRepository(db),
		corrections:  NewCorrectionRepository(db),
		marketValues: NewMarketValueRepository(db),
	}
}

func (s *SnapshotStore) FetchSnapshot(ctx context.Context) (snapshot.Snapshot, error) {
	var out snapshot.Snapshot

	var state syncStateTableModel
	err := s.db.GetContext(ctx, &state,
		`SELECT id, version, updated_at FROM sync_state WHERE id = 1`)
	if err != nil {
		return out, fmt.Errorf("get sync state: %w", err)
	}
	out.Version = state.Version
	out.FetchedAt = state.UpdatedAt

	if out.Teams, err = s.teams.List(ctx); err != nil {
		return out, err
	}
	if out.Matches, err = s.matches.List(ctx); err != nil {
		return out, err
	}
	if out.Players, err = s.players.List(ctx); err != nil {
		return out, err
	}
	if out.Performances, err = s.performances.List(ctx); err != nil {
		return out, err
	}
	if out.Corrections, err = s.corrections.List(ctx); err != nil {
		return out, err
	}
	if out.MarketValues, err = s.marketValues.List(ctx); err != nil {
		return out, err
	}
	return out, nil
}

func (s *SnapshotStore) PublishSnapshot(ctx context.Context, snap snapshot.Snapshot, summary snapshot.RunSummary) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx publish snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE sync_state SET version = version + 1, updated_at = NOW()
		 WHERE id = 1 AND version = $1`, snap.Version)
	if err != nil {
		return fmt.Errorf("bump snapshot version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected bump snapshot version: %w", err)
	}
	if affected == 0 {
		return snapshot.ErrVersionConflict
	}

	// Full replace. The snapshot is the complete state; partial diffs would
	// leave rows from records a run no longer carries.
	for _, table := range []string{"performances", "corrections", "market_values", "players", "matches", "teams"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	if err := insertRunSummary(ctx, tx, summary); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish snapshot: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sqlx.Tx, snap snapshot.Snapshot) error {
	for _, t := range snap.Teams {
		model := teamToModel(t)
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO teams (slug, name, external_id, crest_path, squad_size, url)
			 VALUES (:slug, :name, :external_id, :crest_path, :squad_size, :url)`, model)
		if err != nil {
			return fmt.Errorf("insert team %s: %w", t.Slug, err)
		}
	}
	for _, m := range snap.Matches {
		model := matchToModel(m)
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO matches (jornada, home_team, away_team, score, date, external_id, url)
			 VALUES (:jornada, :home_team, :away_team, :score, :date, :external_id, :url)`, model)
		if err != nil {
			return fmt.Errorf("insert match %s: %w", m.Key(), err)
		}
	}
	for _, p := range snap.Players {
		model := playerToModel(p)
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO players (slug, external_id, name, team_slug, position, role,
				photo_path, market_value, pmr, prob_starter)
			 VALUES (:slug, :external_id, :name, :team_slug, :position, :role,
				:photo_path, :market_value, :pmr, :prob_starter)`, model)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.Slug, err)
		}
	}
	for _, perf := range snap.Performances {
		model, err := performanceToModel(perf)
		if err != nil {
			return fmt.Errorf("encode performance %s: %w", perf.Key(), err)
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO performances (player_slug, jornada, home_team, away_team,
				points, stats, breakdown, starter, status)
			 VALUES (:player_slug, :jornada, :home_team, :away_team,
				:points, :stats, :breakdown, :starter, :status)`, model)
		if err != nil {
			return fmt.Errorf("insert performance %s: %w", perf.Key(), err)
		}
	}
	for _, p := range snap.MarketValues {
		model, err := marketValueToModel(p)
		if err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO market_values (player_slug, day, value)
			 VALUES (:player_slug, :day, :value)`, model)
		if err != nil {
			return fmt.Errorf("insert market value %s: %w", p.Key(), err)
		}
	}
	for _, e := range snap.Corrections {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO corrections (entity, record_key, field, old_value, new_value, observed_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.Entity, e.RecordKey, e.Field, e.OldValue, e.NewValue, e.ObservedAt)
		if err != nil {
			return fmt.Errorf("insert correction for %s: %w", e.RecordKey, err)
		}
	}
	return nil
}

func insertRunSummary(ctx context.Context, tx *sqlx.Tx, summary snapshot.RunSummary) error {
	encoded, err := sonic.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sync_runs (status, summary, started_at, finished_at)
		 VALUES ($1, $2, $3, $4)`,
		summary.Status, encoded, summary.StartedAt, summary.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}
