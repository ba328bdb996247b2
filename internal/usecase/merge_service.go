package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"

	"github.com/fantasyscouter/engine/internal/domain/correction"
	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/team"
	"github.com/fantasyscouter/engine/internal/platform/logging"
)

const defaultMergeWorkers = 8

// MergeService reconciles freshly scraped candidate batches against the raw
// store. Per candidate it decides insert, update, correction, or no write at
// all, and reports the tally so the orchestrator can skip an empty publish.
//
// Two rules guard against scraper noise: a duplicated identity key within one
// batch is resolved by keeping the last occurrence, and a candidate missing a
// key component is dropped and counted without aborting the batch.
type MergeService struct {
	teams        team.Repository
	matches      match.Repository
	players      player.Repository
	performances performance.Repository
	corrections  correction.Repository
	marketValues marketvalue.Repository

	validate *validator.Validate
	logger   *logging.Logger
	workers  int
	now      func() time.Time
}

func NewMergeService(
	teams team.Repository,
	matches match.Repository,
	players player.Repository,
	performances performance.Repository,
	corrections correction.Repository,
	marketValues marketvalue.Repository,
	logger *logging.Logger,
	workers int,
) *MergeService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = defaultMergeWorkers
	}

	return &MergeService{
		teams:        teams,
		matches:      matches,
		players:      players,
		performances: performances,
		corrections:  corrections,
		marketValues: marketValues,
		validate:     validator.New(),
		logger:       logger,
		workers:      workers,
		now:          time.Now,
	}
}

func (s *MergeService) MergeTeams(ctx context.Context, batch []team.Team) (ChangeLog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MergeService.MergeTeams")
	defer span.End()

	var cl ChangeLog
	skip := duplicateSkips(batch, func(t team.Team) string { return t.Slug })

	for i, cand := range batch {
		if _, dup := skip[i]; dup {
			continue
		}
		if err := s.validate.StructCtx(ctx, cand); err != nil {
			cl.Malformed++
			s.logger.WarnContext(ctx, "dropped malformed team candidate",
				"slug", cand.Slug, "reason", fmt.Errorf("%w: %v", ErrMalformedRecord, err))
			continue
		}

		existing, ok, err := s.teams.Get(ctx, cand.Slug)
		if err != nil {
			return cl, fmt.Errorf("get team %s: %w", cand.Slug, err)
		}
		if !ok {
			if _, err := s.teams.Upsert(ctx, cand); err != nil {
				return cl, fmt.Errorf("insert team %s: %w", cand.Slug, err)
			}
			cl.Inserted++
			continue
		}
		if existing.Equal(cand) {
			cl.Unchanged++
			continue
		}
		if _, err := s.teams.Upsert(ctx, cand); err != nil {
			return cl, fmt.Errorf("update team %s: %w", cand.Slug, err)
		}
		cl.Updated++
	}

	return cl, nil
}

func (s *MergeService) MergeMatches(ctx context.Context, batch []match.Match) (ChangeLog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MergeService.MergeMatches")
	defer span.End()

	var cl ChangeLog
	skip := duplicateSkips(batch, func(m match.Match) match.Key { return m.Key() })

	for i, cand := range batch {
		if _, dup := skip[i]; dup {
			continue
		}
		if err := s.matchCandidateErr(ctx, cand); err != nil {
			cl.Malformed++
			s.logger.WarnContext(ctx, "dropped malformed match candidate",
				"key", cand.Key().String(), "reason", fmt.Errorf("%w: %v", ErrMalformedRecord, err))
			continue
		}

		existing, ok, err := s.matches.Get(ctx, cand.Key())
		if err != nil {
			return cl, fmt.Errorf("get match %s: %w", cand.Key(), err)
		}
		if !ok {
			if _, err := s.matches.Upsert(ctx, cand); err != nil {
				return cl, fmt.Errorf("insert match %s: %w", cand.Key(), err)
			}
			cl.Inserted++
			continue
		}

		merged := cand
		if existing.Score != nil && merged.Score == nil {
			// A results page that momentarily stops reporting a known score
			// is stale scrape output, not a retraction.
			merged.Score = existing.Score
		}
		if existing.Equal(merged) {
			cl.Unchanged++
			continue
		}

		corrected := existing.Score != nil && merged.Score != nil && !match.ScoresEqual(existing.Score, merged.Score)
		if corrected {
			event := correction.Event{
				Entity:     "match",
				RecordKey:  cand.Key().String(),
				Field:      "score",
				OldValue:   existing.Score.String(),
				NewValue:   merged.Score.String(),
				ObservedAt: s.now(),
			}
			if err := s.corrections.Append(ctx, event); err != nil {
				return cl, fmt.Errorf("record score correction for %s: %w", cand.Key(), err)
			}
			cl.Corrections = append(cl.Corrections, event)
		}

		if _, err := s.matches.Upsert(ctx, merged); err != nil {
			return cl, fmt.Errorf("update match %s: %w", cand.Key(), err)
		}
		if corrected {
			cl.Corrected++
		} else {
			cl.Updated++
		}
	}

	return cl, nil
}

func (s *MergeService) MergePlayers(ctx context.Context, batch []player.Player) (ChangeLog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MergeService.MergePlayers")
	defer span.End()

	var cl ChangeLog
	skip := duplicateSkips(batch, func(p player.Player) string { return p.Slug })

	for i, cand := range batch {
		if _, dup := skip[i]; dup {
			continue
		}
		if err := s.validate.StructCtx(ctx, cand); err != nil {
			cl.Malformed++
			s.logger.WarnContext(ctx, "dropped malformed player candidate",
				"slug", cand.Slug, "reason", fmt.Errorf("%w: %v", ErrMalformedRecord, err))
			continue
		}

		existing, ok, err := s.players.Get(ctx, cand.Slug)
		if err != nil {
			return cl, fmt.Errorf("get player %s: %w", cand.Slug, err)
		}
		if !ok {
			if _, err := s.players.Upsert(ctx, cand); err != nil {
				return cl, fmt.Errorf("insert player %s: %w", cand.Slug, err)
			}
			cl.Inserted++
			if err := s.recordValuePoint(ctx, &cl, cand); err != nil {
				return cl, err
			}
			continue
		}

		merged := cand.WithBioFrom(existing)
		if err := s.recordValuePoint(ctx, &cl, merged); err != nil {
			return cl, err
		}
		if existing.Equal(merged) {
			cl.Unchanged++
			continue
		}
		if _, err := s.players.Upsert(ctx, merged); err != nil {
			return cl, fmt.Errorf("update player %s: %w", cand.Slug, err)
		}
		cl.Updated++
	}

	return cl, nil
}

// recordValuePoint appends today's market value observation to the player's
// history. One point per player per day; re-running on the same day with the
// same value writes nothing new and does not count as a change.
func (s *MergeService) recordValuePoint(ctx context.Context, cl *ChangeLog, p player.Player) error {
	if s.marketValues == nil {
		return nil
	}

	point := marketvalue.Point{
		PlayerSlug: p.Slug,
		Day:        marketvalue.DayOf(s.now()),
		Value:      p.MarketValue,
	}
	prev, err := s.marketValues.Upsert(ctx, point)
	if err != nil {
		return fmt.Errorf("record market value for %s: %w", p.Slug, err)
	}
	if prev == nil || *prev != point {
		cl.ValuePoints++
	}
	return nil
}

// MergePerformances fans single-record merges out over a worker pool:
// every (player, match) key is independent, so concurrent upserts never
// touch the same record.
func (s *MergeService) MergePerformances(ctx context.Context, batch []performance.Performance) (ChangeLog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MergeService.MergePerformances")
	defer span.End()

	var cl ChangeLog
	skip := duplicateSkips(batch, func(p performance.Performance) performance.Key { return p.Key() })

	accepted := make([]performance.Performance, 0, len(batch))
	for i, cand := range batch {
		if _, dup := skip[i]; dup {
			continue
		}
		if cand.Status == "" {
			cand.Status = performance.StatusProvisional
		}
		if err := s.performanceCandidateErr(ctx, cand); err != nil {
			cl.Malformed++
			s.logger.WarnContext(ctx, "dropped malformed performance candidate",
				"key", cand.Key().String(), "reason", fmt.Errorf("%w: %v", ErrMalformedRecord, err))
			continue
		}
		accepted = append(accepted, cand)
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return cl, fmt.Errorf("create merge worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, cand := range accepted {
		cand := cand
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			outcome, event, mergeErr := s.mergePerformance(ctx, cand)

			mu.Lock()
			defer mu.Unlock()
			if mergeErr != nil {
				if firstErr == nil {
					firstErr = mergeErr
				}
				return
			}
			switch outcome {
			case outcomeInserted:
				cl.Inserted++
			case outcomeUpdated:
				cl.Updated++
			case outcomeCorrected:
				cl.Corrected++
				cl.Corrections = append(cl.Corrections, event)
			case outcomeUnchanged:
				cl.Unchanged++
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit performance merge: %w", submitErr)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return cl, firstErr
	}
	return cl, nil
}

type mergeOutcome int

const (
	outcomeInserted mergeOutcome = iota
	outcomeUpdated
	outcomeCorrected
	outcomeUnchanged
)

func (s *MergeService) mergePerformance(ctx context.Context, cand performance.Performance) (mergeOutcome, correction.Event, error) {
	existing, ok, err := s.performances.Get(ctx, cand.Key())
	if err != nil {
		return 0, correction.Event{}, fmt.Errorf("get performance %s: %w", cand.Key(), err)
	}
	if !ok {
		if _, err := s.performances.Upsert(ctx, cand); err != nil {
			return 0, correction.Event{}, fmt.Errorf("insert performance %s: %w", cand.Key(), err)
		}
		return outcomeInserted, correction.Event{}, nil
	}

	merged := cand
	if existing.Confirmed() && !merged.Confirmed() {
		// Confirmed points never regress to a pre-match prediction.
		merged.Status = existing.Status
		merged.Points = existing.Points
	}
	if existing.Equal(merged) {
		return outcomeUnchanged, correction.Event{}, nil
	}

	var event correction.Event
	corrected := existing.Confirmed() && merged.Confirmed() && existing.Points != merged.Points
	if corrected {
		event = correction.Event{
			Entity:     "performance",
			RecordKey:  cand.Key().String(),
			Field:      "points",
			OldValue:   fmt.Sprintf("%d", existing.Points),
			NewValue:   fmt.Sprintf("%d", merged.Points),
			ObservedAt: s.now(),
		}
		if err := s.corrections.Append(ctx, event); err != nil {
			return 0, correction.Event{}, fmt.Errorf("record points correction for %s: %w", cand.Key(), err)
		}
	}

	if _, err := s.performances.Upsert(ctx, merged); err != nil {
		return 0, correction.Event{}, fmt.Errorf("update performance %s: %w", cand.Key(), err)
	}
	if corrected {
		return outcomeCorrected, event, nil
	}
	return outcomeUpdated, correction.Event{}, nil
}

// matchCandidateErr folds struct validation and the identity-key check into
// one drop reason, so a key-only failure still names what was wrong.
func (s *MergeService) matchCandidateErr(ctx context.Context, cand match.Match) error {
	if err := s.validate.StructCtx(ctx, cand); err != nil {
		return err
	}
	if !cand.Key().Valid() {
		return fmt.Errorf("incomplete identity key %s", cand.Key())
	}
	return nil
}

func (s *MergeService) performanceCandidateErr(ctx context.Context, cand performance.Performance) error {
	if err := s.validate.StructCtx(ctx, cand); err != nil {
		return err
	}
	if !cand.Key().Valid() {
		return fmt.Errorf("incomplete identity key %s", cand.Key())
	}
	return nil
}

// duplicateSkips returns the batch indexes to skip so that only the last
// occurrence of each identity key is processed, in batch order.
func duplicateSkips[T any, K comparable](batch []T, key func(T) K) map[int]struct{} {
	last := make(map[K]int, len(batch))
	for i, item := range batch {
		last[key(item)] = i
	}
	if len(last) == len(batch) {
		return nil
	}
	skip := make(map[int]struct{})
	for i, item := range batch {
		if last[key(item)] != i {
			skip[i] = struct{}{}
		}
	}
	return skip
}
