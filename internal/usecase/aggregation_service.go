package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/metrics"
	"github.com/fantasyscouter/engine/internal/platform/cache"
)

type Metric string

const (
	MetricAvgPoints   Metric = "avg_points"
	MetricTotalPoints Metric = "total_points"
	MetricTotalGoals  Metric = "total_goals"
	MetricAvgMinutes  Metric = "avg_minutes"

	// Value metrics read the player's market value history instead of the
	// performance records. Scope does not apply to them.
	MetricValueTrendDaily  Metric = "value_trend_daily"
	MetricValueTrendWeekly Metric = "value_trend_weekly"
	MetricRentability      Metric = "rentability"
)

func isValueMetric(m Metric) bool {
	switch m {
	case MetricValueTrendDaily, MetricValueTrendWeekly, MetricRentability:
		return true
	}
	return false
}

type ScopeKind string

const (
	ScopeKindSeason   ScopeKind = "season"
	ScopeKindHomeOnly ScopeKind = "home_only"
	ScopeKindAwayOnly ScopeKind = "away_only"
	ScopeKindLastN    ScopeKind = "last_n"
)

type Scope struct {
	Kind  ScopeKind
	LastN int
}

func ScopeSeason() Scope { return Scope{Kind: ScopeKindSeason} }
func ScopeHomeOnly() Scope { return Scope{Kind: ScopeKindHomeOnly} }
func ScopeAwayOnly() Scope { return Scope{Kind: ScopeKindAwayOnly} }
func ScopeLastN(n int) Scope { return Scope{Kind: ScopeKindLastN, LastN: n} }

func (s Scope) cacheKey() string {
	if s.Kind == ScopeKindLastN {
		return fmt.Sprintf("%s:%d", s.Kind, s.LastN)
	}
	return string(s.Kind)
}

// VenueHome and VenueAway are the derived home/away contexts of a
// performance record, computed by joining the player's team with the match
// key rather than stored redundantly.
const (
	VenueHome = "home"
	VenueAway = "away"
)

// Venue derives which side the player's team was on for a match. Empty when
// the player's current team is on neither side (e.g. a mid-season transfer).
func Venue(p player.Player, key match.Key) string {
	switch p.TeamSlug {
	case key.HomeTeam:
		return VenueHome
	case key.AwayTeam:
		return VenueAway
	default:
		return ""
	}
}

// AggregationService computes derived statistics on read, directly over the
// raw store. Nothing is persisted, so a just-corrected performance record is
// always reflected; AggregateCached is the explicit opt-in exception and tags
// each cached value with a content hash of the records it was derived from.
type AggregationService struct {
	players      player.Repository
	performances performance.Repository
	values       marketvalue.Repository
	store        *cache.Store
}

func NewAggregationService(players player.Repository, performances performance.Repository, values marketvalue.Repository, store *cache.Store) *AggregationService {
	return &AggregationService{
		players:      players,
		performances: performances,
		values:       values,
		store:        store,
	}
}

// Aggregate returns the metric over the player's confirmed performances in
// scope, or over the market value history for value metrics. The boolean is
// false when no record qualifies: "no data" is not a zero average.
func (s *AggregationService) Aggregate(ctx context.Context, playerSlug string, metric Metric, scope Scope) (float64, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AggregationService.Aggregate")
	defer span.End()

	if isValueMetric(metric) {
		srcs, ok, err := s.valueSources(ctx, playerSlug)
		if err != nil || !ok {
			return 0, false, err
		}
		return computeValueMetric(metric, srcs)
	}

	perfs, err := s.qualifying(ctx, playerSlug, scope)
	if err != nil {
		return 0, false, err
	}
	return computeMetric(metric, perfs)
}

// AggregateCached is Aggregate with opt-in caching of the computed value.
// A cached entry is served only while the qualifying records hash to the same
// tag it was stored under, so corrections invalidate it on the next read.
func (s *AggregationService) AggregateCached(ctx context.Context, playerSlug string, metric Metric, scope Scope) (float64, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AggregationService.AggregateCached")
	defer span.End()

	if s.store == nil {
		return s.Aggregate(ctx, playerSlug, metric, scope)
	}

	var (
		tag     string
		compute func() (float64, bool, error)
	)
	if isValueMetric(metric) {
		srcs, ok, err := s.valueSources(ctx, playerSlug)
		if err != nil || !ok {
			return 0, false, err
		}
		if tag, err = sourceHash(srcs); err != nil {
			return 0, false, err
		}
		compute = func() (float64, bool, error) { return computeValueMetric(metric, srcs) }
	} else {
		perfs, err := s.qualifying(ctx, playerSlug, scope)
		if err != nil {
			return 0, false, err
		}
		if len(perfs) == 0 {
			return 0, false, nil
		}
		if tag, err = sourceHash(perfs); err != nil {
			return 0, false, err
		}
		compute = func() (float64, bool, error) { return computeMetric(metric, perfs) }
	}

	key := strings.Join([]string{"agg", playerSlug, string(metric), scope.cacheKey()}, ":")
	if cached, ok := s.store.Get(ctx, key, tag); ok {
		if value, ok := cached.(float64); ok {
			metrics.RecordAggregateCacheHit()
			return value, true, nil
		}
	}
	metrics.RecordAggregateCacheMiss()

	value, ok, err := compute()
	if err != nil || !ok {
		return value, ok, err
	}
	s.store.Set(ctx, key, tag, value)
	return value, true, nil
}

func (s *AggregationService) qualifying(ctx context.Context, playerSlug string, scope Scope) ([]performance.Performance, error) {
	playerSlug = strings.TrimSpace(playerSlug)
	if playerSlug == "" {
		return nil, fmt.Errorf("%w: player slug is required", ErrInvalidInput)
	}

	p, ok, err := s.players.Get(ctx, playerSlug)
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", playerSlug, err)
	}
	if !ok {
		return nil, nil
	}

	all, err := s.performances.ListByPlayer(ctx, playerSlug)
	if err != nil {
		return nil, fmt.Errorf("list performances for %s: %w", playerSlug, err)
	}

	// ListByPlayer returns jornada-ascending order, which last-N relies on.
	out := make([]performance.Performance, 0, len(all))
	for _, perf := range all {
		if !perf.Confirmed() {
			continue
		}
		switch scope.Kind {
		case ScopeKindHomeOnly:
			if Venue(p, perf.Match) != VenueHome {
				continue
			}
		case ScopeKindAwayOnly:
			if Venue(p, perf.Match) != VenueAway {
				continue
			}
		}
		out = append(out, perf)
	}

	if scope.Kind == ScopeKindLastN {
		if scope.LastN <= 0 {
			return nil, fmt.Errorf("%w: last-n scope needs n > 0", ErrInvalidInput)
		}
		if len(out) > scope.LastN {
			out = out[len(out)-scope.LastN:]
		}
	}
	return out, nil
}

func computeMetric(metric Metric, perfs []performance.Performance) (float64, bool, error) {
	if len(perfs) == 0 {
		return 0, false, nil
	}

	switch metric {
	case MetricAvgPoints:
		total := 0
		for _, p := range perfs {
			total += p.Points
		}
		return float64(total) / float64(len(perfs)), true, nil

	case MetricTotalPoints:
		total := 0
		for _, p := range perfs {
			total += p.Points
		}
		return float64(total), true, nil

	case MetricTotalGoals:
		var total float64
		for _, p := range perfs {
			if goals, ok := p.Stat("goals"); ok {
				total += goals
			}
		}
		return total, true, nil

	case MetricAvgMinutes:
		var total float64
		reported := 0
		for _, p := range perfs {
			if minutes, ok := p.Stat("minutes"); ok {
				total += minutes
				reported++
			}
		}
		if reported == 0 {
			// No match reported minutes at all: "not reported", not zero.
			return 0, false, nil
		}
		return total / float64(reported), true, nil

	default:
		return 0, false, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}
}

// valueSourceSet is everything a value metric is derived from; it doubles as
// the cache tag source so a new history point or correction invalidates a
// cached trend.
type valueSourceSet struct {
	Player       player.Player             `json:"player"`
	Points       []marketvalue.Point       `json:"points"`
	Performances []performance.Performance `json:"performances"`
}

func (s *AggregationService) valueSources(ctx context.Context, playerSlug string) (valueSourceSet, bool, error) {
	playerSlug = strings.TrimSpace(playerSlug)
	if playerSlug == "" {
		return valueSourceSet{}, false, fmt.Errorf("%w: player slug is required", ErrInvalidInput)
	}

	p, ok, err := s.players.Get(ctx, playerSlug)
	if err != nil {
		return valueSourceSet{}, false, fmt.Errorf("get player %s: %w", playerSlug, err)
	}
	if !ok {
		return valueSourceSet{}, false, nil
	}

	var points []marketvalue.Point
	if s.values != nil {
		if points, err = s.values.ListByPlayer(ctx, playerSlug); err != nil {
			return valueSourceSet{}, false, fmt.Errorf("list market values for %s: %w", playerSlug, err)
		}
	}

	perfs, err := s.qualifying(ctx, playerSlug, ScopeSeason())
	if err != nil {
		return valueSourceSet{}, false, err
	}

	return valueSourceSet{Player: p, Points: points, Performances: perfs}, true, nil
}

// weeklyTrendWindow spans today plus the seven daily points before it.
const weeklyTrendWindow = 8

func computeValueMetric(metric Metric, srcs valueSourceSet) (float64, bool, error) {
	points := srcs.Points

	switch metric {
	case MetricValueTrendDaily:
		if len(points) < 2 {
			return 0, false, nil
		}
		return float64(points[len(points)-1].Value - points[len(points)-2].Value), true, nil

	case MetricValueTrendWeekly:
		if len(points) < weeklyTrendWindow {
			return 0, false, nil
		}
		return float64(points[len(points)-1].Value - points[len(points)-weeklyTrendWindow].Value), true, nil

	case MetricRentability:
		if srcs.Player.MarketValue <= 0 {
			return 0, false, nil
		}
		total := 0
		for _, perf := range srcs.Performances {
			total += perf.Points
		}
		return float64(total) / (float64(srcs.Player.MarketValue) / 1e6), true, nil

	default:
		return 0, false, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}
}

func sourceHash(sources any) (string, error) {
	// ConfigStd sorts map keys, so records carrying the same open stats set
	// always hash to the same tag.
	encoded, err := sonic.ConfigStd.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("hash aggregate sources: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
