package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/infrastructure/repository/memory"
	"github.com/fantasyscouter/engine/internal/platform/cache"
)

func aggFixture(t *testing.T, perfs []performance.Performance) (*AggregationService, *memory.PerformanceRepository) {
	t.Helper()

	players := memory.NewPlayerRepository([]player.Player{
		{Slug: "pedri", Name: "Pedri", TeamSlug: "barcelona"},
	})
	repo := memory.NewPerformanceRepository(perfs)
	return NewAggregationService(players, repo, memory.NewMarketValueRepository(nil), nil), repo
}

func confirmedPerf(jornada int, home, away string, points int, stats map[string]float64) performance.Performance {
	return performance.Performance{
		PlayerSlug: "pedri",
		Match:      match.Key{Jornada: jornada, HomeTeam: home, AwayTeam: away},
		Points:     points,
		Stats:      stats,
		Status:     performance.StatusConfirmed,
	}
}

func TestAggregationService_Aggregate_SeasonAverage(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, nil),
		confirmedPerf(2, "athletic", "barcelona", 8, nil),
		confirmedPerf(3, "barcelona", "real-madrid", 4, nil),
	})

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeSeason())
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if !ok {
		t.Fatal("expected a value")
	}
	if got != 6.0 {
		t.Fatalf("avg points got=%v want=6.0", got)
	}

	total, ok, err := svc.Aggregate(context.Background(), "pedri", MetricTotalPoints, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("total points: ok=%v err=%v", ok, err)
	}
	if total != 18.0 {
		t.Fatalf("total points got=%v want=18.0", total)
	}
}

func TestAggregationService_Aggregate_ProvisionalExcluded(t *testing.T) {
	t.Parallel()

	provisional := confirmedPerf(2, "athletic", "barcelona", 100, nil)
	provisional.Status = performance.StatusProvisional

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, nil),
		provisional,
	})

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("Aggregate: ok=%v err=%v", ok, err)
	}
	if got != 6.0 {
		t.Fatalf("provisional rows should not count, got=%v", got)
	}
}

func TestAggregationService_Aggregate_VenueScopes(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 10, nil),
		confirmedPerf(2, "athletic", "barcelona", 2, nil),
		confirmedPerf(3, "barcelona", "real-madrid", 6, nil),
	})

	home, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeHomeOnly())
	if err != nil || !ok {
		t.Fatalf("home scope: ok=%v err=%v", ok, err)
	}
	if home != 8.0 {
		t.Fatalf("home avg got=%v want=8.0", home)
	}

	away, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeAwayOnly())
	if err != nil || !ok {
		t.Fatalf("away scope: ok=%v err=%v", ok, err)
	}
	if away != 2.0 {
		t.Fatalf("away avg got=%v want=2.0", away)
	}
}

func TestAggregationService_Aggregate_LastN(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 1, nil),
		confirmedPerf(2, "athletic", "barcelona", 7, nil),
		confirmedPerf(3, "barcelona", "real-madrid", 5, nil),
	})

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeLastN(2))
	if err != nil || !ok {
		t.Fatalf("last-2 scope: ok=%v err=%v", ok, err)
	}
	if got != 6.0 {
		t.Fatalf("last-2 avg got=%v want=6.0", got)
	}

	if _, _, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeLastN(0)); err == nil {
		t.Fatal("expected error for last-0 scope")
	}
}

func TestAggregationService_Aggregate_NoDataIsAbsentNotZero(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, nil)

	_, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgPoints, ScopeSeason())
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if ok {
		t.Fatal("no qualifying records must report absent, not zero")
	}
}

func TestAggregationService_Aggregate_MinutesNotReportedIsAbsent(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, map[string]float64{"goals": 1}),
		confirmedPerf(2, "athletic", "barcelona", 4, nil),
	})

	_, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgMinutes, ScopeSeason())
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if ok {
		t.Fatal("no record reports minutes, so avg_minutes must be absent")
	}

	goals, ok, err := svc.Aggregate(context.Background(), "pedri", MetricTotalGoals, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("total goals: ok=%v err=%v", ok, err)
	}
	if goals != 1.0 {
		t.Fatalf("total goals got=%v want=1.0", goals)
	}
}

func TestAggregationService_Aggregate_MinutesAveragesOnlyReported(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, map[string]float64{"minutes": 90}),
		confirmedPerf(2, "athletic", "barcelona", 4, nil),
		confirmedPerf(3, "barcelona", "real-madrid", 8, map[string]float64{"minutes": 60}),
	})

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricAvgMinutes, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("avg minutes: ok=%v err=%v", ok, err)
	}
	if got != 75.0 {
		t.Fatalf("avg minutes got=%v want=75.0 (unreported match excluded)", got)
	}
}

func TestAggregationService_Aggregate_UnknownMetric(t *testing.T) {
	t.Parallel()

	svc, _ := aggFixture(t, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, nil),
	})

	if _, _, err := svc.Aggregate(context.Background(), "pedri", Metric("median_points"), ScopeSeason()); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func valueFixture(t *testing.T, marketValue int64, points []marketvalue.Point, perfs []performance.Performance) *AggregationService {
	t.Helper()

	players := memory.NewPlayerRepository([]player.Player{
		{Slug: "pedri", Name: "Pedri", TeamSlug: "barcelona", MarketValue: marketValue},
	})
	return NewAggregationService(players, memory.NewPerformanceRepository(perfs), memory.NewMarketValueRepository(points), nil)
}

func valuePoint(day string, value int64) marketvalue.Point {
	return marketvalue.Point{PlayerSlug: "pedri", Day: day, Value: value}
}

func TestAggregationService_Aggregate_DailyValueTrend(t *testing.T) {
	t.Parallel()

	svc := valueFixture(t, 104, []marketvalue.Point{
		valuePoint("2025-09-01", 100),
		valuePoint("2025-09-02", 104),
	}, nil)

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricValueTrendDaily, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("daily trend: ok=%v err=%v", ok, err)
	}
	if got != 4.0 {
		t.Fatalf("daily trend got=%v want=4.0", got)
	}

	single := valueFixture(t, 100, []marketvalue.Point{valuePoint("2025-09-01", 100)}, nil)
	_, ok, err = single.Aggregate(context.Background(), "pedri", MetricValueTrendDaily, ScopeSeason())
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if ok {
		t.Fatal("one point has no trend; expected absent")
	}
}

func TestAggregationService_Aggregate_WeeklyValueTrend(t *testing.T) {
	t.Parallel()

	points := make([]marketvalue.Point, 0, 8)
	for i := 0; i < 8; i++ {
		points = append(points, valuePoint(fmt.Sprintf("2025-09-%02d", i+1), int64(100+2*i)))
	}
	svc := valueFixture(t, 114, points, nil)

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricValueTrendWeekly, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("weekly trend: ok=%v err=%v", ok, err)
	}
	if got != 14.0 {
		t.Fatalf("weekly trend got=%v want=14.0", got)
	}

	short := valueFixture(t, 112, points[:7], nil)
	_, ok, err = short.Aggregate(context.Background(), "pedri", MetricValueTrendWeekly, ScopeSeason())
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if ok {
		t.Fatal("seven points are not a week of history; expected absent")
	}
}

func TestAggregationService_Aggregate_Rentability(t *testing.T) {
	t.Parallel()

	svc := valueFixture(t, 10_000_000, nil, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 10, nil),
		confirmedPerf(2, "athletic", "barcelona", 15, nil),
	})

	got, ok, err := svc.Aggregate(context.Background(), "pedri", MetricRentability, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("rentability: ok=%v err=%v", ok, err)
	}
	if got != 2.5 {
		t.Fatalf("rentability got=%v want=2.5 points per million", got)
	}

	free := valueFixture(t, 0, nil, []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 10, nil),
	})
	_, ok, err = free.Aggregate(context.Background(), "pedri", MetricRentability, ScopeSeason())
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if ok {
		t.Fatal("zero market value has no rentability; expected absent")
	}
}

func TestSourceHash_StableAcrossEncodings(t *testing.T) {
	t.Parallel()

	perfs := []performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, map[string]float64{
			"goals": 2, "assists": 1, "minutes": 90, "shots": 4, "passes": 61,
			"tackles": 3, "saves": 0, "fouls": 1, "offsides": 2, "crosses": 5,
		}),
	}

	first, err := sourceHash(perfs)
	if err != nil {
		t.Fatalf("sourceHash error: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := sourceHash(perfs)
		if err != nil {
			t.Fatalf("sourceHash error: %v", err)
		}
		if again != first {
			t.Fatalf("hash not stable: %q vs %q", first, again)
		}
	}
}

func TestAggregationService_AggregateCached_CorrectionInvalidates(t *testing.T) {
	t.Parallel()

	players := memory.NewPlayerRepository([]player.Player{
		{Slug: "pedri", Name: "Pedri", TeamSlug: "barcelona"},
	})
	repo := memory.NewPerformanceRepository([]performance.Performance{
		confirmedPerf(1, "barcelona", "valencia", 6, nil),
		confirmedPerf(2, "athletic", "barcelona", 8, nil),
	})
	svc := NewAggregationService(players, repo, memory.NewMarketValueRepository(nil), cache.NewStore(time.Minute))
	ctx := context.Background()

	got, ok, err := svc.AggregateCached(ctx, "pedri", MetricAvgPoints, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("first read: ok=%v err=%v", ok, err)
	}
	if got != 7.0 {
		t.Fatalf("first read got=%v want=7.0", got)
	}

	// A points correction lands between reads.
	revised := confirmedPerf(2, "athletic", "barcelona", 4, nil)
	if _, err := repo.Upsert(ctx, revised); err != nil {
		t.Fatalf("apply correction: %v", err)
	}

	got, ok, err = svc.AggregateCached(ctx, "pedri", MetricAvgPoints, ScopeSeason())
	if err != nil || !ok {
		t.Fatalf("second read: ok=%v err=%v", ok, err)
	}
	if got != 5.0 {
		t.Fatalf("cached value survived a correction, got=%v want=5.0", got)
	}
}

func TestVenue(t *testing.T) {
	t.Parallel()

	p := player.Player{Slug: "pedri", TeamSlug: "barcelona"}

	if v := Venue(p, match.Key{Jornada: 1, HomeTeam: "barcelona", AwayTeam: "valencia"}); v != VenueHome {
		t.Fatalf("expected home venue, got=%q", v)
	}
	if v := Venue(p, match.Key{Jornada: 2, HomeTeam: "valencia", AwayTeam: "barcelona"}); v != VenueAway {
		t.Fatalf("expected away venue, got=%q", v)
	}
	if v := Venue(p, match.Key{Jornada: 3, HomeTeam: "valencia", AwayTeam: "athletic"}); v != "" {
		t.Fatalf("expected empty venue for uninvolved team, got=%q", v)
	}
}
