package memory

import (
	"context"
	"testing"

	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
)

func TestPerformanceRepository_ListByPlayerOrdersByJornada(t *testing.T) {
	t.Parallel()

	perf := func(slug string, jornada int) performance.Performance {
		return performance.Performance{
			PlayerSlug: slug,
			Match:      match.Key{Jornada: jornada, HomeTeam: "h", AwayTeam: "a"},
			Status:     performance.StatusConfirmed,
		}
	}
	repo := NewPerformanceRepository([]performance.Performance{
		perf("pedri", 3),
		perf("pedri", 1),
		perf("hugo-duro", 2),
		perf("pedri", 2),
	})

	got, err := repo.ListByPlayer(context.Background(), "pedri")
	if err != nil {
		t.Fatalf("ListByPlayer error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got=%d", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].Match.Jornada != want {
			t.Fatalf("record %d jornada got=%d want=%d", i, got[i].Match.Jornada, want)
		}
	}
}

func TestPerformanceRepository_UpsertReturnsPrevious(t *testing.T) {
	t.Parallel()

	repo := NewPerformanceRepository(nil)
	ctx := context.Background()
	rec := performance.Performance{
		PlayerSlug: "pedri",
		Match:      match.Key{Jornada: 1, HomeTeam: "h", AwayTeam: "a"},
		Points:     4,
		Status:     performance.StatusProvisional,
	}

	prev, err := repo.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("first Upsert error: %v", err)
	}
	if prev != nil {
		t.Fatalf("first upsert must have no previous, got %+v", prev)
	}

	rec.Points = 7
	prev, err = repo.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("second Upsert error: %v", err)
	}
	if prev == nil || prev.Points != 4 {
		t.Fatalf("expected previous with points=4, got %+v", prev)
	}
}
