package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fantasyscouter/engine/internal/domain/performance"
)

type PerformanceRepository struct {
	mu    sync.RWMutex
	items map[performance.Key]performance.Performance
}

func NewPerformanceRepository(perfs []performance.Performance) *PerformanceRepository {
	items := make(map[performance.Key]performance.Performance, len(perfs))
	for _, p := range perfs {
		items[p.Key()] = p
	}
	return &PerformanceRepository{items: items}
}

func (r *PerformanceRepository) Get(_ context.Context, key performance.Key) (performance.Performance, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[key]
	return p, ok, nil
}

func (r *PerformanceRepository) Upsert(_ context.Context, p performance.Performance) (*performance.Performance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *performance.Performance
	if existing, ok := r.items[p.Key()]; ok {
		prev = &existing
	}
	r.items[p.Key()] = p
	return prev, nil
}

func (r *PerformanceRepository) List(_ context.Context) ([]performance.Performance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortPerformances(r.collect(func(performance.Performance) bool { return true })), nil
}

func (r *PerformanceRepository) ListByPlayer(_ context.Context, playerSlug string) ([]performance.Performance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortPerformances(r.collect(func(p performance.Performance) bool {
		return p.PlayerSlug == playerSlug
	})), nil
}

// collect must be called with at least a read lock held.
func (r *PerformanceRepository) collect(keep func(performance.Performance) bool) []performance.Performance {
	out := make([]performance.Performance, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func sortPerformances(perfs []performance.Performance) []performance.Performance {
	sort.Slice(perfs, func(i, j int) bool {
		if perfs[i].Match.Jornada != perfs[j].Match.Jornada {
			return perfs[i].Match.Jornada < perfs[j].Match.Jornada
		}
		if perfs[i].PlayerSlug != perfs[j].PlayerSlug {
			return perfs[i].PlayerSlug < perfs[j].PlayerSlug
		}
		return perfs[i].Match.String() < perfs[j].Match.String()
	})
	return perfs
}
