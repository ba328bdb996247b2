package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
)

type MarketValueRepository struct {
	mu    sync.RWMutex
	items map[marketvalue.Key]marketvalue.Point
}

func NewMarketValueRepository(points []marketvalue.Point) *MarketValueRepository {
	items := make(map[marketvalue.Key]marketvalue.Point, len(points))
	for _, p := range points {
		items[p.Key()] = p
	}
	return &MarketValueRepository{items: items}
}

func (r *MarketValueRepository) Upsert(_ context.Context, p marketvalue.Point) (*marketvalue.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *marketvalue.Point
	if existing, ok := r.items[p.Key()]; ok {
		prev = &existing
	}
	r.items[p.Key()] = p
	return prev, nil
}

func (r *MarketValueRepository) ListByPlayer(_ context.Context, playerSlug string) ([]marketvalue.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortPoints(r.collect(func(p marketvalue.Point) bool {
		return p.PlayerSlug == playerSlug
	})), nil
}

func (r *MarketValueRepository) List(_ context.Context) ([]marketvalue.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortPoints(r.collect(func(marketvalue.Point) bool { return true })), nil
}

// collect must be called with at least a read lock held.
func (r *MarketValueRepository) collect(keep func(marketvalue.Point) bool) []marketvalue.Point {
	out := make([]marketvalue.Point, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func sortPoints(points []marketvalue.Point) []marketvalue.Point {
	sort.Slice(points, func(i, j int) bool {
		if points[i].PlayerSlug != points[j].PlayerSlug {
			return points[i].PlayerSlug < points[j].PlayerSlug
		}
		return points[i].Day < points[j].Day
	})
	return points
}
