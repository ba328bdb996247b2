package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fantasyscouter/engine/internal/domain/match"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[match.Key]match.Match
}

func NewMatchRepository(matches []match.Match) *MatchRepository {
	items := make(map[match.Key]match.Match, len(matches))
	for _, m := range matches {
		items[m.Key()] = m
	}
	return &MatchRepository{items: items}
}

func (r *MatchRepository) Get(_ context.Context, key match.Key) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[key]
	return m, ok, nil
}

func (r *MatchRepository) Upsert(_ context.Context, m match.Match) (*match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *match.Match
	if existing, ok := r.items[m.Key()]; ok {
		prev = &existing
	}
	r.items[m.Key()] = m
	return prev, nil
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Jornada != out[j].Jornada {
			return out[i].Jornada < out[j].Jornada
		}
		if out[i].HomeTeam != out[j].HomeTeam {
			return out[i].HomeTeam < out[j].HomeTeam
		}
		return out[i].AwayTeam < out[j].AwayTeam
	})
	return out, nil
}
