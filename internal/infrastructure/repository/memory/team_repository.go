package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fantasyscouter/engine/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(teams))
	for _, t := range teams {
		items[t.Slug] = t
	}
	return &TeamRepository{items: items}
}

func (r *TeamRepository) Get(_ context.Context, slug string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[slug]
	return t, ok, nil
}

func (r *TeamRepository) Upsert(_ context.Context, t team.Team) (*team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *team.Team
	if existing, ok := r.items[t.Slug]; ok {
		prev = &existing
	}
	r.items[t.Slug] = t
	return prev, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
