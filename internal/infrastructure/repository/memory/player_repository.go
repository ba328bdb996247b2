package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fantasyscouter/engine/internal/domain/player"
)

type PlayerRepository struct {
	mu    sync.RWMutex
	items map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	items := make(map[string]player.Player, len(players))
	for _, p := range players {
		items[p.Slug] = p
	}
	return &PlayerRepository{items: items}
}

func (r *PlayerRepository) Get(_ context.Context, slug string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[slug]
	return p, ok, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, p player.Player) (*player.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *player.Player
	if existing, ok := r.items[p.Slug]; ok {
		prev = &existing
	}
	r.items[p.Slug] = p
	return prev, nil
}

func (r *PlayerRepository) List(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
