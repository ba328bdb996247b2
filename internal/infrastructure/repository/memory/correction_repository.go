package memory

import (
	"context"
	"sync"

	"github.com/fantasyscouter/engine/internal/domain/correction"
)

type CorrectionRepository struct {
	mu     sync.RWMutex
	events []correction.Event
}

func NewCorrectionRepository(events []correction.Event) *CorrectionRepository {
	return &CorrectionRepository{events: append([]correction.Event(nil), events...)}
}

func (r *CorrectionRepository) Append(_ context.Context, events ...correction.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, events...)
	return nil
}

func (r *CorrectionRepository) List(_ context.Context) ([]correction.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]correction.Event, len(r.events))
	copy(out, r.events)
	return out, nil
}
