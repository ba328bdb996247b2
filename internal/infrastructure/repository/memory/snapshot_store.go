package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fantasyscouter/engine/internal/domain/snapshot"
)

// SnapshotStore keeps the full snapshot in memory behind the same
// fetch/compare-and-swap-publish contract as the postgres store. Used by
// tests and local runs without a database.
type SnapshotStore struct {
	mu   sync.Mutex
	snap snapshot.Snapshot

	// PublishCalls counts successful publishes, for assertions.
	PublishCalls int
}

func NewSnapshotStore(snap snapshot.Snapshot) *SnapshotStore {
	return &SnapshotStore{snap: snap}
}

func (s *SnapshotStore) FetchSnapshot(_ context.Context) (snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.snap
	out.FetchedAt = time.Now()
	return out, nil
}

func (s *SnapshotStore) PublishSnapshot(_ context.Context, snap snapshot.Snapshot, _ snapshot.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Version != s.snap.Version {
		return snapshot.ErrVersionConflict
	}
	snap.Version++
	s.snap = snap
	s.PublishCalls++
	return nil
}

// Advance bumps the stored version, simulating a concurrent run publishing
// between another run's fetch and publish.
func (s *SnapshotStore) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Version++
}

// Current returns the stored snapshot.
func (s *SnapshotStore) Current() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
