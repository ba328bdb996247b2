package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fantasyscouter/engine/internal/domain/snapshot"
	"github.com/fantasyscouter/engine/internal/domain/team"
)

func TestSnapshotStore_PublishBumpsVersion(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore(snapshot.Snapshot{Version: 5})
	ctx := context.Background()

	fetched, err := store.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("FetchSnapshot error: %v", err)
	}
	if fetched.Version != 5 {
		t.Fatalf("version got=%d want=5", fetched.Version)
	}
	if fetched.FetchedAt.IsZero() {
		t.Fatal("expected FetchedAt to be stamped")
	}

	next := fetched
	next.Teams = []team.Team{{Slug: "barcelona", Name: "FC Barcelona"}}
	if err := store.PublishSnapshot(ctx, next, snapshot.RunSummary{}); err != nil {
		t.Fatalf("PublishSnapshot error: %v", err)
	}

	current := store.Current()
	if current.Version != 6 {
		t.Fatalf("version after publish got=%d want=6", current.Version)
	}
	if len(current.Teams) != 1 {
		t.Fatalf("teams after publish got=%d want=1", len(current.Teams))
	}
	if store.PublishCalls != 1 {
		t.Fatalf("publish calls got=%d want=1", store.PublishCalls)
	}
}

func TestSnapshotStore_PublishRejectsStaleVersion(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore(snapshot.Snapshot{Version: 5})
	ctx := context.Background()

	fetched, err := store.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("FetchSnapshot error: %v", err)
	}

	store.Advance()

	err = store.PublishSnapshot(ctx, fetched, snapshot.RunSummary{})
	if !errors.Is(err, snapshot.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got: %v", err)
	}
	if store.PublishCalls != 0 {
		t.Fatalf("stale publish must not count, got=%d", store.PublishCalls)
	}
}
