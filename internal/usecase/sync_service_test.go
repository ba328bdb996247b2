package usecase

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/snapshot"
	"github.com/fantasyscouter/engine/internal/domain/team"
	"github.com/fantasyscouter/engine/internal/infrastructure/repository/memory"
)

type stubSource struct {
	teams    []team.Team
	matches  []match.Match
	players  []player.Player
	perfs    []performance.Performance
	teamsErr error
}

func (s *stubSource) FetchTeams(_ context.Context) ([]team.Team, error) {
	if s.teamsErr != nil {
		return nil, s.teamsErr
	}
	return s.teams, nil
}

func (s *stubSource) FetchMatches(_ context.Context) ([]match.Match, error) {
	return s.matches, nil
}

func (s *stubSource) FetchPlayers(_ context.Context) ([]player.Player, error) {
	return s.players, nil
}

func (s *stubSource) FetchPerformances(_ context.Context) ([]performance.Performance, error) {
	return s.perfs, nil
}

type failingStore struct{}

func (failingStore) FetchSnapshot(_ context.Context) (snapshot.Snapshot, error) {
	return snapshot.Snapshot{}, errors.New("connection refused")
}

func (failingStore) PublishSnapshot(_ context.Context, _ snapshot.Snapshot, _ snapshot.RunSummary) error {
	return nil
}

func newSyncService(store SnapshotStore, source CandidateSource) *SyncService {
	workspace := func() RepoSet {
		return RepoSet{
			Teams:        memory.NewTeamRepository(nil),
			Matches:      memory.NewMatchRepository(nil),
			Players:      memory.NewPlayerRepository(nil),
			Performances: memory.NewPerformanceRepository(nil),
			Corrections:  memory.NewCorrectionRepository(nil),
			MarketValues: memory.NewMarketValueRepository(nil),
		}
	}
	newMerge := func(rs RepoSet) *MergeService {
		return NewMergeService(rs.Teams, rs.Matches, rs.Players, rs.Performances, rs.Corrections, rs.MarketValues, nil, 2)
	}
	return NewSyncService(store, source, workspace, newMerge, nil)
}

func TestSyncService_Run_PublishesChanges(t *testing.T) {
	t.Parallel()

	store := memory.NewSnapshotStore(snapshot.Snapshot{Version: 3})
	source := &stubSource{
		teams: []team.Team{{Slug: "barcelona", Name: "FC Barcelona"}},
		matches: []match.Match{
			{Jornada: 1, HomeTeam: "barcelona", AwayTeam: "valencia"},
		},
	}
	svc := newSyncService(store, source)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Status != StatusPublished {
		t.Fatalf("status got=%q want=%q", report.Status, StatusPublished)
	}
	if report.TotalChanges() != 2 {
		t.Fatalf("expected 2 changes, got=%d", report.TotalChanges())
	}
	if store.PublishCalls != 1 {
		t.Fatalf("expected 1 publish, got=%d", store.PublishCalls)
	}

	current := store.Current()
	if current.Version != 4 {
		t.Fatalf("version got=%d want=4", current.Version)
	}
	if len(current.Teams) != 1 || len(current.Matches) != 1 {
		t.Fatalf("published snapshot incomplete: %d teams, %d matches", len(current.Teams), len(current.Matches))
	}
	if svc.State() != StateIdle {
		t.Fatalf("state after run got=%q want=%q", svc.State(), StateIdle)
	}
}

func TestSyncService_Run_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	store := memory.NewSnapshotStore(snapshot.Snapshot{})
	source := &stubSource{
		teams: []team.Team{{Slug: "valencia", Name: "Valencia CF"}},
	}
	svc := newSyncService(store, source)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first Run error: %v", err)
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if report.Status != StatusNoOp {
		t.Fatalf("status got=%q want=%q", report.Status, StatusNoOp)
	}
	if store.PublishCalls != 1 {
		t.Fatalf("no-op run must not publish, got=%d publishes", store.PublishCalls)
	}
}

func TestSyncService_Run_RemoteFetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	svc := newSyncService(failingStore{}, &stubSource{})

	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrRemoteFetch) {
		t.Fatalf("expected ErrRemoteFetch, got: %v", err)
	}
	if report.Status != StatusFailed {
		t.Fatalf("status got=%q want=%q", report.Status, StatusFailed)
	}
	if report.Failure == "" {
		t.Fatal("expected failure detail in report")
	}
}

func TestSyncService_Run_PublishConflict(t *testing.T) {
	t.Parallel()

	store := memory.NewSnapshotStore(snapshot.Snapshot{Version: 7})
	source := &stubSource{
		teams: []team.Team{{Slug: "athletic", Name: "Athletic Club"}},
	}
	// Another run publishes between this run's fetch and publish.
	conflicting := &conflictingSource{inner: source, store: store}
	svc := newSyncService(store, conflicting)

	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrPublishConflict) {
		t.Fatalf("expected ErrPublishConflict, got: %v", err)
	}
	if report.Status != StatusFailed {
		t.Fatalf("status got=%q want=%q", report.Status, StatusFailed)
	}
	if store.PublishCalls != 0 {
		t.Fatalf("conflicting publish must not land, got=%d publishes", store.PublishCalls)
	}
}

func TestSyncService_Run_ScraperFailureDegrades(t *testing.T) {
	t.Parallel()

	seed := snapshot.Snapshot{
		Teams: []team.Team{{Slug: "barcelona", Name: "FC Barcelona"}},
	}
	store := memory.NewSnapshotStore(seed)
	source := &stubSource{
		teamsErr: errors.New("feed timeout"),
		matches: []match.Match{
			{Jornada: 1, HomeTeam: "barcelona", AwayTeam: "valencia"},
		},
	}
	svc := newSyncService(store, source)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Status != StatusPublished {
		t.Fatalf("status got=%q want=%q", report.Status, StatusPublished)
	}

	// Stored teams survive the failed team scrape.
	current := store.Current()
	if len(current.Teams) != 1 {
		t.Fatalf("stored teams lost on scraper failure: %d", len(current.Teams))
	}
	if len(current.Matches) != 1 {
		t.Fatalf("match merge should have proceeded: %d", len(current.Matches))
	}

	if len(report.Degraded) != 1 || report.Degraded[0] != "teams" {
		t.Fatalf("expected teams to be reported degraded, got %v", report.Degraded)
	}
}

func TestSyncService_ScrapeFailureIsMarked(t *testing.T) {
	t.Parallel()

	source := &stubSource{teamsErr: errors.New("feed timeout")}
	svc := newSyncService(memory.NewSnapshotStore(snapshot.Snapshot{}), source)

	_, err := svc.scrapeTeams(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrScraperFailure) {
		t.Fatalf("expected ErrScraperFailure, got: %v", err)
	}
}

// conflictingSource advances the remote version during the scrape phase, so
// the later compare-and-swap publish sees a stale base.
type conflictingSource struct {
	inner *stubSource
	store *memory.SnapshotStore
}

func (c *conflictingSource) FetchTeams(ctx context.Context) ([]team.Team, error) {
	c.store.Advance()
	return c.inner.FetchTeams(ctx)
}

func (c *conflictingSource) FetchMatches(ctx context.Context) ([]match.Match, error) {
	return c.inner.FetchMatches(ctx)
}

func (c *conflictingSource) FetchPlayers(ctx context.Context) ([]player.Player, error) {
	return c.inner.FetchPlayers(ctx)
}

func (c *conflictingSource) FetchPerformances(ctx context.Context) ([]performance.Performance, error) {
	return c.inner.FetchPerformances(ctx)
}
