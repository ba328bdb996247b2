package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/fantasyscouter/engine/internal/domain/correction"
	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/snapshot"
	"github.com/fantasyscouter/engine/internal/domain/team"
	"github.com/fantasyscouter/engine/internal/platform/logging"
)

// SnapshotStore is the remote destination of a sync run. FetchSnapshot hands
// out the current state plus its version; PublishSnapshot accepts a new state
// only while the version it carries is still current.
type SnapshotStore interface {
	FetchSnapshot(ctx context.Context) (snapshot.Snapshot, error)
	PublishSnapshot(ctx context.Context, snap snapshot.Snapshot, summary snapshot.RunSummary) error
}

// CandidateSource yields freshly scraped candidate records per entity type.
type CandidateSource interface {
	FetchTeams(ctx context.Context) ([]team.Team, error)
	FetchMatches(ctx context.Context) ([]match.Match, error)
	FetchPlayers(ctx context.Context) ([]player.Player, error)
	FetchPerformances(ctx context.Context) ([]performance.Performance, error)
}

// RepoSet is the working set of one sync run. The orchestrator seeds it from
// the fetched snapshot, merges candidates into it, and reads the result back
// out for publishing.
type RepoSet struct {
	Teams        team.Repository
	Matches      match.Repository
	Players      player.Repository
	Performances performance.Repository
	Corrections  correction.Repository
	MarketValues marketvalue.Repository
}

// RunState is the orchestrator's position in the run lifecycle.
type RunState string

const (
	StateIdle           RunState = "IDLE"
	StateFetchingRemote RunState = "FETCHING_REMOTE"
	StateScraping       RunState = "SCRAPING"
	StateMerging        RunState = "MERGING"
	StatePublishing     RunState = "PUBLISHING"
	StateNoOp           RunState = "NO_OP"
	StateFailed         RunState = "FAILED"
)

// RunStatus is the terminal outcome of one run.
type RunStatus string

const (
	StatusPublished RunStatus = "published"
	StatusNoOp      RunStatus = "noop"
	StatusFailed    RunStatus = "failed"
)

// RunReport is what one Run hands back to its caller.
type RunReport struct {
	Status     RunStatus
	Failure    string
	Entities   map[string]ChangeLog
	Version    int64
	StartedAt  time.Time
	FinishedAt time.Time

	// Degraded names the entity types whose scrape failed; the run went on
	// with zero candidates for them.
	Degraded []string
}

func (r RunReport) TotalChanges() int {
	total := 0
	for _, log := range r.Entities {
		total += log.Changes()
	}
	return total
}

// Summary flattens the report into the form the remote journal stores.
func (r RunReport) Summary() snapshot.RunSummary {
	entities := make(map[string]snapshot.EntityChanges, len(r.Entities))
	for name, log := range r.Entities {
		entities[name] = log.Counts()
	}
	return snapshot.RunSummary{
		Status:     string(r.Status),
		Failure:    r.Failure,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Entities:   entities,
	}
}

// SyncService drives one fetch-scrape-merge-publish cycle. Each Run works on
// a fresh RepoSet from the workspace factory, so repeated runs (daemon mode)
// never see a previous run's working state.
type SyncService struct {
	store     SnapshotStore
	source    CandidateSource
	workspace func() RepoSet
	newMerge  func(RepoSet) *MergeService
	logger    *logging.Logger
	now       func() time.Time

	mu    sync.Mutex
	state RunState
}

func NewSyncService(
	store SnapshotStore,
	source CandidateSource,
	workspace func() RepoSet,
	newMerge func(RepoSet) *MergeService,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		store:     store,
		source:    source,
		workspace: workspace,
		newMerge:  newMerge,
		logger:    logger,
		now:       time.Now,
		state:     StateIdle,
	}
}

// State reports the current lifecycle position. Safe to call from another
// goroutine (the health endpoint does).
func (s *SyncService) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SyncService) setState(ctx context.Context, next RunState) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "sync state transition",
		"from", string(prev),
		"to", string(next),
	)
}

// Run executes one full sync cycle. A failed run returns the report alongside
// the error; nothing partial is ever published.
func (s *SyncService) Run(ctx context.Context) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Run")
	defer span.End()

	report := RunReport{
		StartedAt: s.now(),
		Entities:  map[string]ChangeLog{},
	}
	defer s.setState(ctx, StateIdle)

	s.setState(ctx, StateFetchingRemote)
	remote, err := s.store.FetchSnapshot(ctx)
	if err != nil {
		return s.fail(ctx, report, errors.Mark(errors.Wrap(err, "fetch remote snapshot"), ErrRemoteFetch))
	}
	report.Version = remote.Version

	rs := s.workspace()
	if err := SeedRepoSet(ctx, rs, remote); err != nil {
		return s.fail(ctx, report, errors.Wrap(err, "seed workspace from snapshot"))
	}

	s.setState(ctx, StateScraping)
	var (
		teams   []team.Team
		matches []match.Match
		players []player.Player

		teamsErr, matchesErr, playersErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() { teams, teamsErr = s.scrapeTeams(ctx) })
	wg.Go(func() { matches, matchesErr = s.scrapeMatches(ctx) })
	wg.Go(func() { players, playersErr = s.scrapePlayers(ctx) })
	wg.Wait()

	s.degrade(ctx, &report, "teams", teamsErr)
	s.degrade(ctx, &report, "matches", matchesErr)
	s.degrade(ctx, &report, "players", playersErr)

	s.setState(ctx, StateMerging)
	merge := s.newMerge(rs)

	teamLog, err := merge.MergeTeams(ctx, teams)
	if err != nil {
		return s.fail(ctx, report, errors.Wrap(err, "merge teams"))
	}
	report.Entities["teams"] = teamLog

	matchLog, err := merge.MergeMatches(ctx, matches)
	if err != nil {
		return s.fail(ctx, report, errors.Wrap(err, "merge matches"))
	}
	report.Entities["matches"] = matchLog

	playerLog, err := merge.MergePlayers(ctx, players)
	if err != nil {
		return s.fail(ctx, report, errors.Wrap(err, "merge players"))
	}
	report.Entities["players"] = playerLog

	// Performances come last: match merging has to settle home/away sides
	// before per-match stats are attached.
	perfs, perfsErr := s.scrapePerformances(ctx)
	s.degrade(ctx, &report, "performances", perfsErr)
	perfLog, err := merge.MergePerformances(ctx, perfs)
	if err != nil {
		return s.fail(ctx, report, errors.Wrap(err, "merge performances"))
	}
	report.Entities["performances"] = perfLog

	if report.TotalChanges() == 0 {
		s.setState(ctx, StateNoOp)
		report.Status = StatusNoOp
		report.FinishedAt = s.now()
		s.logger.InfoContext(ctx, "sync run made no changes, skipping publish",
			"version", remote.Version,
		)
		return report, nil
	}

	s.setState(ctx, StatePublishing)
	next, err := collectWorkspace(ctx, rs, remote)
	if err != nil {
		return s.fail(ctx, report, errors.Wrap(err, "collect workspace"))
	}

	report.Status = StatusPublished
	report.FinishedAt = s.now()
	if err := s.store.PublishSnapshot(ctx, next, report.Summary()); err != nil {
		if errors.Is(err, snapshot.ErrVersionConflict) {
			err = errors.Mark(err, ErrPublishConflict)
		}
		return s.fail(ctx, report, errors.Wrap(err, "publish snapshot"))
	}

	s.logger.InfoContext(ctx, "sync run published",
		"base_version", remote.Version,
		"changes", report.TotalChanges(),
	)

	// A published run ends with a consistency check over what it just wrote.
	// Findings are logged, never fatal.
	audit := NewAuditService(rs.Teams, rs.Matches, rs.Players, rs.Performances, rs.Corrections, s.logger)
	if _, err := audit.Check(ctx); err != nil {
		s.logger.WarnContext(ctx, "post-run audit failed", "error", err)
	}

	return report, nil
}

func (s *SyncService) fail(ctx context.Context, report RunReport, err error) (RunReport, error) {
	s.setState(ctx, StateFailed)
	report.Status = StatusFailed
	report.Failure = err.Error()
	report.FinishedAt = s.now()
	s.logger.ErrorContext(ctx, "sync run failed", "error", err)
	return report, err
}

// scrape helpers tolerate provider failure for a single entity type: the run
// proceeds with zero candidates and the stored records stay untouched. The
// error comes back marked with ErrScraperFailure so the caller can tell a
// degraded scrape apart from anything fatal.

func (s *SyncService) scrapeTeams(ctx context.Context) ([]team.Team, error) {
	out, err := s.source.FetchTeams(ctx)
	if err != nil {
		return nil, errors.Mark(err, ErrScraperFailure)
	}
	return out, nil
}

func (s *SyncService) scrapeMatches(ctx context.Context) ([]match.Match, error) {
	out, err := s.source.FetchMatches(ctx)
	if err != nil {
		return nil, errors.Mark(err, ErrScraperFailure)
	}
	return out, nil
}

func (s *SyncService) scrapePlayers(ctx context.Context) ([]player.Player, error) {
	out, err := s.source.FetchPlayers(ctx)
	if err != nil {
		return nil, errors.Mark(err, ErrScraperFailure)
	}
	return out, nil
}

func (s *SyncService) scrapePerformances(ctx context.Context) ([]performance.Performance, error) {
	out, err := s.source.FetchPerformances(ctx)
	if err != nil {
		return nil, errors.Mark(err, ErrScraperFailure)
	}
	return out, nil
}

func (s *SyncService) degrade(ctx context.Context, report *RunReport, entity string, err error) {
	if err == nil {
		return
	}
	report.Degraded = append(report.Degraded, entity)
	s.logger.WarnContext(ctx, "scrape failed, continuing with zero candidates",
		"entity", entity,
		"error", err,
	)
}

// SeedRepoSet loads a fetched snapshot into a working RepoSet.
func SeedRepoSet(ctx context.Context, rs RepoSet, snap snapshot.Snapshot) error {
	for _, t := range snap.Teams {
		if _, err := rs.Teams.Upsert(ctx, t); err != nil {
			return fmt.Errorf("seed team %s: %w", t.Slug, err)
		}
	}
	for _, m := range snap.Matches {
		if _, err := rs.Matches.Upsert(ctx, m); err != nil {
			return fmt.Errorf("seed match %s: %w", m.Key(), err)
		}
	}
	for _, p := range snap.Players {
		if _, err := rs.Players.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed player %s: %w", p.Slug, err)
		}
	}
	for _, perf := range snap.Performances {
		if _, err := rs.Performances.Upsert(ctx, perf); err != nil {
			return fmt.Errorf("seed performance %s: %w", perf.Key(), err)
		}
	}
	if len(snap.Corrections) > 0 {
		if err := rs.Corrections.Append(ctx, snap.Corrections...); err != nil {
			return fmt.Errorf("seed corrections: %w", err)
		}
	}
	for _, p := range snap.MarketValues {
		if _, err := rs.MarketValues.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed market value %s: %w", p.Key(), err)
		}
	}
	return nil
}

func collectWorkspace(ctx context.Context, rs RepoSet, base snapshot.Snapshot) (snapshot.Snapshot, error) {
	out := snapshot.Snapshot{
		Version:   base.Version,
		FetchedAt: base.FetchedAt,
	}
	var err error
	if out.Teams, err = rs.Teams.List(ctx); err != nil {
		return out, fmt.Errorf("list teams: %w", err)
	}
	if out.Matches, err = rs.Matches.List(ctx); err != nil {
		return out, fmt.Errorf("list matches: %w", err)
	}
	if out.Players, err = rs.Players.List(ctx); err != nil {
		return out, fmt.Errorf("list players: %w", err)
	}
	if out.Performances, err = rs.Performances.List(ctx); err != nil {
		return out, fmt.Errorf("list performances: %w", err)
	}
	if out.Corrections, err = rs.Corrections.List(ctx); err != nil {
		return out, fmt.Errorf("list corrections: %w", err)
	}
	if out.MarketValues, err = rs.MarketValues.List(ctx); err != nil {
		return out, fmt.Errorf("list market values: %w", err)
	}
	return out, nil
}
