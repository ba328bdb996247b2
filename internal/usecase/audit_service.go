package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/fantasyscouter/engine/internal/domain/correction"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/team"
	"github.com/fantasyscouter/engine/internal/platform/logging"
)

// AuditReport is a read-only health check of the stored data set.
type AuditReport struct {
	Teams        int `json:"teams"`
	Matches      int `json:"matches"`
	Played       int `json:"played"`
	Players      int `json:"players"`
	Performances int `json:"performances"`
	Confirmed    int `json:"confirmed"`
	Corrections  int `json:"corrections"`

	// OrphanPlayers lists players whose team appears in no fixture.
	OrphanPlayers []string `json:"orphan_players,omitempty"`
	// UnscoredConfirmed lists confirmed performances attached to a match
	// that has no final score. Confirmation should only follow a result.
	UnscoredConfirmed []string `json:"unscored_confirmed,omitempty"`
}

func (r AuditReport) Healthy() bool {
	return len(r.OrphanPlayers) == 0 && len(r.UnscoredConfirmed) == 0
}

// AuditService cross-checks the stored entities against each other. It never
// mutates anything; findings go to the caller and the log.
type AuditService struct {
	teams        team.Repository
	matches      match.Repository
	players      player.Repository
	performances performance.Repository
	corrections  correction.Repository
	logger       *logging.Logger
}

func NewAuditService(
	teams team.Repository,
	matches match.Repository,
	players player.Repository,
	performances performance.Repository,
	corrections correction.Repository,
	logger *logging.Logger,
) *AuditService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditService{
		teams:        teams,
		matches:      matches,
		players:      players,
		performances: performances,
		corrections:  corrections,
		logger:       logger,
	}
}

func (s *AuditService) Check(ctx context.Context) (AuditReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuditService.Check")
	defer span.End()

	var report AuditReport

	teams, err := s.teams.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list teams: %w", err)
	}
	matches, err := s.matches.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list matches: %w", err)
	}
	players, err := s.players.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list players: %w", err)
	}
	perfs, err := s.performances.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list performances: %w", err)
	}
	events, err := s.corrections.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list corrections: %w", err)
	}

	report.Teams = len(teams)
	report.Matches = len(matches)
	report.Players = len(players)
	report.Performances = len(perfs)
	report.Corrections = len(events)

	fixtureTeams := make(map[string]struct{}, len(teams))
	scored := make(map[match.Key]bool, len(matches))
	for _, m := range matches {
		fixtureTeams[m.HomeTeam] = struct{}{}
		fixtureTeams[m.AwayTeam] = struct{}{}
		scored[m.Key()] = m.Played()
		if m.Played() {
			report.Played++
		}
	}

	for _, p := range players {
		if _, ok := fixtureTeams[p.TeamSlug]; !ok {
			report.OrphanPlayers = append(report.OrphanPlayers, p.Slug)
		}
	}
	sort.Strings(report.OrphanPlayers)

	for _, perf := range perfs {
		if !perf.Confirmed() {
			continue
		}
		report.Confirmed++
		if !scored[perf.Match] {
			report.UnscoredConfirmed = append(report.UnscoredConfirmed, perf.Key().String())
		}
	}
	sort.Strings(report.UnscoredConfirmed)

	if !report.Healthy() {
		s.logger.WarnContext(ctx, "audit found inconsistencies",
			"orphan_players", len(report.OrphanPlayers),
			"unscored_confirmed", len(report.UnscoredConfirmed),
		)
	}
	return report, nil
}
