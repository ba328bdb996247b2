package memory

import (
	"time"

	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/snapshot"
	"github.com/fantasyscouter/engine/internal/domain/team"
)

// SeedSnapshot is the starting remote state for local runs without a
// database.
func SeedSnapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Teams:   SeedTeams(),
		Matches: SeedMatches(),
		Players: SeedPlayers(),
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{Slug: "barcelona", Name: "FC Barcelona", ExternalID: 3, SquadSize: 25},
		{Slug: "real-madrid", Name: "Real Madrid", ExternalID: 1, SquadSize: 25},
		{Slug: "valencia", Name: "Valencia CF", ExternalID: 18, SquadSize: 24},
		{Slug: "athletic", Name: "Athletic Club", ExternalID: 5, SquadSize: 24},
	}
}

func SeedMatches() []match.Match {
	kick := func(day int) time.Time {
		return time.Date(2025, 8, day, 19, 0, 0, 0, time.UTC)
	}
	return []match.Match{
		{Jornada: 1, HomeTeam: "barcelona", AwayTeam: "valencia", Date: kick(16), ExternalID: "20001"},
		{Jornada: 1, HomeTeam: "real-madrid", AwayTeam: "athletic", Date: kick(17), ExternalID: "20002"},
		{Jornada: 2, HomeTeam: "valencia", AwayTeam: "real-madrid", Date: kick(23), ExternalID: "20011"},
		{Jornada: 2, HomeTeam: "athletic", AwayTeam: "barcelona", Date: kick(24), ExternalID: "20012"},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		{Slug: "lamine-yamal", ExternalID: 11520, Name: "Lamine Yamal", TeamSlug: "barcelona", Position: "Delantero", MarketValue: 159010786, PMR: 41_000_000},
		{Slug: "pedri", ExternalID: 9811, Name: "Pedri", TeamSlug: "barcelona", Position: "Centrocampista", MarketValue: 98000000, PMR: 25_500_000},
		{Slug: "vinicius-junior", ExternalID: 10233, Name: "Vinicius Junior", TeamSlug: "real-madrid", Position: "Delantero", MarketValue: 142000000, PMR: 38_200_000},
		{Slug: "hugo-duro", ExternalID: 12044, Name: "Hugo Duro", TeamSlug: "valencia", Position: "Delantero", MarketValue: 21000000, PMR: 6_100_000},
	}
}
