package snapshot

import (
	"time"

	"github.com/fantasyscouter/engine/internal/domain/correction"
	"github.com/fantasyscouter/engine/internal/domain/marketvalue"
	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/team"
)

// Snapshot is the full state of the raw store at one version. The remote
// destination hands one out on fetch and accepts one back on publish;
// Version implements the compare-and-swap discipline between concurrent runs.
type Snapshot struct {
	Version      int64                     `json:"version"`
	FetchedAt    time.Time                 `json:"fetched_at"`
	Teams        []team.Team               `json:"teams"`
	Matches      []match.Match             `json:"matches"`
	Players      []player.Player           `json:"players"`
	Performances []performance.Performance `json:"performances"`
	Corrections  []correction.Event        `json:"corrections"`
	MarketValues []marketvalue.Point       `json:"market_values"`
}

func (s Snapshot) Empty() bool {
	return len(s.Teams) == 0 && len(s.Matches) == 0 && len(s.Players) == 0 &&
		len(s.Performances) == 0 && len(s.Corrections) == 0 && len(s.MarketValues) == 0
}
