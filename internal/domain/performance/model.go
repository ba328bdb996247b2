package performance

import (
	"github.com/fantasyscouter/engine/internal/domain/match"
)

// Status separates pre-match prediction rows from post-match confirmed ones.
type Status string

const (
	StatusProvisional Status = "provisional"
	StatusConfirmed   Status = "confirmed"
)

// Key identifies one performance record: a player has at most one per match.
type Key struct {
	PlayerSlug string    `json:"player_slug"`
	Match      match.Key `json:"match"`
}

func (k Key) Valid() bool {
	return k.PlayerSlug != "" && k.Match.Valid()
}

func (k Key) String() string {
	return k.PlayerSlug + "@" + k.Match.String()
}

// Performance links a player to a match. Points are the externally published
// fantasy value and are never recomputed here. Stats is an open set of named
// counters: the source adds and removes stat columns between seasons, and an
// absent key means "not reported", not zero.
type Performance struct {
	PlayerSlug string             `json:"player_slug" validate:"required"`
	Match      match.Key          `json:"match"`
	Points     int                `json:"points"`
	Stats      map[string]float64 `json:"stats,omitempty"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
	Starter    bool               `json:"starter"`
	Status     Status             `json:"status" validate:"oneof=provisional confirmed"`
}

func (p Performance) Key() Key {
	return Key{PlayerSlug: p.PlayerSlug, Match: p.Match}
}

func (p Performance) Confirmed() bool { return p.Status == StatusConfirmed }

// Stat returns a named counter, distinguishing "not reported" from zero.
func (p Performance) Stat(name string) (float64, bool) {
	v, ok := p.Stats[name]
	return v, ok
}

func (p Performance) Equal(other Performance) bool {
	return p.PlayerSlug == other.PlayerSlug &&
		p.Match == other.Match &&
		p.Points == other.Points &&
		p.Starter == other.Starter &&
		p.Status == other.Status &&
		mapsEqual(p.Stats, other.Stats) &&
		mapsEqual(p.Breakdown, other.Breakdown)
}

func mapsEqual(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || v != w {
			return false
		}
	}
	return true
}
