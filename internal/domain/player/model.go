package player

import "strings"

// Player is one roster member. The slug is stable for the player's career.
//
// Bio fields (position, role, photo) are "slow": the scraper only revisits a
// player's profile page when a new player is detected, so an ordinary run
// yields candidates with empty bio fields. Market fields are "fast" and are
// refreshed on every run.
type Player struct {
	Slug       string `json:"slug" validate:"required"`
	ExternalID int64  `json:"external_id"`
	Name       string `json:"name"`
	TeamSlug   string `json:"team_slug" validate:"required"`

	// Slow bio fields.
	Position  string `json:"position"`
	Role      string `json:"role"`
	PhotoPath string `json:"photo_path"`

	// Fast market fields. PMR is sourced as-is and never recomputed.
	MarketValue int64   `json:"market_value"`
	PMR         float64 `json:"pmr"`
	ProbStarter float64 `json:"prob_starter"`
}

func (p Player) Key() string { return p.Slug }

// WithBioFrom fills empty bio fields from a previously stored record, so a
// fast-only scrape does not wipe data the run never looked at.
func (p Player) WithBioFrom(existing Player) Player {
	if strings.TrimSpace(p.Position) == "" {
		p.Position = existing.Position
	}
	if strings.TrimSpace(p.Role) == "" {
		p.Role = existing.Role
	}
	if strings.TrimSpace(p.PhotoPath) == "" {
		p.PhotoPath = existing.PhotoPath
	}
	return p
}

// Equal reports whether two records carry the same scraped fields.
func (p Player) Equal(other Player) bool { return p == other }
