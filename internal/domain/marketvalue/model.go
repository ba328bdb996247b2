package marketvalue

import "time"

const dayLayout = "2006-01-02"

// Point is one observation of a player's market value. The history keeps at
// most one point per player per day; a later observation on the same day
// replaces the earlier one.
type Point struct {
	PlayerSlug string `json:"player_slug" validate:"required"`
	Day        string `json:"day" validate:"required"`
	Value      int64  `json:"value"`
}

// Key identifies one history point.
type Key struct {
	PlayerSlug string `json:"player_slug"`
	Day        string `json:"day"`
}

func (k Key) Valid() bool {
	if k.PlayerSlug == "" {
		return false
	}
	_, err := time.Parse(dayLayout, k.Day)
	return err == nil
}

func (k Key) String() string {
	return k.PlayerSlug + "@" + k.Day
}

func (p Point) Key() Key {
	return Key{PlayerSlug: p.PlayerSlug, Day: p.Day}
}

// DayOf formats a timestamp as the history day it falls on, in UTC.
func DayOf(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// ParseDay is the inverse of DayOf.
func ParseDay(day string) (time.Time, error) {
	return time.Parse(dayLayout, day)
}
