package usecase

import (
	"github.com/fantasyscouter/engine/internal/domain/correction"
	"github.com/fantasyscouter/engine/internal/domain/snapshot"
)

// ChangeLog is the outcome tally of merging one candidate batch. The sync
// orchestrator publishes only when the aggregate change count across all
// entity types is non-zero.
type ChangeLog struct {
	Inserted  int
	Updated   int
	Corrected int
	Unchanged int
	Malformed int

	// ValuePoints counts new or revised market value history points. A
	// day's first observation is a change even when the player record
	// itself is unchanged.
	ValuePoints int

	// Corrections carries the audit events recorded during this merge,
	// so the publish step can append them to the remote trail.
	Corrections []correction.Event
}

// Changes counts the writes that were actually applied.
func (c ChangeLog) Changes() int {
	return c.Inserted + c.Updated + c.Corrected + c.ValuePoints
}

func (c ChangeLog) Counts() snapshot.EntityChanges {
	return snapshot.EntityChanges{
		Inserted:    c.Inserted,
		Updated:     c.Updated,
		Corrected:   c.Corrected,
		Unchanged:   c.Unchanged,
		Malformed:   c.Malformed,
		ValuePoints: c.ValuePoints,
	}
}
