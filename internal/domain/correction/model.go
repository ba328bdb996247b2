package correction

import "time"

// Event records one retroactive change to a once-set field: an official
// score or a finalized fantasy-point value that was revised after the fact.
// Events are append-only; history is never overwritten.
type Event struct {
	Entity     string    `json:"entity"`
	RecordKey  string    `json:"record_key"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	ObservedAt time.Time `json:"observed_at"`
}
