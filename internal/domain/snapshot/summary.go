package snapshot

import "time"

// EntityChanges is the per-entity-type outcome tally of one merge pass.
type EntityChanges struct {
	Inserted    int `json:"inserted"`
	Updated     int `json:"updated"`
	Corrected   int `json:"corrected"`
	Unchanged   int `json:"unchanged"`
	Malformed   int `json:"malformed"`
	ValuePoints int `json:"value_points,omitempty"`
}

func (c EntityChanges) Changes() int {
	return c.Inserted + c.Updated + c.Corrected + c.ValuePoints
}

// RunSummary describes one sync run for the remote journal.
type RunSummary struct {
	Status     string                   `json:"status"`
	Failure    string                   `json:"failure,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Entities   map[string]EntityChanges `json:"entities"`
}

func (s RunSummary) TotalChanges() int {
	total := 0
	for _, c := range s.Entities {
		total += c.Changes()
	}
	return total
}
