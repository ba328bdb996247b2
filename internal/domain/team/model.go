package team

// Team is one club in the competition, identified by its stable slug.
type Team struct {
	Slug       string `json:"slug" validate:"required"`
	Name       string `json:"name"`
	ExternalID int64  `json:"external_id"`
	CrestPath  string `json:"crest_path"`
	SquadSize  int    `json:"squad_size"`
	URL        string `json:"url"`
}

func (t Team) Key() string { return t.Slug }

// Equal reports whether two records carry the same scraped fields.
func (t Team) Equal(other Team) bool { return t == other }
