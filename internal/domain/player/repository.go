package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, slug string) (Player, bool, error)
	// Upsert overwrites the record at its key and returns the previous
	// record, or nil when the key was absent.
	Upsert(ctx context.Context, p Player) (*Player, error)
	List(ctx context.Context) ([]Player, error)
}
