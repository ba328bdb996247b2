package performance

import "context"

// Repository describes performance persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, key Key) (Performance, bool, error)
	// Upsert overwrites the record at its key and returns the previous
	// record, or nil when the key was absent.
	Upsert(ctx context.Context, p Performance) (*Performance, error)
	List(ctx context.Context) ([]Performance, error)
	ListByPlayer(ctx context.Context, playerSlug string) ([]Performance, error)
}
