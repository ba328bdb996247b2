package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, slug string) (Team, bool, error)
	// Upsert overwrites the record at its key and returns the previous
	// record, or nil when the key was absent.
	Upsert(ctx context.Context, t Team) (*Team, error)
	List(ctx context.Context) ([]Team, error)
}
