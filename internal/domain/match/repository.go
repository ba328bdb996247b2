package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, key Key) (Match, bool, error)
	// Upsert overwrites the record at its key and returns the previous
	// record, or nil when the key was absent.
	Upsert(ctx context.Context, m Match) (*Match, error)
	List(ctx context.Context) ([]Match, error)
}
