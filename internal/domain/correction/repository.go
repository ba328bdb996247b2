package correction

import "context"

// Repository is the append-only audit trail for corrections.
type Repository interface {
	Append(ctx context.Context, events ...Event) error
	List(ctx context.Context) ([]Event, error)
}
