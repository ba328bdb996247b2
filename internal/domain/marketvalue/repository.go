package marketvalue

import "context"

// Repository stores the market value history. ListByPlayer returns points in
// day-ascending order, which the trend metrics rely on.
type Repository interface {
	Upsert(ctx context.Context, p Point) (*Point, error)
	ListByPlayer(ctx context.Context, playerSlug string) ([]Point, error)
	List(ctx context.Context) ([]Point, error)
}
