package round

import "context"

// Repository describes round persistence needs from use cases. The
// memory store backs the live session; the postgres mirror backs
// history queries.
type Repository interface {
	GetByID(ctx context.Context, roundID uint64) (Round, bool, error)
	List(ctx context.Context, first, skip int) ([]Round, error)
	Upsert(ctx context.Context, r Round) error
}
