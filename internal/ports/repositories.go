package ports

import "context"

// FlagStore is the slice of the persisted state the supervisor owns or reads.
type FlagStore interface {
	IsOnline(ctx context.Context) (bool, error)
	SetOnline(ctx context.Context, online bool) error
	SessionToken(ctx context.Context) (string, error)
	SetSessionToken(ctx context.Context, token string) error
	CurrentOrderID(ctx context.Context) (int64, bool, error)
	CleanShutdownMarker(ctx context.Context) (string, error)
	SetCleanShutdownMarker(ctx context.Context, bootID string) error
	ClearCleanShutdownMarker(ctx context.Context) error
}

// TripStore is the slice of the persisted state the trip machine owns.
type TripStore interface {
	CurrentOrderID(ctx context.Context) (int64, bool, error)
	SetCurrentOrder(ctx context.Context, id int64, checkpoint string) error
	ClearCurrentOrder(ctx context.Context) error
	Checkpoint(ctx context.Context) (string, error)
	SetCheckpoint(ctx context.Context, checkpoint string) error
}
