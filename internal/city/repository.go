package city

import "context"

// Repository defines the interface for city record storage.
type Repository interface {
	// Get returns the record stored under a normalized key.
	// Returns ErrCityNotFound if no record exists.
	Get(ctx context.Context, key string) (*Record, error)

	// List returns every record in suggestion order.
	List(ctx context.Context) ([]*Record, error)
}
