package store

import "context"

// Driver is the vector database abstraction implemented per backend.
type Driver interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// CreateCollection registers a named collection. Idempotent.
	CreateCollection(ctx context.Context, name string, dimensions int) error

	// CollectionExists reports whether the named collection has been created.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// UpsertPoints inserts or replaces points in a collection.
	UpsertPoints(ctx context.Context, collection string, points []*Point) error

	// SearchPoints runs a nearest-neighbor query ranked by cosine similarity.
	SearchPoints(ctx context.Context, collection string, vector []float32, limit int, filter *PointFilter) ([]*ScoredPoint, error)

	// ScrollPoints lists points without a query vector. limit <= 0 means no limit.
	ScrollPoints(ctx context.Context, collection string, limit int, filter *PointFilter) ([]*Point, error)

	// DeletePoint removes a point by id. Returns false when the id does not exist.
	DeletePoint(ctx context.Context, collection string, id string) (bool, error)

	Close() error
}
