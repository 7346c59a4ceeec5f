package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/edustack/mentora/internal/profile"
)

// Store provides access to the vector database.
// Payloads are validated here so malformed points never reach a driver.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimensions int) error {
	return s.driver.CreateCollection(ctx, name, dimensions)
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.driver.CollectionExists(ctx, name)
}

func (s *Store) UpsertPoints(ctx context.Context, collection string, points []*Point) error {
	for _, point := range points {
		if point.ID == "" {
			return errors.New("point id is required")
		}
		if len(point.Vector) == 0 {
			return errors.Errorf("point %s has an empty vector", point.ID)
		}
		if err := point.Payload.Validate(); err != nil {
			return errors.Wrapf(err, "invalid payload for point %s", point.ID)
		}
	}
	return s.driver.UpsertPoints(ctx, collection, points)
}

func (s *Store) SearchPoints(ctx context.Context, collection string, vector []float32, limit int, filter *PointFilter) ([]*ScoredPoint, error) {
	return s.driver.SearchPoints(ctx, collection, vector, limit, filter)
}

func (s *Store) ScrollPoints(ctx context.Context, collection string, limit int, filter *PointFilter) ([]*Point, error) {
	return s.driver.ScrollPoints(ctx, collection, limit, filter)
}

func (s *Store) DeletePoint(ctx context.Context, collection string, id string) (bool, error) {
	return s.driver.DeletePoint(ctx, collection, id)
}
