package postgres

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/edustack/mentora/store"
)

// CreateCollection registers a named collection. Idempotent.
func (d *DB) CreateCollection(ctx context.Context, name string, dimensions int) error {
	stmt := `
		INSERT INTO collection (name, dimensions)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := d.db.ExecContext(ctx, stmt, name, dimensions); err != nil {
		return errors.Wrapf(err, "failed to create collection %s", name)
	}
	return nil
}

func (d *DB) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	stmt := `SELECT EXISTS(SELECT 1 FROM collection WHERE name = ` + placeholder(1) + `)`
	if err := d.db.QueryRowContext(ctx, stmt, name).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "failed to check collection %s", name)
	}
	return exists, nil
}

// UpsertPoints inserts or replaces points in a collection.
func (d *DB) UpsertPoints(ctx context.Context, collection string, points []*store.Point) error {
	stmt := `
		INSERT INTO point (collection, id, embedding, kind, content, page, source, image_path, topic, summary, full_answer, ts)
		VALUES (` + placeholders(12) + `)
		ON CONFLICT (collection, id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			kind = EXCLUDED.kind,
			content = EXCLUDED.content,
			page = EXCLUDED.page,
			source = EXCLUDED.source,
			image_path = EXCLUDED.image_path,
			topic = EXCLUDED.topic,
			summary = EXCLUDED.summary,
			full_answer = EXCLUDED.full_answer,
			ts = EXCLUDED.ts
	`

	for _, point := range points {
		p := point.Payload
		_, err := d.db.ExecContext(ctx, stmt,
			collection,
			point.ID,
			pgvector.NewVector(point.Vector),
			string(p.Kind),
			p.Content,
			p.Page,
			p.Source,
			p.ImagePath,
			p.Topic,
			p.Summary,
			p.FullAnswer,
			p.Timestamp,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to upsert point %s", point.ID)
		}
	}
	return nil
}

// SearchPoints performs vector similarity search using pgvector.
// The <=> operator computes cosine distance, so ordering by it ascending
// returns the most similar points first.
func (d *DB) SearchPoints(ctx context.Context, collection string, vector []float32, limit int, filter *store.PointFilter) ([]*store.ScoredPoint, error) {
	if limit <= 0 {
		limit = 10
	}

	where, args := []string{"collection = " + placeholder(1)}, []any{collection}
	if filter != nil && filter.Kind != nil {
		where = append(where, "kind = "+placeholder(len(args)+1))
		args = append(args, string(*filter.Kind))
	}

	v := pgvector.NewVector(vector)
	scoreArg := placeholder(len(args) + 1)
	orderArg := placeholder(len(args) + 2)
	limitArg := placeholder(len(args) + 3)
	args = append(args, v, v, limit)

	query := `
		SELECT id, kind, content, page, source, image_path, topic, summary, full_answer, ts,
			1 - (embedding <=> ` + scoreArg + `) AS score
		FROM point
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + orderArg + `
		LIMIT ` + limitArg

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search points")
	}
	defer rows.Close()

	results := []*store.ScoredPoint{}
	for rows.Next() {
		var sp store.ScoredPoint
		var kind string
		err := rows.Scan(
			&sp.ID,
			&kind,
			&sp.Payload.Content,
			&sp.Payload.Page,
			&sp.Payload.Source,
			&sp.Payload.ImagePath,
			&sp.Payload.Topic,
			&sp.Payload.Summary,
			&sp.Payload.FullAnswer,
			&sp.Payload.Timestamp,
			&sp.Score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		sp.Payload.Kind = store.Kind(kind)
		results = append(results, &sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScrollPoints lists points without a query vector. limit <= 0 means no limit.
func (d *DB) ScrollPoints(ctx context.Context, collection string, limit int, filter *store.PointFilter) ([]*store.Point, error) {
	where, args := []string{"collection = " + placeholder(1)}, []any{collection}
	if filter != nil && filter.Kind != nil {
		where = append(where, "kind = "+placeholder(len(args)+1))
		args = append(args, string(*filter.Kind))
	}

	query := `
		SELECT id, kind, content, page, source, image_path, topic, summary, full_answer, ts
		FROM point
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ts DESC, id
	`
	if limit > 0 {
		query += ` LIMIT ` + placeholder(len(args)+1)
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scroll points")
	}
	defer rows.Close()

	list := []*store.Point{}
	for rows.Next() {
		var point store.Point
		var kind string
		err := rows.Scan(
			&point.ID,
			&kind,
			&point.Payload.Content,
			&point.Payload.Page,
			&point.Payload.Source,
			&point.Payload.ImagePath,
			&point.Payload.Topic,
			&point.Payload.Summary,
			&point.Payload.FullAnswer,
			&point.Payload.Timestamp,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan point")
		}
		point.Payload.Kind = store.Kind(kind)
		list = append(list, &point)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// DeletePoint removes a point by id. Returns false when the id does not exist.
func (d *DB) DeletePoint(ctx context.Context, collection string, id string) (bool, error) {
	stmt := `DELETE FROM point WHERE collection = ` + placeholder(1) + ` AND id = ` + placeholder(2)
	result, err := d.db.ExecContext(ctx, stmt, collection, id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete point %s", id)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = placeholder(i + 1)
	}
	return strings.Join(list, ", ")
}
