// Package ingest loads pre-chunked study material from a JSON manifest,
// embeds it, and upserts it into the knowledge collection.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/edustack/mentora/store"
)

const (
	embedConcurrency = 4
	upsertBatchSize  = 64
)

// Passage is one pre-chunked text passage from the manifest.
type Passage struct {
	Content string `json:"content"`
	Page    int    `json:"page,omitempty"`
	Source  string `json:"source,omitempty"`
}

// ImageEntry is one diagram reference from the manifest. The description is
// what gets embedded; the path is served back to students.
type ImageEntry struct {
	Path        string `json:"path"`
	Description string `json:"description"`
	Page        int    `json:"page,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Manifest is the ingestion input file.
type Manifest struct {
	Passages []Passage    `json:"passages"`
	Images   []ImageEntry `json:"images"`
}

// Embedder encodes manifest entries into the shared vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// PointWriter is the slice of the vector store ingestion needs.
type PointWriter interface {
	CreateCollection(ctx context.Context, name string, dimensions int) error
	UpsertPoints(ctx context.Context, collection string, points []*store.Point) error
}

// Ingester embeds and stores manifest content.
type Ingester struct {
	embedder Embedder
	writer   PointWriter
}

func NewIngester(embedder Embedder, writer PointWriter) *Ingester {
	return &Ingester{embedder: embedder, writer: writer}
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(manifest.Passages) == 0 && len(manifest.Images) == 0 {
		return nil, fmt.Errorf("manifest %s contains no passages or images", path)
	}
	return &manifest, nil
}

// Run creates the knowledge collection if needed, embeds every manifest entry
// with bounded concurrency, and upserts the points in batches. It returns the
// number of points written.
func (i *Ingester) Run(ctx context.Context, manifest *Manifest) (int, error) {
	if err := i.writer.CreateCollection(ctx, store.KnowledgeCollection, i.embedder.Dimensions()); err != nil {
		return 0, fmt.Errorf("failed to create knowledge collection: %w", err)
	}

	points, err := i.embedAll(ctx, manifest)
	if err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		if err := i.writer.UpsertPoints(ctx, store.KnowledgeCollection, points[start:end]); err != nil {
			return written, fmt.Errorf("failed to upsert batch at %d: %w", start, err)
		}
		written += end - start
	}

	slog.Info("ingestion complete", "passages", len(manifest.Passages), "images", len(manifest.Images), "points", written)
	return written, nil
}

// embedAll embeds every entry, at most embedConcurrency at a time. The first
// embedding failure aborts the run.
func (i *Ingester) embedAll(ctx context.Context, manifest *Manifest) ([]*store.Point, error) {
	type job struct {
		text    string
		payload store.Payload
	}

	jobs := make([]job, 0, len(manifest.Passages)+len(manifest.Images))
	for _, passage := range manifest.Passages {
		if passage.Content == "" {
			continue
		}
		jobs = append(jobs, job{
			text: passage.Content,
			payload: store.Payload{
				Kind:    store.KindText,
				Content: passage.Content,
				Page:    passage.Page,
				Source:  passage.Source,
			},
		})
	}
	for _, image := range manifest.Images {
		if image.Path == "" || image.Description == "" {
			slog.Warn("ingestion: skipping incomplete image entry", "path", image.Path)
			continue
		}
		jobs = append(jobs, job{
			text: image.Description,
			payload: store.Payload{
				Kind:      store.KindImage,
				Content:   image.Description,
				ImagePath: image.Path,
				Page:      image.Page,
				Source:    image.Source,
			},
		})
	}

	sem := semaphore.NewWeighted(embedConcurrency)
	points := make([]*store.Point, len(jobs))
	errCh := make(chan error, len(jobs))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	spawned := 0
	for idx, j := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		spawned++
		go func(idx int, j job) {
			defer sem.Release(1)
			vector, err := i.embedder.Embed(ctx, j.text)
			if err != nil {
				errCh <- fmt.Errorf("failed to embed entry %d: %w", idx, err)
				cancel()
				return
			}
			points[idx] = &store.Point{
				ID:      uuid.NewString(),
				Vector:  vector,
				Payload: j.payload,
			}
			errCh <- nil
		}(idx, j)
	}

	var firstErr error
	for range spawned {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if spawned < len(jobs) {
		return nil, ctx.Err()
	}
	return points, nil
}
