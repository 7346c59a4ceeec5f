package lesson

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/edustack/mentora/plugin/websearch"
	"github.com/edustack/mentora/store"
)

const (
	textSearchLimit  = 5
	imageSearchLimit = 2
	maxBundleImages  = 3
	maxContextRunes  = 3000
)

// ErrNotInitialized indicates the embedding service or vector store handle is missing.
var ErrNotInitialized = errors.New("retrieval is not initialized")

// ErrCollectionMissing indicates the knowledge collection has not been ingested.
var ErrCollectionMissing = errors.New("knowledge collection does not exist, run ingestion first")

// Embedder encodes a query into the shared vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the slice of the vector store the retriever needs.
type VectorSearcher interface {
	SearchPoints(ctx context.Context, collection string, vector []float32, limit int, filter *store.PointFilter) ([]*store.ScoredPoint, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
}

// ImageSearcher finds diagrams on the web when local search comes up short.
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string) ([]websearch.Image, error)
}

// Retriever executes the tiered search that assembles a context bundle:
// text passages, then local diagram images, then a web-image fallback.
// Every stage is fault-isolated; a failing stage degrades to an empty result.
type Retriever struct {
	embedder   Embedder
	vectors    VectorSearcher
	webImages  ImageSearcher // optional
	collection string
}

// NewRetriever creates a retriever over the knowledge collection.
// webImages may be nil to disable the web fallback.
func NewRetriever(embedder Embedder, vectors VectorSearcher, webImages ImageSearcher) *Retriever {
	return &Retriever{
		embedder:   embedder,
		vectors:    vectors,
		webImages:  webImages,
		collection: store.KnowledgeCollection,
	}
}

// Ready checks the retrieval preconditions: initialized collaborators and an
// ingested knowledge collection.
func (r *Retriever) Ready(ctx context.Context) error {
	if r.embedder == nil || r.vectors == nil {
		return ErrNotInitialized
	}
	exists, err := r.vectors.CollectionExists(ctx, r.collection)
	if err != nil {
		return errors.Wrap(err, "failed to check knowledge collection")
	}
	if !exists {
		return ErrCollectionMissing
	}
	return nil
}

// Retrieve assembles the context bundle for a query. It never returns an
// error: stage failures are recorded on the bundle and treated as empty
// results, and an empty text result is replaced by the context sentinel.
func (r *Retriever) Retrieve(ctx context.Context, query string) *Bundle {
	bundle := &Bundle{}

	if err := r.Ready(ctx); err != nil {
		bundle.Stages = append(bundle.Stages, StageStatus{Stage: "readiness", State: StageFatal, Reason: err.Error()})
		bundle.ContextText = ContextSentinel
		return bundle
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("retrieval: query embedding failed", "error", err)
		bundle.degrade("embed", err)
		bundle.ContextText = ContextSentinel
		return bundle
	}
	bundle.ok("embed")

	bundle.ContextText = r.searchText(ctx, bundle, vector)
	bundle.Images = r.searchImages(ctx, bundle, vector)

	if len(bundle.Images) < imageSearchLimit && r.webImages != nil {
		bundle.Images = r.searchWebImages(ctx, bundle, query, bundle.Images)
	}

	return bundle
}

func (r *Retriever) searchText(ctx context.Context, bundle *Bundle, vector []float32) string {
	results, err := r.vectors.SearchPoints(ctx, r.collection, vector, textSearchLimit, store.FilterByKind(store.KindText))
	if err != nil {
		slog.Warn("retrieval: text search failed", "error", err)
		bundle.degrade("text_search", err)
		return ContextSentinel
	}
	bundle.ok("text_search")

	var sb []byte
	for _, result := range results {
		if result.Payload.Content == "" {
			continue
		}
		if len(sb) > 0 {
			sb = append(sb, "\n\n"...)
		}
		sb = append(sb, result.Payload.Content...)
	}
	if len(sb) == 0 {
		return ContextSentinel
	}
	return truncateRunes(string(sb), maxContextRunes)
}

func (r *Retriever) searchImages(ctx context.Context, bundle *Bundle, vector []float32) []Image {
	results, err := r.vectors.SearchPoints(ctx, r.collection, vector, imageSearchLimit, store.FilterByKind(store.KindImage))
	if err != nil {
		slog.Warn("retrieval: image search failed", "error", err)
		bundle.degrade("image_search", err)
		return nil
	}
	bundle.ok("image_search")

	images := make([]Image, 0, imageSearchLimit)
	seen := map[string]bool{}
	for _, result := range results {
		path := result.Payload.ImagePath
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		images = append(images, Image{Path: path, Description: result.Payload.Content})
	}
	return images
}

func (r *Retriever) searchWebImages(ctx context.Context, bundle *Bundle, query string, images []Image) []Image {
	results, err := r.webImages.SearchImages(ctx, query+" scientific diagram labeled")
	if err != nil {
		slog.Warn("retrieval: web image fallback failed", "error", err)
		bundle.degrade("web_image_search", err)
		return images
	}
	bundle.ok("web_image_search")

	seen := map[string]bool{}
	for _, image := range images {
		seen[image.Path] = true
	}
	for _, result := range results {
		if len(images) >= maxBundleImages {
			break
		}
		if result.Path == "" || seen[result.Path] {
			continue
		}
		seen[result.Path] = true
		images = append(images, Image{Path: result.Path, Description: result.Description})
	}
	return images
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
