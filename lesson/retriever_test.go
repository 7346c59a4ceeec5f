package lesson

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/edustack/mentora/plugin/websearch"
	"github.com/edustack/mentora/store"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeVectorStore struct {
	exists    bool
	existsErr error
	texts     []*store.ScoredPoint
	images    []*store.ScoredPoint
	searchErr error
}

func (f *fakeVectorStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeVectorStore) SearchPoints(ctx context.Context, collection string, vector []float32, limit int, filter *store.PointFilter) ([]*store.ScoredPoint, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if filter != nil && filter.Kind != nil && *filter.Kind == store.KindImage {
		return f.images, nil
	}
	return f.texts, nil
}

type fakeWebImages struct {
	results []websearch.Image
	err     error
	calls   int
}

func (f *fakeWebImages) SearchImages(ctx context.Context, query string) ([]websearch.Image, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func textPoint(content string) *store.ScoredPoint {
	return &store.ScoredPoint{Point: store.Point{Payload: store.Payload{Kind: store.KindText, Content: content}}}
}

func imagePoint(path, description string) *store.ScoredPoint {
	return &store.ScoredPoint{Point: store.Point{Payload: store.Payload{Kind: store.KindImage, Content: description, ImagePath: path}}}
}

func TestRetrieveJoinsPassages(t *testing.T) {
	vectors := &fakeVectorStore{
		exists: true,
		texts:  []*store.ScoredPoint{textPoint("Cells divide."), textPoint("Mitosis has phases.")},
	}
	r := NewRetriever(&fakeEmbedder{}, vectors, nil)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Equal(t, "Cells divide.\n\nMitosis has phases.", bundle.ContextText)
	require.False(t, bundle.Degraded())
}

func TestRetrieveEmptyResultsYieldSentinel(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeVectorStore{exists: true}, nil)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Equal(t, ContextSentinel, bundle.ContextText)
	require.False(t, bundle.Degraded())
}

func TestRetrieveEmbedFailureDegrades(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("embedding service down")}, &fakeVectorStore{exists: true}, nil)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Equal(t, ContextSentinel, bundle.ContextText)
	require.True(t, bundle.Degraded())
	require.Empty(t, bundle.Images)
}

func TestRetrieveSearchFailureDegrades(t *testing.T) {
	vectors := &fakeVectorStore{exists: true, searchErr: errors.New("store down")}
	r := NewRetriever(&fakeEmbedder{}, vectors, nil)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Equal(t, ContextSentinel, bundle.ContextText)
	require.True(t, bundle.Degraded())
	require.False(t, bundle.Fatal())
}

func TestRetrieveMissingCollectionIsFatal(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeVectorStore{exists: false}, nil)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.True(t, bundle.Fatal())
	require.Equal(t, ContextSentinel, bundle.ContextText)
}

func TestRetrieveContextTruncated(t *testing.T) {
	vectors := &fakeVectorStore{
		exists: true,
		texts:  []*store.ScoredPoint{textPoint(strings.Repeat("x", 4000))},
	}
	r := NewRetriever(&fakeEmbedder{}, vectors, nil)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Len(t, []rune(bundle.ContextText), maxContextRunes)
}

func TestRetrieveLocalImagesSkipWebFallback(t *testing.T) {
	web := &fakeWebImages{results: []websearch.Image{{Path: "http://web/1.png"}}}
	vectors := &fakeVectorStore{
		exists: true,
		images: []*store.ScoredPoint{
			imagePoint("local/a.png", "diagram a"),
			imagePoint("local/b.png", "diagram b"),
		},
	}
	r := NewRetriever(&fakeEmbedder{}, vectors, web)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Len(t, bundle.Images, 2)
	require.Equal(t, 0, web.calls, "web fallback must not run when local search is sufficient")
}

func TestRetrieveWebFallbackTopsUpToThree(t *testing.T) {
	web := &fakeWebImages{results: []websearch.Image{
		{Path: "http://web/1.png", Description: "web 1"},
		{Path: "http://web/2.png", Description: "web 2"},
		{Path: "http://web/3.png", Description: "web 3"},
	}}
	vectors := &fakeVectorStore{
		exists: true,
		images: []*store.ScoredPoint{imagePoint("local/a.png", "diagram a")},
	}
	r := NewRetriever(&fakeEmbedder{}, vectors, web)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Len(t, bundle.Images, maxBundleImages)
	require.Equal(t, "local/a.png", bundle.Images[0].Path)
	require.Equal(t, 1, web.calls)
}

func TestRetrieveImagesDeduplicated(t *testing.T) {
	web := &fakeWebImages{results: []websearch.Image{{Path: "local/a.png"}, {Path: "http://web/1.png"}}}
	vectors := &fakeVectorStore{
		exists: true,
		images: []*store.ScoredPoint{
			imagePoint("local/a.png", "diagram a"),
			imagePoint("local/a.png", "duplicate"),
		},
	}
	r := NewRetriever(&fakeEmbedder{}, vectors, web)

	bundle := r.Retrieve(context.Background(), "mitosis")
	seen := map[string]bool{}
	for _, image := range bundle.Images {
		if seen[image.Path] {
			t.Errorf("duplicate image path %q", image.Path)
		}
		seen[image.Path] = true
	}
}

func TestRetrieveWebFallbackFailureKeepsLocalImages(t *testing.T) {
	web := &fakeWebImages{err: fmt.Errorf("rate limited")}
	vectors := &fakeVectorStore{
		exists: true,
		images: []*store.ScoredPoint{imagePoint("local/a.png", "diagram a")},
	}
	r := NewRetriever(&fakeEmbedder{}, vectors, web)

	bundle := r.Retrieve(context.Background(), "mitosis")
	require.Len(t, bundle.Images, 1)
	require.True(t, bundle.Degraded())
}

func TestReady(t *testing.T) {
	r := NewRetriever(nil, &fakeVectorStore{exists: true}, nil)
	require.ErrorIs(t, r.Ready(context.Background()), ErrNotInitialized)

	r = NewRetriever(&fakeEmbedder{}, &fakeVectorStore{exists: false}, nil)
	require.ErrorIs(t, r.Ready(context.Background()), ErrCollectionMissing)

	r = NewRetriever(&fakeEmbedder{}, &fakeVectorStore{exists: true}, nil)
	require.NoError(t, r.Ready(context.Background()))
}
