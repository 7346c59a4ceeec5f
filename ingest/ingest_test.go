package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/edustack/mentora/store"
)

type countingEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.failOn != "" && text == c.failOn {
		return nil, errors.New("embedding rejected")
	}
	return []float32{0.1, 0.2}, nil
}

func (c *countingEmbedder) Dimensions() int { return 2 }

type capturingWriter struct {
	mu          sync.Mutex
	collections []string
	points      []*store.Point
	upsertErr   error
}

func (c *capturingWriter) CreateCollection(ctx context.Context, name string, dimensions int) error {
	c.collections = append(c.collections, name)
	return nil
}

func (c *capturingWriter) UpsertPoints(ctx context.Context, collection string, points []*store.Point) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, points...)
	return nil
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `{
		"passages": [{"content": "Cells divide.", "page": 3, "source": "bio.pdf"}],
		"images": [{"path": "figures/mitosis.png", "description": "Stages of mitosis"}]
	}`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Passages, 1)
	require.Len(t, manifest.Images, 1)
	require.Equal(t, 3, manifest.Passages[0].Page)
}

func TestLoadManifestRejectsEmpty(t *testing.T) {
	path := writeManifest(t, `{"passages": [], "images": []}`)
	_, err := LoadManifest(path)
	require.Error(t, err)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = LoadManifest(writeManifest(t, `not json`))
	require.Error(t, err)
}

func TestRunWritesAllPoints(t *testing.T) {
	embedder := &countingEmbedder{}
	writer := &capturingWriter{}
	ingester := NewIngester(embedder, writer)

	manifest := &Manifest{
		Passages: []Passage{
			{Content: "Cells divide."},
			{Content: "Mitosis has phases."},
			{Content: ""}, // skipped
		},
		Images: []ImageEntry{
			{Path: "figures/mitosis.png", Description: "Stages of mitosis"},
			{Path: "figures/broken.png"}, // skipped, no description
		},
	}

	written, err := ingester.Run(context.Background(), manifest)
	require.NoError(t, err)
	require.Equal(t, 3, written)
	require.Equal(t, []string{store.KnowledgeCollection}, writer.collections)
	require.Len(t, writer.points, 3)
	require.Equal(t, 3, embedder.calls)

	kinds := map[store.Kind]int{}
	for _, point := range writer.points {
		require.NotEmpty(t, point.ID)
		require.NoError(t, point.Payload.Validate())
		kinds[point.Payload.Kind]++
	}
	require.Equal(t, 2, kinds[store.KindText])
	require.Equal(t, 1, kinds[store.KindImage])
}

func TestRunAbortsOnEmbedFailure(t *testing.T) {
	embedder := &countingEmbedder{failOn: "Mitosis has phases."}
	writer := &capturingWriter{}
	ingester := NewIngester(embedder, writer)

	manifest := &Manifest{
		Passages: []Passage{
			{Content: "Cells divide."},
			{Content: "Mitosis has phases."},
		},
	}

	_, err := ingester.Run(context.Background(), manifest)
	require.Error(t, err)
	require.Empty(t, writer.points)
}

func TestRunBatchesLargeManifests(t *testing.T) {
	embedder := &countingEmbedder{}
	writer := &capturingWriter{}
	ingester := NewIngester(embedder, writer)

	manifest := &Manifest{}
	for range upsertBatchSize + 5 {
		manifest.Passages = append(manifest.Passages, Passage{Content: "A passage."})
	}

	written, err := ingester.Run(context.Background(), manifest)
	require.NoError(t, err)
	require.Equal(t, upsertBatchSize+5, written)
	require.Len(t, writer.points, upsertBatchSize+5)
}
