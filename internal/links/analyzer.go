package links

import (
	"context"
	"fmt"
	"math"

	"github.com/amansearch/amansearch/internal/store"
)

// Analyzer computes link-graph analytics over one or more configured
// sources sharing a single metadata/vector store.
type Analyzer struct {
	metadata store.MetadataStore
	vector   store.VectorStore
}

// NewAnalyzer builds an Analyzer over the given stores.
func NewAnalyzer(metadata store.MetadataStore, vector store.VectorStore) *Analyzer {
	return &Analyzer{metadata: metadata, vector: vector}
}

// fileChunks lists every store.File and its chunks for one source.
type fileChunks struct {
	file   *store.File
	chunks []*store.Chunk
}

// collectSource loads every indexed file and its chunks for one source id.
func (a *Analyzer) collectSource(ctx context.Context, sourceID string) ([]fileChunks, error) {
	paths, err := a.metadata.GetFilePathsByProject(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list files for source %q: %w", sourceID, err)
	}

	result := make([]fileChunks, 0, len(paths))
	for _, p := range paths {
		f, err := a.metadata.GetFileByPath(ctx, sourceID, p)
		if err != nil || f == nil {
			continue
		}
		chunks, err := a.metadata.GetChunksByFile(ctx, f.ID)
		if err != nil {
			continue
		}
		result = append(result, fileChunks{file: f, chunks: chunks})
	}
	return result, nil
}

// collectSources loads every indexed file and its chunks across several
// sources, matching the spec's "union of all files across sources".
func (a *Analyzer) collectSources(ctx context.Context, sourceIDs []string) ([]fileChunks, error) {
	var all []fileChunks
	for _, id := range sourceIDs {
		fc, err := a.collectSource(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, fc...)
	}
	return all, nil
}

// embeddingsFor resolves vectors for a set of chunk ids from the metadata
// store's embedding table. The vector store itself has no get-by-id
// accessor, so this is the only path to a specific chunk's vector -
// the same one the indexer uses when rebuilding the HNSW graph.
func (a *Analyzer) embeddingsFor(ctx context.Context, ids []string) (map[string][]float32, error) {
	all, err := a.metadata.GetAllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[string][]float32, len(ids))
	for id, vec := range all {
		if _, ok := want[id]; ok {
			out[id] = vec
		}
	}
	return out, nil
}

// centroid returns the L2-normalized mean of a set of vectors.
func centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dims := len(vectors[0])
	sum := make([]float64, dims)
	for _, v := range vectors {
		for i, val := range v {
			if i < dims {
				sum[i] += float64(val)
			}
		}
	}
	n := float64(len(vectors))
	mean := make([]float32, dims)
	for i := range sum {
		mean[i] = float32(sum[i] / n)
	}
	return normalize(mean)
}

// normalize returns v scaled to unit length; the zero vector is returned
// unchanged.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}

// cosineSimilarity assumes both vectors are already unit-length, so it
// reduces to a dot product.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
