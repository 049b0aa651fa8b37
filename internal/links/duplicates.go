package links

import (
	"context"
	"fmt"
)

const defaultDuplicateThreshold = 0.95

// GetDuplicateContent finds pairs of files whose chunk centroids are
// near-identical. Complexity is O(N^2) in files, acceptable up to the
// low-tens-of-thousands scale this corpus targets.
func (a *Analyzer) GetDuplicateContent(ctx context.Context, sourceIDs []string, threshold float64) ([]DuplicatePair, error) {
	if threshold <= 0 {
		threshold = defaultDuplicateThreshold
	}

	files, err := a.collectSources(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	type centroidEntry struct {
		path     string
		centroid []float32
	}
	entries := make([]centroidEntry, 0, len(files))

	for _, fc := range files {
		if len(fc.chunks) == 0 {
			continue
		}
		ids := make([]string, len(fc.chunks))
		for i, c := range fc.chunks {
			ids[i] = c.ID
		}
		vecs, err := a.embeddingsFor(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("embeddings for %q: %w", fc.file.Path, err)
		}
		if len(vecs) == 0 {
			continue
		}
		ordered := make([][]float32, 0, len(vecs))
		for _, id := range ids {
			if v, ok := vecs[id]; ok {
				ordered = append(ordered, v)
			}
		}
		c := centroid(ordered)
		if c == nil {
			continue
		}
		entries = append(entries, centroidEntry{path: fc.file.Path, centroid: c})
	}

	var pairs []DuplicatePair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			sim := cosineSimilarity(entries[i].centroid, entries[j].centroid)
			if sim >= threshold {
				pairs = append(pairs, DuplicatePair{
					PathA:      entries[i].path,
					PathB:      entries[j].path,
					Similarity: sim,
				})
			}
		}
	}
	return pairs, nil
}
