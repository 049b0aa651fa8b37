package links

import (
	"context"
	"fmt"
	"sort"
)

// SuggestOptions controls SuggestLinks.
type SuggestOptions struct {
	// N is the number of suggestions to return.
	N int
	// MinSimilarity is the minimum combined score a candidate must clear.
	MinSimilarity float64
	// ExcludeCurrent drops candidates already present in CurrentOutboundLinks
	// when true.
	ExcludeCurrent bool
}

const defaultSuggestCandidates = 20

// SuggestLinks recommends notes the file at filePath does not yet link to
// but is semantically close to. currentOutboundLinks is the set of titles
// the caller parsed from the note's live on-disk content (via
// chunk.ExtractOutboundLinks) - the spec requires the disk, not stored
// chunk metadata, be authoritative for what counts as "already linked".
func (a *Analyzer) SuggestLinks(ctx context.Context, sourceID, filePath string, currentOutboundLinks []string, opts SuggestOptions) ([]Suggestion, error) {
	if opts.N <= 0 {
		opts.N = 5
	}

	file, err := a.metadata.GetFileByPath(ctx, sourceID, filePath)
	if err != nil || file == nil {
		return nil, fmt.Errorf("file not indexed: %s", filePath)
	}

	sourceChunks, err := a.metadata.GetChunksByFile(ctx, file.ID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(sourceChunks) == 0 {
		return nil, nil
	}

	sourceIDs := make([]string, len(sourceChunks))
	for i, c := range sourceChunks {
		sourceIDs[i] = c.ID
	}
	vectors, err := a.embeddingsFor(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	linked := make(map[string]bool, len(currentOutboundLinks))
	for _, title := range currentOutboundLinks {
		linked[title] = true
	}

	candidateK := opts.N * 5
	if candidateK < defaultSuggestCandidates {
		candidateK = defaultSuggestCandidates
	}

	type agg struct {
		title    string
		max      float64
		sum      float64
		count    int
		bestSim  float64
		bestHead string
	}
	targets := make(map[string]*agg)

	// Cache resolved chunk metadata to avoid refetching the same target
	// chunk when it surfaces as a neighbor of more than one source chunk.
	chunkCache := make(map[string]*chunkLookupResult)

	for _, c := range sourceChunks {
		vec, ok := vectors[c.ID]
		if !ok {
			continue
		}
		results, err := a.vector.Search(ctx, vec, candidateK)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		for _, r := range results {
			if r.ID == c.ID {
				continue
			}
			target, ok := chunkCache[r.ID]
			if !ok {
				target = a.lookupChunk(ctx, r.ID)
				chunkCache[r.ID] = target
			}
			if target == nil || target.sourceID != sourceID || target.filePath == filePath {
				continue
			}

			sim := float64(r.Score)
			e, ok := targets[target.filePath]
			if !ok {
				e = &agg{title: target.noteTitle}
				targets[target.filePath] = e
			}
			e.sum += sim
			e.count++
			if sim > e.max {
				e.max = sim
				e.bestSim = sim
				e.bestHead = target.headerContext
			}
		}
	}

	suggestions := make([]Suggestion, 0, len(targets))
	for path, e := range targets {
		if opts.ExcludeCurrent && linked[e.title] {
			continue
		}
		mean := e.sum / float64(e.count)
		combined := 0.7*e.max + 0.3*mean
		if combined < opts.MinSimilarity {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			TargetPath:     path,
			TargetTitle:    e.title,
			Score:          combined,
			MaxSimilarity:  e.max,
			MeanSimilarity: mean,
			Reason:         e.bestHead,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > opts.N {
		suggestions = suggestions[:opts.N]
	}
	return suggestions, nil
}

// chunkLookupResult is the subset of a store.Chunk SuggestLinks needs from
// a vector-search hit.
type chunkLookupResult struct {
	sourceID      string
	filePath      string
	noteTitle     string
	headerContext string
}

func (a *Analyzer) lookupChunk(ctx context.Context, id string) *chunkLookupResult {
	c, err := a.metadata.GetChunk(ctx, id)
	if err != nil || c == nil {
		return nil
	}
	return &chunkLookupResult{
		sourceID:      c.SourceID,
		filePath:      c.FilePath,
		noteTitle:     c.NoteTitle,
		headerContext: c.HeaderContext,
	}
}
