package links

import (
	"context"
	"sort"
)

// GetOrphanedNotes returns every file across sourceIDs whose title (filename
// without extension) never appears as the target of an [[outbound link]]
// anywhere in the corpus.
func (a *Analyzer) GetOrphanedNotes(ctx context.Context, sourceIDs []string) ([]string, error) {
	files, err := a.collectSources(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	linkedTitles := make(map[string]bool)
	for _, fc := range files {
		for _, c := range fc.chunks {
			for _, title := range c.OutboundLinks {
				linkedTitles[title] = true
			}
		}
	}

	var orphans []string
	for _, fc := range files {
		title := fc.file.Path
		if len(fc.chunks) > 0 {
			title = fc.chunks[0].NoteTitle
		}
		if !linkedTitles[title] {
			orphans = append(orphans, fc.file.Path)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

// GetMostLinkedNotes ranks target titles by how many chunks across the
// corpus reference them via [[outbound links]], descending by count.
func (a *Analyzer) GetMostLinkedNotes(ctx context.Context, sourceIDs []string, n int) ([]LinkedNote, error) {
	files, err := a.collectSources(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, fc := range files {
		for _, c := range fc.chunks {
			for _, title := range c.OutboundLinks {
				counts[title]++
			}
		}
	}

	ranked := make([]LinkedNote, 0, len(counts))
	for title, count := range counts {
		ranked = append(ranked, LinkedNote{Title: title, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Title < ranked[j].Title
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
