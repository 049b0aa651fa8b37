package links

import (
	"context"
	"sort"
)

const defaultMostLinkedForStats = 10
const defaultMostUsedTags = 10

// VaultStatistics scans metadata only (no vector payloads) to produce a
// broad summary of the indexed corpus: file/chunk counts, the size of the
// link graph, tag usage, and the same in-degree ranking GetMostLinkedNotes
// produces. It is a cheaper, broader companion to a per-file index-stats
// call - useful when a caller wants a vault-wide overview rather than a
// single file's status.
func (a *Analyzer) VaultStatistics(ctx context.Context, sourceIDs []string) (*VaultStatistics, error) {
	files, err := a.collectSources(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	stats := &VaultStatistics{TotalFiles: len(files)}

	linkCounts := make(map[string]int)
	tagCounts := make(map[string]int)
	uniqueLinks := make(map[string]struct{})
	uniqueTags := make(map[string]struct{})

	for _, fc := range files {
		stats.TotalChunks += len(fc.chunks)
		for _, c := range fc.chunks {
			for _, title := range c.OutboundLinks {
				linkCounts[title]++
				uniqueLinks[title] = struct{}{}
				stats.TotalLinks++
			}
			for _, tag := range c.Tags {
				tagCounts[tag]++
				uniqueTags[tag] = struct{}{}
				stats.TotalTags++
			}
		}
	}
	stats.UniqueLinks = len(uniqueLinks)
	stats.UniqueTags = len(uniqueTags)

	ranked := make([]LinkedNote, 0, len(linkCounts))
	for title, count := range linkCounts {
		ranked = append(ranked, LinkedNote{Title: title, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Title < ranked[j].Title
	})
	if len(ranked) > defaultMostLinkedForStats {
		ranked = ranked[:defaultMostLinkedForStats]
	}
	stats.MostLinkedNotes = ranked

	tags := make([]TagCount, 0, len(tagCounts))
	for tag, count := range tagCounts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > defaultMostUsedTags {
		tags = tags[:defaultMostUsedTags]
	}
	stats.MostUsedTags = tags

	return stats, nil
}
