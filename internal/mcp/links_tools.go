package mcp

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/amansearch/amansearch/internal/apperrors"
	"github.com/amansearch/amansearch/internal/chunk"
	"github.com/amansearch/amansearch/internal/links"
)

// requireLinks returns the shared link Analyzer or an error if the server
// was built without a vector store (analytics need embeddings).
func (s *Server) requireLinks() (*links.Analyzer, error) {
	if s.links == nil {
		return nil, apperrors.InternalError("link analytics unavailable: no vector store configured", nil)
	}
	return s.links, nil
}

// sourceScope resolves the set of source ids a link-analytics call should
// run over: the named source if given, otherwise every configured source.
func (s *Server) sourceScope(source string) []string {
	if source != "" {
		return []string{source}
	}
	return s.sourceIDs()
}

// mcpSuggestLinksHandler is the MCP SDK handler for the suggest_links tool.
func (s *Server) mcpSuggestLinksHandler(ctx context.Context, _ *mcp.CallToolRequest, input SuggestLinksInput) (
	*mcp.CallToolResult,
	SuggestLinksOutput,
	error,
) {
	analyzer, err := s.requireLinks()
	if err != nil {
		return nil, SuggestLinksOutput{}, MapError(err)
	}
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, SuggestLinksOutput{}, NewInvalidParamsError(err.Error())
	}

	var currentLinks []string
	if absPath, err := resolveNotePath(src.Path, input.NotePath); err == nil {
		if raw, err := os.ReadFile(absPath); err == nil {
			_, body := chunk.SplitFrontmatter(string(raw))
			currentLinks = chunk.ExtractOutboundLinks(body)
		}
	}

	n := input.NSuggestions
	if n <= 0 {
		n = 5
	}
	minSimilarity := input.MinSimilarity
	if minSimilarity <= 0 {
		minSimilarity = 0.5
	}
	opts := links.SuggestOptions{
		N:              n,
		MinSimilarity:  minSimilarity,
		ExcludeCurrent: input.ExcludeCurrent,
	}

	suggestions, err := analyzer.SuggestLinks(ctx, src.ID, input.NotePath, currentLinks, opts)
	if err != nil {
		return nil, SuggestLinksOutput{}, MapError(apperrors.NotFound(err.Error(), err))
	}

	output := SuggestLinksOutput{Suggestions: make([]LinkSuggestionOutput, 0, len(suggestions))}
	for _, sug := range suggestions {
		output.Suggestions = append(output.Suggestions, LinkSuggestionOutput{
			FilePath:      sug.TargetPath,
			NoteTitle:     sug.TargetTitle,
			Similarity:    sug.Score,
			Reason:        sug.Reason,
			SuggestedLink: "[[" + sug.TargetTitle + "]]",
		})
	}
	return nil, output, nil
}

// mcpGetVaultStatisticsHandler is the MCP SDK handler for the
// get_vault_statistics tool.
func (s *Server) mcpGetVaultStatisticsHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetVaultStatisticsInput) (
	*mcp.CallToolResult,
	GetVaultStatisticsOutput,
	error,
) {
	analyzer, err := s.requireLinks()
	if err != nil {
		return nil, GetVaultStatisticsOutput{}, MapError(err)
	}

	stats, err := analyzer.VaultStatistics(ctx, s.sourceIDs())
	if err != nil {
		return nil, GetVaultStatisticsOutput{}, MapError(apperrors.InternalError("failed to compute vault statistics", err))
	}

	output := GetVaultStatisticsOutput{
		TotalFiles:  stats.TotalFiles,
		TotalChunks: stats.TotalChunks,
		TotalLinks:  stats.TotalLinks,
		UniqueLinks: stats.UniqueLinks,
		TotalTags:   stats.TotalTags,
		UniqueTags:  stats.UniqueTags,
		VaultPath:   s.rootPath,
	}
	if s.embedder != nil {
		output.EmbeddingModel = s.embedder.ModelName()
	}
	for _, n := range stats.MostLinkedNotes {
		output.MostLinkedNotes = append(output.MostLinkedNotes, LinkCountOutput{Title: n.Title, Count: n.Count})
	}
	for _, t := range stats.MostUsedTags {
		output.MostUsedTags = append(output.MostUsedTags, TagCountOutput{Tag: t.Tag, Count: t.Count})
	}
	return nil, output, nil
}

// mcpGetOrphanedNotesHandler is the MCP SDK handler for the
// get_orphaned_notes tool.
func (s *Server) mcpGetOrphanedNotesHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetOrphanedNotesInput) (
	*mcp.CallToolResult,
	GetOrphanedNotesOutput,
	error,
) {
	analyzer, err := s.requireLinks()
	if err != nil {
		return nil, GetOrphanedNotesOutput{}, MapError(err)
	}

	paths, err := analyzer.GetOrphanedNotes(ctx, s.sourceScope(input.Source))
	if err != nil {
		return nil, GetOrphanedNotesOutput{}, MapError(apperrors.InternalError("failed to compute orphaned notes", err))
	}

	output := GetOrphanedNotesOutput{OrphanedNotes: make([]OrphanedNoteOutput, 0, len(paths))}
	for _, p := range paths {
		output.OrphanedNotes = append(output.OrphanedNotes, OrphanedNoteOutput{
			FilePath:  p,
			NoteTitle: chunk.NoteTitle(p),
		})
	}
	return nil, output, nil
}

// mcpGetMostLinkedNotesHandler is the MCP SDK handler for the
// get_most_linked_notes tool.
func (s *Server) mcpGetMostLinkedNotesHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetMostLinkedNotesInput) (
	*mcp.CallToolResult,
	GetMostLinkedNotesOutput,
	error,
) {
	analyzer, err := s.requireLinks()
	if err != nil {
		return nil, GetMostLinkedNotesOutput{}, MapError(err)
	}

	n := input.NResults
	if n <= 0 {
		n = 10
	}
	ranked, err := analyzer.GetMostLinkedNotes(ctx, s.sourceScope(input.Source), n)
	if err != nil {
		return nil, GetMostLinkedNotesOutput{}, MapError(apperrors.InternalError("failed to rank most-linked notes", err))
	}

	output := GetMostLinkedNotesOutput{Notes: make([]LinkCountOutput, 0, len(ranked))}
	for _, r := range ranked {
		output.Notes = append(output.Notes, LinkCountOutput{Title: r.Title, Count: r.Count})
	}
	return nil, output, nil
}

// mcpGetDuplicateContentHandler is the MCP SDK handler for the
// get_duplicate_content tool.
func (s *Server) mcpGetDuplicateContentHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetDuplicateContentInput) (
	*mcp.CallToolResult,
	GetDuplicateContentOutput,
	error,
) {
	analyzer, err := s.requireLinks()
	if err != nil {
		return nil, GetDuplicateContentOutput{}, MapError(err)
	}

	threshold := input.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.95
	}
	pairs, err := analyzer.GetDuplicateContent(ctx, s.sourceScope(input.Source), threshold)
	if err != nil {
		return nil, GetDuplicateContentOutput{}, MapError(apperrors.InternalError("failed to compute duplicate content", err))
	}

	output := GetDuplicateContentOutput{Duplicates: make([]DuplicatePairOutput, 0, len(pairs))}
	for _, p := range pairs {
		output.Duplicates = append(output.Duplicates, DuplicatePairOutput{
			FileA:      p.PathA,
			FileB:      p.PathB,
			Similarity: p.Similarity,
		})
	}
	return nil, output, nil
}
