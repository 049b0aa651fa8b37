package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/amansearch/amansearch/internal/chunk"
	"github.com/amansearch/amansearch/internal/index"
	"github.com/amansearch/amansearch/internal/search"
	"github.com/amansearch/amansearch/internal/ui"
)

// mcpSemanticSearchHandler is the MCP SDK handler for the semantic_search
// tool. Tags filtering is exact-set-membership with AND semantics: every
// requested tag must be present on a result's chunk, per the corpus's
// tag-filter design decision. The underlying engine only supports a single
// substring match, so tags are applied here as a post-filter over an
// over-fetched result set.
func (s *Server) mcpSemanticSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SemanticSearchInput) (
	*mcp.CallToolResult,
	SemanticSearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, SemanticSearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	nResults := input.NResults
	if nResults <= 0 {
		nResults = 5
	}

	fetchLimit := nResults
	if len(input.Tags) > 0 {
		fetchLimit = nResults * 4
		if fetchLimit < 50 {
			fetchLimit = 50
		}
	}

	opts := search.SearchOptions{
		Limit:    fetchLimit,
		Folder:   input.Folder,
		SourceID: input.Source,
	}

	results, err := s.engine.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SemanticSearchOutput{}, MapError(err)
	}

	output := SemanticSearchOutput{Results: make([]SearchResultOutput, 0, nResults)}
	for _, r := range results {
		if r.Chunk == nil {
			continue
		}
		if !hasAllTags(r.Chunk.Tags, input.Tags) {
			continue
		}
		output.Results = append(output.Results, ToSearchResultOutput(r))
		if len(output.Results) >= nResults {
			break
		}
	}

	return nil, output, nil
}

// hasAllTags reports whether every tag in want is present in have.
func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// mcpReindexVaultHandler is the MCP SDK handler for the reindex_vault tool.
// It runs the same Runner used by 'amansearch index' across every
// configured source; content-addressable chunk ids mean unchanged files
// are naturally skipped whether or not Force is set - Force exists so a
// caller can force a full rebuild after, say, changing chunking config.
func (s *Server) mcpReindexVaultHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReindexVaultInput) (
	*mcp.CallToolResult,
	ReindexVaultOutput,
	error,
) {
	if s.vector == nil || s.bm25 == nil {
		return nil, ReindexVaultOutput{}, NewInvalidParamsError("reindex_vault requires the server to be started with vector and BM25 stores configured")
	}

	renderer := ui.NewRenderer(ui.NewConfig(io.Discard, ui.WithForcePlain(true), ui.WithProjectDir(s.rootPath)))
	if err := renderer.Start(ctx); err != nil {
		s.logger.Warn("reindex_vault renderer failed to start", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: renderer,
		Config:   s.config,
		Metadata: s.metadata,
		BM25:     s.bm25,
		Vector:   s.vector,
		Embedder: s.embedder,
		Chunker:  chunk.NewMarkdownChunker(),
	})
	if err != nil {
		return nil, ReindexVaultOutput{}, MapError(err)
	}
	defer func() { _ = runner.Close() }()

	if input.Force {
		for _, src := range s.sources {
			if err := s.metadata.DeleteFilesByProject(ctx, src.ID); err != nil {
				s.logger.Warn("reindex_vault: failed to clear source before rebuild",
					slog.String("source", src.ID), slog.String("error", err.Error()))
			}
		}
	}

	result, err := runner.Run(ctx, index.RunnerConfig{
		RootDir: s.rootPath,
		DataDir: s.dataDir,
		Sources: s.sources,
	})
	if err != nil {
		return nil, ReindexVaultOutput{Success: false, Errors: []string{err.Error()}}, nil
	}

	return nil, ReindexVaultOutput{
		Success:         result.Errors == 0,
		NotesProcessed:  result.Files,
		ChunksCreated:   result.Chunks,
		DurationSeconds: result.Duration.Seconds(),
	}, nil
}

// mcpGetIndexStatsHandler is the MCP SDK handler for the get_index_stats tool.
func (s *Server) mcpGetIndexStatsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ GetIndexStatsInput) (
	*mcp.CallToolResult,
	GetIndexStatsOutput,
	error,
) {
	stats := s.engine.Stats()

	output := GetIndexStatsOutput{
		VaultPath: s.rootPath,
		DataDir:   s.dataDir,
	}
	if stats != nil {
		if stats.BM25Stats != nil {
			output.TotalFiles = stats.BM25Stats.DocumentCount
		}
		output.TotalChunks = stats.VectorCount
	}
	if s.embedder != nil {
		output.EmbeddingModel = s.embedder.ModelName()
	} else {
		output.EmbeddingModel = "none"
	}
	if s.vector != nil {
		output.VectorBackend = "hnsw"
	}

	return nil, output, nil
}
