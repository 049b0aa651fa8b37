package mcp

// SearchCodeInput defines the input schema for the search_code tool.
type SearchCodeInput struct {
	Query      string   `json:"query" jsonschema:"the code search query to execute"`
	Language   string   `json:"language,omitempty" jsonschema:"filter by programming language (go, typescript, python)"`
	SymbolType string   `json:"symbol_type,omitempty" jsonschema:"filter by symbol type: function, class, interface, type, method, or any"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope      []string `json:"scope,omitempty" jsonschema:"filter by path prefixes (OR logic)"`
}

// SearchDocsInput defines the input schema for the search_docs tool.
type SearchDocsInput struct {
	Query    string   `json:"query" jsonschema:"the documentation search query to execute"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope    []string `json:"scope,omitempty" jsonschema:"filter by path prefixes (OR logic)"`
	SourceID string   `json:"source_id,omitempty" jsonschema:"restrict results to a single named source"`
	Folder   string   `json:"folder,omitempty" jsonschema:"restrict results to notes in this exact folder"`
	Tags     string   `json:"tags,omitempty" jsonschema:"restrict results to notes tagged with this tag"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Project    ProjectInfo       `json:"project"`
	Stats      IndexStats        `json:"stats"`
	Embeddings EmbeddingInfo     `json:"embeddings"`
	Indexing   *IndexingProgress `json:"indexing,omitempty"` // Present during background indexing
}

// IndexingProgress contains information about ongoing background indexing.
type IndexingProgress struct {
	Status         string  `json:"status"`                     // "indexing", "ready", or "error"
	Stage          string  `json:"stage,omitempty"`            // "scanning", "chunking", "embedding", "indexing"
	FilesTotal     int     `json:"files_total"`                // Total files to process
	FilesProcessed int     `json:"files_processed"`            // Files processed so far
	ChunksIndexed  int     `json:"chunks_indexed"`             // Chunks indexed so far
	ProgressPct    float64 `json:"progress_pct"`               // Progress percentage (0-100)
	ElapsedSeconds int     `json:"elapsed_seconds"`            // Time since indexing started
	ErrorMessage   string  `json:"error_message,omitempty"`    // Error message if status is "error"
}

// ProjectInfo contains information about the indexed project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Type     string `json:"type"`
}

// IndexStats contains statistics about the index.
type IndexStats struct {
	FileCount      int    `json:"file_count"`
	ChunkCount     int    `json:"chunk_count"`
	IndexSizeBytes int64  `json:"index_size_bytes"`
	LastIndexed    string `json:"last_indexed"`
}

// EmbeddingInfo contains information about the embedding configuration.
type EmbeddingInfo struct {
	// Config values
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Status   string `json:"status"`

	// Runtime state - allows AI clients to adjust search strategy
	ActualProvider   string `json:"actual_provider"`    // "hugot" or "static"
	ActualModel      string `json:"actual_model"`       // e.g., "embeddinggemma-300m" or "static"
	Dimensions       int    `json:"dimensions"`         // 768 (hugot) or 256 (static)
	IsFallbackActive bool   `json:"is_fallback_active"` // true if using static fallback
	SemanticQuality  string `json:"semantic_quality"`   // "high" (hugot) or "low" (static)
}

// SemanticSearchInput defines the input schema for the semantic_search tool.
type SemanticSearchInput struct {
	Query     string   `json:"query" jsonschema:"the search query to execute"`
	NResults  int      `json:"n_results,omitempty" jsonschema:"maximum number of results, default 5"`
	Folder    string   `json:"folder,omitempty" jsonschema:"restrict results to notes in this exact folder"`
	Tags      []string `json:"tags,omitempty" jsonschema:"restrict results to notes carrying every one of these tags"`
	Source    string   `json:"source,omitempty" jsonschema:"restrict results to a single named source"`
}

// SemanticSearchOutput defines the output schema for the semantic_search tool.
type SemanticSearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of matching chunks ranked by relevance"`
}

// ReindexVaultInput defines the input schema for the reindex_vault tool.
type ReindexVaultInput struct {
	Force bool `json:"force,omitempty" jsonschema:"rebuild every file from scratch instead of skipping unchanged content"`
}

// ReindexVaultOutput defines the output schema for the reindex_vault tool.
type ReindexVaultOutput struct {
	Success         bool     `json:"success"`
	NotesProcessed  int      `json:"notes_processed"`
	NotesSkipped    int      `json:"notes_skipped"`
	ChunksCreated   int      `json:"chunks_created"`
	DurationSeconds float64  `json:"duration_seconds"`
	Errors          []string `json:"errors,omitempty"`
}

// IndexNoteInput defines the input schema for the index_note tool.
type IndexNoteInput struct {
	NotePath string `json:"note_path" jsonschema:"path to the note, relative to the source root"`
	Source   string `json:"source,omitempty" jsonschema:"which configured source note_path is relative to; defaults to the only source when unambiguous"`
}

// IndexNoteOutput defines the output schema for the index_note tool.
type IndexNoteOutput struct {
	Success       bool   `json:"success"`
	File          string `json:"file"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// GetIndexStatsInput defines the input schema for the get_index_stats tool (no parameters).
type GetIndexStatsInput struct{}

// GetIndexStatsOutput defines the output schema for the get_index_stats tool.
type GetIndexStatsOutput struct {
	TotalChunks    int    `json:"total_chunks"`
	TotalFiles     int    `json:"total_files"`
	VaultPath      string `json:"vault_path"`
	DataDir        string `json:"data_dir"`
	EmbeddingModel string `json:"embedding_model"`
	VectorBackend  string `json:"vector_backend"`
}

// GetVaultStatisticsInput defines the input schema for the get_vault_statistics tool (no parameters).
type GetVaultStatisticsInput struct{}

// GetVaultStatisticsOutput defines the output schema for the get_vault_statistics tool.
type GetVaultStatisticsOutput struct {
	TotalFiles      int       `json:"total_files"`
	TotalChunks     int       `json:"total_chunks"`
	TotalLinks      int       `json:"total_links"`
	UniqueLinks     int       `json:"unique_links"`
	TotalTags       int       `json:"total_tags"`
	UniqueTags      int       `json:"unique_tags"`
	MostLinkedNotes []LinkCountOutput `json:"most_linked_notes"`
	MostUsedTags    []TagCountOutput  `json:"most_used_tags"`
	VaultPath       string    `json:"vault_path"`
	EmbeddingModel  string    `json:"embedding_model"`
}

// LinkCountOutput is one entry in a most-linked-notes ranking.
type LinkCountOutput struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// TagCountOutput is one entry in a most-used-tags ranking.
type TagCountOutput struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SuggestLinksInput defines the input schema for the suggest_links tool.
type SuggestLinksInput struct {
	NotePath       string   `json:"note_path" jsonschema:"path to the note to find link suggestions for"`
	NSuggestions   int      `json:"n_suggestions,omitempty" jsonschema:"maximum number of suggestions, default 5"`
	MinSimilarity  float64  `json:"min_similarity,omitempty" jsonschema:"minimum combined similarity score, default 0.5"`
	ExcludeCurrent bool     `json:"exclude_current,omitempty" jsonschema:"exclude notes the note already links to, default true"`
	Source         string   `json:"source,omitempty" jsonschema:"which configured source note_path is relative to"`
}

// SuggestLinksOutput defines the output schema for the suggest_links tool.
type SuggestLinksOutput struct {
	Suggestions []LinkSuggestionOutput `json:"suggestions"`
}

// LinkSuggestionOutput is one candidate link target returned by suggest_links.
type LinkSuggestionOutput struct {
	FilePath       string  `json:"file_path"`
	NoteTitle      string  `json:"note_title"`
	Similarity     float64 `json:"similarity"`
	Reason         string  `json:"reason"`
	SuggestedLink  string  `json:"suggested_link"`
}

// ReadNoteInput defines the input schema for the read_note tool.
type ReadNoteInput struct {
	NotePath string `json:"note_path" jsonschema:"path to the note, relative to the source root"`
	Source   string `json:"source,omitempty" jsonschema:"which configured source note_path is relative to"`
}

// ReadNoteOutput defines the output schema for the read_note tool.
type ReadNoteOutput struct {
	Success  bool         `json:"success"`
	FilePath string       `json:"file_path"`
	Content  string       `json:"content"`
	Metadata NoteMetadata `json:"metadata"`
}

// NoteMetadata is the metadata breakdown returned alongside a note's content.
type NoteMetadata struct {
	NoteTitle       string   `json:"note_title"`
	Folder          string   `json:"folder"`
	Tags            []string `json:"tags"`
	FrontmatterTags []string `json:"frontmatter_tags"`
	InlineTags      []string `json:"inline_tags"`
	Wikilinks       []string `json:"wikilinks"`
	SizeBytes       int64    `json:"size_bytes"`
	LastModified    string   `json:"last_modified"`
}

// WriteNoteInput defines the input schema for the write_note tool.
type WriteNoteInput struct {
	NotePath   string `json:"note_path" jsonschema:"path to the note, relative to the source root"`
	Content    string `json:"content" jsonschema:"full content to write"`
	CreateDirs bool   `json:"create_dirs,omitempty" jsonschema:"create missing parent directories, default true"`
	Source     string `json:"source,omitempty" jsonschema:"which configured source note_path is relative to"`
}

// WriteNoteOutput defines the output schema for the write_note tool.
type WriteNoteOutput struct {
	Success       bool   `json:"success"`
	FilePath      string `json:"file_path"`
	WasCreated    bool   `json:"was_created"`
	SizeBytes     int64  `json:"size_bytes"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// AppendToNoteInput defines the input schema for the append_to_note tool.
type AppendToNoteInput struct {
	NotePath string `json:"note_path" jsonschema:"path to an existing note, relative to the source root"`
	Content  string `json:"content" jsonschema:"content to append"`
	Source   string `json:"source,omitempty" jsonschema:"which configured source note_path is relative to"`
}

// AppendToNoteOutput defines the output schema for the append_to_note tool.
type AppendToNoteOutput struct {
	Success       bool   `json:"success"`
	FilePath      string `json:"file_path"`
	SizeBytes     int64  `json:"size_bytes"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// DeleteNoteInput defines the input schema for the delete_note tool.
type DeleteNoteInput struct {
	NotePath string `json:"note_path" jsonschema:"path to the note, relative to the source root"`
	Source   string `json:"source,omitempty" jsonschema:"which configured source note_path is relative to"`
}

// DeleteNoteOutput defines the output schema for the delete_note tool.
type DeleteNoteOutput struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path"`
	Deleted  bool   `json:"deleted"`
}

// SearchNotesInput defines the input schema for the search_notes tool.
type SearchNotesInput struct {
	Pattern    string `json:"pattern" jsonschema:"case-insensitive regular expression matched against note paths"`
	RootPath   string `json:"root_path,omitempty" jsonschema:"restrict the search to this subdirectory of the source"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of paths to return, default 50"`
	Source     string `json:"source,omitempty" jsonschema:"which configured source to search"`
}

// SearchNotesOutput defines the output schema for the search_notes tool.
type SearchNotesOutput struct {
	Paths []string `json:"paths"`
}

// GetVaultStructureInput defines the input schema for the get_vault_structure tool.
type GetVaultStructureInput struct {
	RootPath string `json:"root_path,omitempty" jsonschema:"restrict the tree to this subdirectory of the source"`
	Depth    int    `json:"depth,omitempty" jsonschema:"maximum directory depth to descend, default 2"`
	Source   string `json:"source,omitempty" jsonschema:"which configured source to walk"`
}

// GetVaultStructureOutput defines the output schema for the get_vault_structure tool.
type GetVaultStructureOutput struct {
	Structure *VaultTreeNode `json:"structure"`
}

// VaultTreeNode is one directory or file entry in a get_vault_structure tree.
type VaultTreeNode struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"` // "directory" or "file"
	Children []VaultTreeNode `json:"children,omitempty"`
}

// GetOrphanedNotesInput defines the input schema for the get_orphaned_notes tool.
type GetOrphanedNotesInput struct {
	Source string `json:"source,omitempty" jsonschema:"restrict the search to a single named source; defaults to all configured sources"`
}

// GetOrphanedNotesOutput defines the output schema for the get_orphaned_notes tool.
type GetOrphanedNotesOutput struct {
	OrphanedNotes []OrphanedNoteOutput `json:"orphaned_notes"`
}

// OrphanedNoteOutput is one note with no inbound wiki-links.
type OrphanedNoteOutput struct {
	FilePath  string `json:"file_path"`
	NoteTitle string `json:"note_title"`
}

// GetMostLinkedNotesInput defines the input schema for the get_most_linked_notes tool.
type GetMostLinkedNotesInput struct {
	NResults int    `json:"n_results,omitempty" jsonschema:"maximum number of notes to return, default 10"`
	Source   string `json:"source,omitempty" jsonschema:"restrict the ranking to a single named source; defaults to all configured sources"`
}

// GetMostLinkedNotesOutput defines the output schema for the get_most_linked_notes tool.
type GetMostLinkedNotesOutput struct {
	Notes []LinkCountOutput `json:"notes"`
}

// GetDuplicateContentInput defines the input schema for the get_duplicate_content tool.
type GetDuplicateContentInput struct {
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" jsonschema:"minimum centroid cosine similarity to report, default 0.95"`
	Source              string  `json:"source,omitempty" jsonschema:"restrict the comparison to a single named source; defaults to all configured sources"`
}

// GetDuplicateContentOutput defines the output schema for the get_duplicate_content tool.
type GetDuplicateContentOutput struct {
	Duplicates []DuplicatePairOutput `json:"duplicates"`
}

// DuplicatePairOutput is one pair of near-identical files.
type DuplicatePairOutput struct {
	FileA      string  `json:"file_a"`
	FileB      string  `json:"file_b"`
	Similarity float64 `json:"similarity"`
}
