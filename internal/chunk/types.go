package chunk

import (
	"context"
	"time"
)

// Chunk size policy, in tokens: target, max, and min per chunk.
const (
	DefaultTargetChunkTokens = 1000 // T: chunks are merged up toward this size
	DefaultMaxChunkTokens    = 2000 // M: a segment exceeding this is subdivided
	MinChunkTokens           = 100  // m: chunks below this are merged into a sibling
	TokensPerChar            = 4    // rough approximation: 4 chars = 1 token
)

// ContentType represents the type of content in a chunk
type ContentType string

const (
	ContentTypeCode     ContentType = "code"
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeText     ContentType = "text"
)

// Chunk is a retrievable unit of content
type Chunk struct {
	ID          string            // SHA256(file_path + start_line)[:16]
	FilePath    string            // Relative to project root
	Content     string            // Full content with context
	RawContent  string            // Just the symbol, no context (code only)
	Context     string            // Imports, package decl (code only)
	ContentType ContentType       // code, markdown, text
	Language    string            // go, typescript, python, etc.
	StartLine   int               // 1-indexed
	EndLine     int               // Inclusive
	Symbols     []*Symbol         // Functions, classes, etc.
	Metadata    map[string]string // Custom metadata

	// Addressing and retrieval metadata for the Markdown/text domain.
	// Populated by MarkdownChunker; a source-file-scoped SourceID/Folder/
	// NoteTitle are filled in by the caller once the owning source is known.
	ChunkIndex    int      // 0-based sequence within the file
	HeaderContext string   // "/"-joined ancestor Markdown headers at this chunk's position
	TokenCount    int      // model-compatible token estimate
	Tags          []string // union of frontmatter tags and inline #tag occurrences, case-preserving, deduplicated
	OutboundLinks []string // referenced note titles parsed from [[wiki-links]]
	SourceID      string   // owning source (vault, current_project, ...)
	Folder        string   // directory portion of FilePath, "" at source root
	NoteTitle     string   // filename without extension

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileInput is input for the Chunker interface
type FileInput struct {
	Path     string // Relative path
	Content  []byte // File content
	Language string // go, typescript, python, etc.
}

// Chunker is the interface for splitting files into chunks
type Chunker interface {
	// Chunk splits a file into semantic chunks
	Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error)

	// SupportedExtensions returns file extensions this chunker handles
	SupportedExtensions() []string
}

// SymbolType represents the kind of code symbol
type SymbolType string

const (
	SymbolTypeFunction  SymbolType = "function"
	SymbolTypeClass     SymbolType = "class"
	SymbolTypeInterface SymbolType = "interface"
	SymbolTypeType      SymbolType = "type"
	SymbolTypeVariable  SymbolType = "variable"
	SymbolTypeConstant  SymbolType = "constant"
	SymbolTypeMethod    SymbolType = "method"
)

// Symbol names a heading or generated-context anchor associated with a
// chunk, used by the contextual enrichment stage to summarize what a
// chunk is about without re-reading its full text.
type Symbol struct {
	Name       string
	Type       SymbolType
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
}
