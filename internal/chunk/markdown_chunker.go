package chunk

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MarkdownChunkerOptions configures the markdown chunker behavior.
type MarkdownChunkerOptions struct {
	TargetChunkTokens int // T: adjacent same-section chunks merge up toward this size (default: DefaultTargetChunkTokens)
	MaxChunkTokens    int // M: a segment exceeding this is subdivided (default: DefaultMaxChunkTokens)
	MinChunkTokens    int // m: chunks below this merge into a sibling (default: MinChunkTokens)
}

// MarkdownChunker implements header-based Markdown chunking: atomic
// regions are protected, content is segmented by ATX header, oversized
// segments are progressively subdivided by paragraph then sentence then
// word, and undersized neighbors are merged back together.
type MarkdownChunker struct {
	options MarkdownChunkerOptions
}

// Regex patterns for markdown parsing.
var (
	// Matches headers: # Title, ## Title, etc.
	headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

	// Matches frontmatter: ---\n...\n---
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)

	// Matches fenced code blocks (including metadata)
	codeBlockPattern = regexp.MustCompile("(?s)```[^`]*```")

	// Matches MDX self-closing components: <Component ... />
	mdxSelfClosingPattern = regexp.MustCompile(`<[A-Z][a-zA-Z0-9]*[^>]*/\s*>`)

	// Matches tables (header row with |)
	tablePattern = regexp.MustCompile(`(?m)^\|.+\|$(\n^\|[-:|]+\|$)?(\n^\|.+\|$)*`)

	// Matches sentence boundaries: terminal punctuation followed by whitespace.
	sentenceBoundaryPattern = regexp.MustCompile(`[.?!]\s+`)
)

// sentenceAbbreviations lists the lowercase word (without trailing period)
// that precedes a "." which should NOT be treated as a sentence boundary.
var sentenceAbbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"vs": true, "etc": true, "e.g": true, "i.e": true, "fig": true,
	"st": true, "inc": true, "ltd": true, "jr": true, "sr": true,
	"al": true, "no": true, "approx": true,
}

// NewMarkdownChunker creates a new markdown chunker with default options.
func NewMarkdownChunker() *MarkdownChunker {
	return NewMarkdownChunkerWithOptions(MarkdownChunkerOptions{})
}

// NewMarkdownChunkerWithOptions creates a new markdown chunker with custom options.
func NewMarkdownChunkerWithOptions(opts MarkdownChunkerOptions) *MarkdownChunker {
	if opts.TargetChunkTokens == 0 {
		opts.TargetChunkTokens = DefaultTargetChunkTokens
	}
	if opts.MaxChunkTokens == 0 {
		opts.MaxChunkTokens = DefaultMaxChunkTokens
	}
	if opts.MinChunkTokens == 0 {
		opts.MinChunkTokens = MinChunkTokens
	}
	return &MarkdownChunker{options: opts}
}

// Close releases chunker resources. MarkdownChunker is stateless, so this
// is a no-op; it exists so Chunker implementations are interchangeable
// behind the optional Closer interface.
func (c *MarkdownChunker) Close() {}

// SupportedExtensions returns file extensions this chunker handles.
func (c *MarkdownChunker) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdx", ".txt"}
}

// Chunk splits a markdown file into semantic chunks: header segmentation,
// then progressive subdivision of oversized segments, then a merge pass
// that folds undersized siblings back together.
func (c *MarkdownChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	rawContent := string(file.Content)
	if strings.TrimSpace(rawContent) == "" {
		return nil, nil
	}

	yamlBody, content := SplitFrontmatter(rawContent)
	baseLineOffset := strings.Count(rawContent, "\n") - strings.Count(content, "\n")
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	// Tags and outbound links are extracted once from the whole file (frontmatter
	// tags plus every inline #tag/[[link]] occurrence) and attached to every
	// chunk produced from that file, per the metadata extractor's file-scoped
	// design.
	fileTags := MergeTags(ExtractFrontmatterTags(yamlBody), ExtractInlineTags(content))
	fileLinks := ExtractOutboundLinks(content)
	title := NoteTitle(file.Path)
	folder := FolderOf(file.Path)

	sections := c.parseSections(content)

	var segments []*rawSegment
	for _, sec := range sections {
		segments = append(segments, c.subdivideSection(sec, baseLineOffset)...)
	}
	segments = c.mergeSegments(segments)

	now := time.Now()
	chunks := make([]*Chunk, 0, len(segments))
	for i, seg := range segments {
		ch := c.buildChunk(file, seg, i, now)
		ch.Tags = fileTags
		ch.OutboundLinks = fileLinks
		ch.NoteTitle = title
		ch.Folder = folder
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// section is a header-delimited span of raw markdown text.
type section struct {
	headerLevel int
	headerPath  string // "/"-joined ancestor header titles, including this section's own header
	content     string
	startLine   int // 0-indexed line within the (frontmatter-stripped) content
}

// rawSegment is a chunk-sized piece of text still awaiting the merge pass.
type rawSegment struct {
	headerPath  string
	headerLevel int
	text        string
	startLine   int
	endLine     int
}

// parseSections splits content into header-delimited sections, tracking
// the ancestor header path per the ATX hierarchy. Content preceding the
// first header (or an entirely headerless document) becomes one section
// with an empty header path.
func (c *MarkdownChunker) parseSections(content string) []*section {
	lines := strings.Split(content, "\n")
	var sections []*section
	headerStack := make([]string, 6)

	var current *section
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.content = body.String()
			sections = append(sections, current)
			body.Reset()
		}
	}

	for lineNum, line := range lines {
		if match := headerPattern.FindStringSubmatch(line); match != nil {
			flush()

			level := len(match[1])
			title := strings.TrimSpace(match[2])

			headerStack[level-1] = title
			for i := level; i < 6; i++ {
				headerStack[i] = ""
			}

			var pathParts []string
			for i := 0; i < level; i++ {
				if headerStack[i] != "" {
					pathParts = append(pathParts, headerStack[i])
				}
			}

			current = &section{
				headerLevel: level,
				headerPath:  strings.Join(pathParts, "/"),
				startLine:   lineNum,
			}
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		if current == nil {
			current = &section{headerLevel: 0, headerPath: "", startLine: lineNum}
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// subdivideSection turns one header section into one or more raw segments,
// subdividing when the section exceeds the configured maximum.
func (c *MarkdownChunker) subdivideSection(sec *section, baseLineOffset int) []*rawSegment {
	content := strings.TrimRight(sec.content, "\n")
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	// A section containing only its own header line (no body) carries nothing to retrieve.
	if sec.headerLevel > 0 {
		bodyLines := strings.Split(trimmed, "\n")
		if len(bodyLines) <= 1 && headerPattern.MatchString(trimmed) {
			return nil
		}
	}

	startLine := baseLineOffset + sec.startLine + 1 // 1-indexed
	pieces := c.chunkText(content, c.options.MaxChunkTokens)

	segments := make([]*rawSegment, 0, len(pieces))
	lineCursor := startLine
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines := strings.Count(p, "\n") + 1
		segments = append(segments, &rawSegment{
			headerPath:  sec.headerPath,
			headerLevel: sec.headerLevel,
			text:        p,
			startLine:   lineCursor,
			endLine:     lineCursor + lines - 1,
		})
		lineCursor += lines
	}
	return segments
}

// chunkText recursively subdivides text so that every returned piece fits
// within limit tokens, preferring the largest unit that still fits:
// paragraphs, then sentences, then words. Atomic regions (code fences,
// tables, MDX components) are never split, even when they alone exceed
// limit; they are returned whole as an oversized piece.
func (c *MarkdownChunker) chunkText(text string, limit int) []string {
	if estimateTokens(text) <= limit {
		return []string{text}
	}

	pieces, joiner, ok := c.splitOnce(text)
	if !ok {
		// Unsplittable (a single atomic region, or a single word) - emit
		// oversized rather than cut it.
		return []string{text}
	}

	var result []string
	var buf []string
	bufTokens := 0
	flush := func() {
		if len(buf) > 0 {
			result = append(result, strings.Join(buf, joiner))
			buf = nil
			bufTokens = 0
		}
	}
	for _, p := range pieces {
		pt := estimateTokens(p)
		if pt > limit {
			flush()
			result = append(result, c.chunkText(p, limit)...)
			continue
		}
		if bufTokens+pt > limit && len(buf) > 0 {
			flush()
		}
		buf = append(buf, p)
		bufTokens += pt
	}
	flush()
	return result
}

// splitOnce splits text at the coarsest available granularity: paragraph
// boundaries, then sentence boundaries, then whitespace. It reports ok=false
// when text is a single atomic region or otherwise cannot be split further.
func (c *MarkdownChunker) splitOnce(text string) (pieces []string, joiner string, ok bool) {
	if c.isAtomicWhole(text) {
		return nil, "", false
	}

	atomicBlocks := c.findAtomicBlocks(text)
	paras := c.splitByParagraphs(text, atomicBlocks)
	if len(paras) > 1 {
		return paras, "\n\n", true
	}

	sentences := splitSentences(text)
	if len(sentences) > 1 {
		return sentences, " ", true
	}

	words := strings.Fields(text)
	if len(words) > 1 {
		return words, " ", true
	}

	return nil, "", false
}

// isAtomicWhole reports whether text, once trimmed, is entirely one atomic
// region (a single code fence, table, or MDX component) with nothing else.
func (c *MarkdownChunker) isAtomicWhole(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, block := range c.findAtomicBlocks(text) {
		if strings.TrimSpace(text[block[0]:block[1]]) == trimmed {
			return true
		}
	}
	return false
}

// splitSentences splits text on terminal punctuation followed by
// whitespace, skipping boundaries that follow a known abbreviation.
func splitSentences(text string) []string {
	idxs := sentenceBoundaryPattern.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}

	var sentences []string
	last := 0
	for _, idx := range idxs {
		punctEnd := idx[0] + 1 // position right after the terminal punctuation
		candidate := text[last:punctEnd]
		if isAbbreviation(candidate) {
			continue
		}
		if s := strings.TrimSpace(candidate); s != "" {
			sentences = append(sentences, s)
		}
		last = idx[1]
	}
	if last < len(text) {
		if s := strings.TrimSpace(text[last:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// isAbbreviation reports whether candidate ends in a word this chunker
// treats as an abbreviation, so the preceding "." is not a sentence end.
func isAbbreviation(candidate string) bool {
	word := strings.TrimSuffix(strings.TrimSpace(candidate), ".")
	fields := strings.Fields(word)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(fields[len(fields)-1])
	return sentenceAbbreviations[last]
}

// findAtomicBlocks finds positions of blocks that shouldn't be split.
func (c *MarkdownChunker) findAtomicBlocks(content string) [][]int {
	var blocks [][]int
	blocks = append(blocks, codeBlockPattern.FindAllStringIndex(content, -1)...)
	blocks = append(blocks, tablePattern.FindAllStringIndex(content, -1)...)
	blocks = append(blocks, mdxSelfClosingPattern.FindAllStringIndex(content, -1)...)
	blocks = append(blocks, c.findMDXBlockComponents(content)...)
	return blocks
}

// findMDXBlockComponents finds MDX block components without backreferences.
func (c *MarkdownChunker) findMDXBlockComponents(content string) [][]int {
	var locs [][]int

	openTagPattern := regexp.MustCompile(`<([A-Z][a-zA-Z0-9]*)[^/>]*>`)
	matches := openTagPattern.FindAllStringSubmatchIndex(content, -1)

	for _, match := range matches {
		if len(match) >= 4 {
			tagName := content[match[2]:match[3]]
			closeTag := "</" + tagName + ">"
			startPos := match[0]

			closePos := strings.Index(content[match[1]:], closeTag)
			if closePos != -1 {
				endPos := match[1] + closePos + len(closeTag)
				locs = append(locs, []int{startPos, endPos})
			}
		}
	}

	return locs
}

// splitByParagraphs splits content by blank lines while preserving atomic blocks.
func (c *MarkdownChunker) splitByParagraphs(content string, atomicBlocks [][]int) []string {
	parts := strings.Split(content, "\n\n")

	var paragraphs []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	return c.mergeAtomicBlocks(paragraphs)
}

// mergeAtomicBlocks merges paragraphs that are fragments of one atomic
// (fenced code) block split apart by the blank-line paragraph split.
func (c *MarkdownChunker) mergeAtomicBlocks(paragraphs []string) []string {
	var result []string
	var inCodeBlock bool
	var codeBlockBuilder strings.Builder

	for _, para := range paragraphs {
		if inCodeBlock {
			codeBlockBuilder.WriteString("\n\n")
			codeBlockBuilder.WriteString(para)
			if strings.Contains(para, "```") {
				result = append(result, codeBlockBuilder.String())
				codeBlockBuilder.Reset()
				inCodeBlock = false
			}
			continue
		}

		openCount := strings.Count(para, "```")
		if openCount > 0 && openCount%2 == 1 {
			inCodeBlock = true
			codeBlockBuilder.WriteString(para)
			continue
		}

		result = append(result, para)
	}

	if inCodeBlock {
		result = append(result, codeBlockBuilder.String())
	}

	return result
}

// mergeSegments folds adjacent same-section segments together up to the
// target size, then folds any segment still under the minimum into a
// same-section sibling.
func (c *MarkdownChunker) mergeSegments(segments []*rawSegment) []*rawSegment {
	if len(segments) <= 1 {
		return segments
	}

	target := make([]*rawSegment, 0, len(segments))
	for _, s := range segments {
		if len(target) > 0 {
			last := target[len(target)-1]
			if last.headerPath == s.headerPath &&
				estimateTokens(last.text)+estimateTokens(s.text) <= c.options.TargetChunkTokens {
				last.text = last.text + "\n\n" + s.text
				last.endLine = s.endLine
				continue
			}
		}
		clone := *s
		target = append(target, &clone)
	}
	if len(target) <= 1 {
		return target
	}

	final := make([]*rawSegment, 0, len(target))
	for i := 0; i < len(target); i++ {
		s := target[i]
		if estimateTokens(s.text) < c.options.MinChunkTokens {
			if i+1 < len(target) && target[i+1].headerPath == s.headerPath {
				target[i+1].text = s.text + "\n\n" + target[i+1].text
				target[i+1].startLine = s.startLine
				continue
			}
			if len(final) > 0 && final[len(final)-1].headerPath == s.headerPath {
				final[len(final)-1].text = final[len(final)-1].text + "\n\n" + s.text
				final[len(final)-1].endLine = s.endLine
				continue
			}
		}
		final = append(final, s)
	}
	return final
}

// buildChunk converts a merged segment into a Chunk record.
func (c *MarkdownChunker) buildChunk(file *FileInput, seg *rawSegment, index int, now time.Time) *Chunk {
	content := strings.TrimSpace(seg.text)
	return &Chunk{
		ID:            generateChunkID(file.Path, strconv.Itoa(index)+"::"+content),
		FilePath:      file.Path,
		Content:       content,
		RawContent:    content,
		ContentType:   ContentTypeMarkdown,
		Language:      "markdown",
		StartLine:     seg.startLine,
		EndLine:       seg.endLine,
		ChunkIndex:    index,
		HeaderContext: seg.headerPath,
		TokenCount:    estimateTokens(content),
		Metadata: map[string]string{
			"header_path":  seg.headerPath,
			"header_level": strconv.Itoa(seg.headerLevel),
			"chunk_index":  strconv.Itoa(index),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
