package chunk

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Matches inline #tag occurrences: a hash followed by word characters,
// hyphens, or slashes (nested tags like #project/backend), not preceded by
// a word character so "C#" or a markdown header marker don't match.
var inlineTagPattern = regexp.MustCompile(`(?:^|[^\w#])#([\w][\w\-/]*)`)

// Matches [[Title]], [[Title|alias]], and [[Title#anchor]] wiki-links. The
// captured group is the target note title; anchor and display text are
// discarded.
var wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|#]+)(?:[|#][^\]]+)?\]\]`)

// frontmatterTags holds the subset of parsed YAML frontmatter this package
// cares about.
type frontmatterMeta struct {
	Tags []string `yaml:"tags"`
}

// SplitFrontmatter separates a leading `---`-fenced YAML block from the
// rest of the document. Returns the raw YAML body (without fences) and the
// remaining content; yaml is "" if no frontmatter block is present. Exported
// alongside the tag extractors so callers that need a note's full tag
// breakdown (frontmatter vs. inline) outside the chunker can reuse the same
// parsing rules instead of re-deriving them from stored chunk metadata.
func SplitFrontmatter(content string) (yamlBody, rest string) {
	m := frontmatterPattern.FindStringSubmatchIndex(content)
	if m == nil {
		return "", content
	}
	// group 1 is the YAML body between the fences.
	return content[m[2]:m[3]], content[m[1]:]
}

// ExtractFrontmatterTags parses a `tags:` sequence out of a frontmatter
// YAML block. A malformed or absent block yields no tags, not an error --
// the chunker treats frontmatter as best-effort metadata.
func ExtractFrontmatterTags(yamlBody string) []string {
	if strings.TrimSpace(yamlBody) == "" {
		return nil
	}
	var meta frontmatterMeta
	if err := yaml.Unmarshal([]byte(yamlBody), &meta); err != nil {
		return nil
	}
	return meta.Tags
}

// ExtractInlineTags finds `#tag` occurrences in body text, skipping fenced
// code blocks and tables so language directives (` ```go `) and table
// delimiters never become tags.
func ExtractInlineTags(body string) []string {
	scrubbed := scrubAtomicRegions(body)
	matches := inlineTagPattern.FindAllStringSubmatch(scrubbed, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// scrubAtomicRegions blanks out fenced code blocks and Markdown tables,
// preserving line structure so byte offsets used elsewhere stay valid.
func scrubAtomicRegions(content string) string {
	out := codeBlockPattern.ReplaceAllStringFunc(content, blankKeepingNewlines)
	out = tablePattern.ReplaceAllStringFunc(out, blankKeepingNewlines)
	return out
}

func blankKeepingNewlines(s string) string {
	return strings.Repeat("\n", strings.Count(s, "\n"))
}

// MergeTags unions tag lists, preserving case and first-seen order while
// deduplicating case-sensitively (I6).
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// ExtractOutboundLinks finds [[Title]]-style wiki-links in body text,
// skipping atomic regions, and returns the referenced note titles. Exported
// so callers that need the current on-disk link set (rather than the
// stored, possibly-stale metadata) can reuse the same parsing rules.
func ExtractOutboundLinks(body string) []string {
	scrubbed := scrubAtomicRegions(body)
	matches := wikiLinkPattern.FindAllStringSubmatch(scrubbed, -1)
	seen := make(map[string]struct{})
	var out []string
	for _, m := range matches {
		title := strings.TrimSpace(m[1])
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

// NoteTitle derives the note title from a relative file path: the filename
// without its extension.
func NoteTitle(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FolderOf returns the directory portion of a relative file path, "" at
// the source root.
func FolderOf(relPath string) string {
	dir := filepath.Dir(filepath.ToSlash(relPath))
	if dir == "." {
		return ""
	}
	return dir
}
