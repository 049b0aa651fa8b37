package mcp

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/amansearch/amansearch/internal/apperrors"
	"github.com/amansearch/amansearch/internal/chunk"
)

// resolveNotePath joins notePath onto root and rejects anything that
// escapes root, mirroring the containment check internal/scanner applies
// to subtree scans: resolve to an absolute path and require it stay
// prefixed by the (also absolute) root.
func resolveNotePath(root, notePath string) (string, error) {
	if notePath == "" {
		return "", apperrors.InvalidPath("note_path is required", nil)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", apperrors.IOErr("failed to resolve source root", err)
	}
	candidate := filepath.Join(absRoot, notePath)
	if !strings.HasPrefix(candidate, absRoot+string(filepath.Separator)) && candidate != absRoot {
		return "", apperrors.InvalidPath("note_path escapes the source root: "+notePath, nil)
	}
	return candidate, nil
}

// mcpIndexNoteHandler is the MCP SDK handler for the index_note tool.
func (s *Server) mcpIndexNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input IndexNoteInput) (
	*mcp.CallToolResult,
	IndexNoteOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, IndexNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	coordinator, err := s.coordinatorFor(src.ID)
	if err != nil {
		return nil, IndexNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	if _, err := resolveNotePath(src.Path, input.NotePath); err != nil {
		return nil, IndexNoteOutput{}, MapError(err)
	}

	chunks, err := coordinator.IndexFile(ctx, input.NotePath)
	if err != nil {
		return nil, IndexNoteOutput{Success: false, File: input.NotePath}, MapError(err)
	}
	return nil, IndexNoteOutput{Success: true, File: input.NotePath, ChunksIndexed: chunks}, nil
}

// mcpReadNoteHandler is the MCP SDK handler for the read_note tool. Tags
// and links are parsed live from the file on disk (via the same
// chunk-package extractors the chunker uses) rather than read back from
// stored chunk metadata, so read_note reflects unsaved-but-on-disk edits.
func (s *Server) mcpReadNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReadNoteInput) (
	*mcp.CallToolResult,
	ReadNoteOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, ReadNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	absPath, err := resolveNotePath(src.Path, input.NotePath)
	if err != nil {
		return nil, ReadNoteOutput{}, MapError(err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, ReadNoteOutput{}, MapError(apperrors.NotFound("note not found: "+input.NotePath, err))
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, ReadNoteOutput{}, MapError(apperrors.IOErr("failed to read note: "+input.NotePath, err))
	}

	content := string(raw)
	yamlBody, body := chunk.SplitFrontmatter(content)
	frontmatterTags := chunk.ExtractFrontmatterTags(yamlBody)
	inlineTags := chunk.ExtractInlineTags(body)

	output := ReadNoteOutput{
		Success:  true,
		FilePath: input.NotePath,
		Content:  content,
		Metadata: NoteMetadata{
			NoteTitle:       chunk.NoteTitle(input.NotePath),
			Folder:          chunk.FolderOf(input.NotePath),
			Tags:            chunk.MergeTags(frontmatterTags, inlineTags),
			FrontmatterTags: frontmatterTags,
			InlineTags:      inlineTags,
			Wikilinks:       chunk.ExtractOutboundLinks(body),
			SizeBytes:       info.Size(),
			LastModified:    info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		},
	}
	return nil, output, nil
}

// mcpWriteNoteHandler is the MCP SDK handler for the write_note tool.
func (s *Server) mcpWriteNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input WriteNoteInput) (
	*mcp.CallToolResult,
	WriteNoteOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, WriteNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	coordinator, err := s.coordinatorFor(src.ID)
	if err != nil {
		return nil, WriteNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	absPath, err := resolveNotePath(src.Path, input.NotePath)
	if err != nil {
		return nil, WriteNoteOutput{}, MapError(err)
	}

	_, statErr := os.Stat(absPath)
	wasCreated := statErr != nil

	if wasCreated && input.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, WriteNoteOutput{}, MapError(apperrors.IOErr("failed to create parent directories for: "+input.NotePath, err))
		}
	}
	if err := os.WriteFile(absPath, []byte(input.Content), 0644); err != nil {
		return nil, WriteNoteOutput{}, MapError(apperrors.IOErr("failed to write note: "+input.NotePath, err))
	}

	chunks, err := coordinator.IndexFile(ctx, input.NotePath)
	if err != nil {
		return nil, WriteNoteOutput{}, MapError(err)
	}

	return nil, WriteNoteOutput{
		Success:       true,
		FilePath:      input.NotePath,
		WasCreated:    wasCreated,
		SizeBytes:     int64(len(input.Content)),
		ChunksIndexed: chunks,
	}, nil
}

// mcpAppendToNoteHandler is the MCP SDK handler for the append_to_note tool.
func (s *Server) mcpAppendToNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input AppendToNoteInput) (
	*mcp.CallToolResult,
	AppendToNoteOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, AppendToNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	coordinator, err := s.coordinatorFor(src.ID)
	if err != nil {
		return nil, AppendToNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	absPath, err := resolveNotePath(src.Path, input.NotePath)
	if err != nil {
		return nil, AppendToNoteOutput{}, MapError(err)
	}

	existing, err := os.ReadFile(absPath)
	if err != nil {
		return nil, AppendToNoteOutput{}, MapError(apperrors.NotFound("note not found: "+input.NotePath, err))
	}

	updated := string(existing) + input.Content
	if err := os.WriteFile(absPath, []byte(updated), 0644); err != nil {
		return nil, AppendToNoteOutput{}, MapError(apperrors.IOErr("failed to append to note: "+input.NotePath, err))
	}

	chunks, err := coordinator.IndexFile(ctx, input.NotePath)
	if err != nil {
		return nil, AppendToNoteOutput{}, MapError(err)
	}

	return nil, AppendToNoteOutput{
		Success:       true,
		FilePath:      input.NotePath,
		SizeBytes:     int64(len(updated)),
		ChunksIndexed: chunks,
	}, nil
}

// mcpDeleteNoteHandler is the MCP SDK handler for the delete_note tool. It
// removes the note from the index before deleting it from disk, matching
// the original's ordering so a crash mid-delete never leaves a dangling
// chunk pointing at a file that no longer exists.
func (s *Server) mcpDeleteNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input DeleteNoteInput) (
	*mcp.CallToolResult,
	DeleteNoteOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, DeleteNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	coordinator, err := s.coordinatorFor(src.ID)
	if err != nil {
		return nil, DeleteNoteOutput{}, NewInvalidParamsError(err.Error())
	}
	absPath, err := resolveNotePath(src.Path, input.NotePath)
	if err != nil {
		return nil, DeleteNoteOutput{}, MapError(err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, DeleteNoteOutput{}, MapError(apperrors.NotFound("note not found: "+input.NotePath, err))
	}

	if err := coordinator.RemoveFile(ctx, input.NotePath); err != nil {
		return nil, DeleteNoteOutput{}, MapError(err)
	}
	if err := os.Remove(absPath); err != nil {
		return nil, DeleteNoteOutput{}, MapError(apperrors.IOErr("failed to delete note from disk: "+input.NotePath, err))
	}

	return nil, DeleteNoteOutput{Success: true, FilePath: input.NotePath, Deleted: true}, nil
}

// mcpSearchNotesHandler is the MCP SDK handler for the search_notes tool.
// It matches pattern against note paths relative to the source root, not
// file content - a lightweight complement to semantic_search for callers
// that already know roughly what a path looks like.
func (s *Server) mcpSearchNotesHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchNotesInput) (
	*mcp.CallToolResult,
	SearchNotesOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, SearchNotesOutput{}, NewInvalidParamsError(err.Error())
	}
	re, err := regexp.Compile("(?i)" + input.Pattern)
	if err != nil {
		return nil, SearchNotesOutput{}, NewInvalidParamsError("invalid pattern: " + err.Error())
	}

	walkRoot := src.Path
	if input.RootPath != "" {
		abs, err := resolveNotePath(src.Path, input.RootPath)
		if err != nil {
			return nil, SearchNotesOutput{}, MapError(err)
		}
		walkRoot = abs
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	var paths []string
	_ = filepath.Walk(walkRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || len(paths) >= maxResults {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != walkRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}
		rel, err := filepath.Rel(src.Path, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if re.MatchString(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	sort.Strings(paths)
	if len(paths) > maxResults {
		paths = paths[:maxResults]
	}

	return nil, SearchNotesOutput{Paths: paths}, nil
}

// mcpGetVaultStructureHandler is the MCP SDK handler for the
// get_vault_structure tool. Only Markdown files are included in the tree
// and hidden files/directories are skipped entirely, matching the
// original's directory-listing behavior.
func (s *Server) mcpGetVaultStructureHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetVaultStructureInput) (
	*mcp.CallToolResult,
	GetVaultStructureOutput,
	error,
) {
	src, err := s.resolveSource(input.Source)
	if err != nil {
		return nil, GetVaultStructureOutput{}, NewInvalidParamsError(err.Error())
	}

	walkRoot := src.Path
	if input.RootPath != "" {
		abs, err := resolveNotePath(src.Path, input.RootPath)
		if err != nil {
			return nil, GetVaultStructureOutput{}, MapError(err)
		}
		walkRoot = abs
	}

	depth := input.Depth
	if depth <= 0 {
		depth = 2
	}

	tree, err := buildVaultTree(walkRoot, filepath.Base(walkRoot), depth)
	if err != nil {
		return nil, GetVaultStructureOutput{}, MapError(apperrors.IOErr("failed to walk vault structure", err))
	}

	return nil, GetVaultStructureOutput{Structure: tree}, nil
}

// buildVaultTree recursively builds a directory tree rooted at dir, down to
// maxDepth levels, including only Markdown files and non-hidden entries.
func buildVaultTree(dir, name string, maxDepth int) (*VaultTreeNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node := &VaultTreeNode{Name: name, Type: "directory"}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			if maxDepth <= 1 {
				continue
			}
			child, err := buildVaultTree(filepath.Join(dir, e.Name()), e.Name(), maxDepth-1)
			if err != nil {
				continue
			}
			node.Children = append(node.Children, *child)
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			node.Children = append(node.Children, VaultTreeNode{Name: e.Name(), Type: "file"})
		}
	}
	return node, nil
}
