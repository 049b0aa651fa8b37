package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// generateChunkID derives a content-addressable chunk ID from a file path
// and chunk content, stable across line-number shifts elsewhere in the
// file so re-chunking an unrelated section doesn't force re-embedding.
func generateChunkID(filePath string, content string) string {
	contentHash := sha256.Sum256([]byte(content))
	contentHashStr := hex.EncodeToString(contentHash[:])[:16]

	input := fmt.Sprintf("%s:%s", filePath, contentHashStr)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// estimateTokens gives a rough token count for content when no model
// tokenizer is injected.
func estimateTokens(content string) int {
	return len(content) / TokensPerChar
}
