package links

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/amansearch/amansearch/internal/store"
)

// fakeMetadataStore is a minimal in-memory store.MetadataStore covering
// exactly what the link analytics read: files-by-project, chunks-by-file,
// single chunk lookup, and the embedding table.
type fakeMetadataStore struct {
	filesByProject map[string][]*store.File
	filesByPath    map[string]*store.File // key: projectID+"/"+path
	chunksByFile   map[string][]*store.Chunk
	chunksByID     map[string]*store.Chunk
	embeddings     map[string][]float32
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{
		filesByProject: make(map[string][]*store.File),
		filesByPath:    make(map[string]*store.File),
		chunksByFile:   make(map[string][]*store.Chunk),
		chunksByID:     make(map[string]*store.Chunk),
		embeddings:     make(map[string][]float32),
	}
}

func (f *fakeMetadataStore) addFile(file *store.File, chunks []*store.Chunk, vectors map[string][]float32) {
	f.filesByProject[file.ProjectID] = append(f.filesByProject[file.ProjectID], file)
	f.filesByPath[file.ProjectID+"/"+file.Path] = file
	f.chunksByFile[file.ID] = chunks
	for _, c := range chunks {
		f.chunksByID[c.ID] = c
	}
	for id, v := range vectors {
		f.embeddings[id] = v
	}
}

func (f *fakeMetadataStore) SaveProject(ctx context.Context, project *store.Project) error { return nil }
func (f *fakeMetadataStore) GetProject(ctx context.Context, id string) (*store.Project, error) {
	return nil, nil
}
func (f *fakeMetadataStore) UpdateProjectStats(ctx context.Context, id string, fileCount, chunkCount int) error {
	return nil
}
func (f *fakeMetadataStore) RefreshProjectStats(ctx context.Context, id string) error { return nil }

func (f *fakeMetadataStore) SaveFiles(ctx context.Context, files []*store.File) error { return nil }
func (f *fakeMetadataStore) GetFileByPath(ctx context.Context, projectID, path string) (*store.File, error) {
	if file, ok := f.filesByPath[projectID+"/"+path]; ok {
		return file, nil
	}
	return nil, fmt.Errorf("not found")
}
func (f *fakeMetadataStore) GetChangedFiles(ctx context.Context, projectID string, since time.Time) ([]*store.File, error) {
	return nil, nil
}
func (f *fakeMetadataStore) ListFiles(ctx context.Context, projectID string, cursor string, limit int) ([]*store.File, string, error) {
	return f.filesByProject[projectID], "", nil
}
func (f *fakeMetadataStore) GetFilePathsByProject(ctx context.Context, projectID string) ([]string, error) {
	var paths []string
	for _, file := range f.filesByProject[projectID] {
		paths = append(paths, file.Path)
	}
	sort.Strings(paths)
	return paths, nil
}
func (f *fakeMetadataStore) GetFilesForReconciliation(ctx context.Context, projectID string) (map[string]*store.File, error) {
	return nil, nil
}
func (f *fakeMetadataStore) ListFilePathsUnder(ctx context.Context, projectID, dirPrefix string) ([]string, error) {
	return nil, nil
}
func (f *fakeMetadataStore) DeleteFile(ctx context.Context, fileID string) error       { return nil }
func (f *fakeMetadataStore) DeleteFilesByProject(ctx context.Context, projectID string) error { return nil }

func (f *fakeMetadataStore) SaveChunks(ctx context.Context, chunks []*store.Chunk) error { return nil }
func (f *fakeMetadataStore) GetChunk(ctx context.Context, id string) (*store.Chunk, error) {
	if c, ok := f.chunksByID[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("not found")
}
func (f *fakeMetadataStore) GetChunks(ctx context.Context, ids []string) ([]*store.Chunk, error) {
	var out []*store.Chunk
	for _, id := range ids {
		if c, ok := f.chunksByID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeMetadataStore) GetChunksByFile(ctx context.Context, fileID string) ([]*store.Chunk, error) {
	return f.chunksByFile[fileID], nil
}
func (f *fakeMetadataStore) DeleteChunks(ctx context.Context, ids []string) error         { return nil }
func (f *fakeMetadataStore) DeleteChunksByFile(ctx context.Context, fileID string) error { return nil }

func (f *fakeMetadataStore) SearchSymbols(ctx context.Context, name string, limit int) ([]*store.Symbol, error) {
	return nil, nil
}

func (f *fakeMetadataStore) GetState(ctx context.Context, key string) (string, error) { return "", nil }
func (f *fakeMetadataStore) SetState(ctx context.Context, key, value string) error    { return nil }

func (f *fakeMetadataStore) SaveChunkEmbeddings(ctx context.Context, chunkIDs []string, embeddings [][]float32, model string) error {
	for i, id := range chunkIDs {
		f.embeddings[id] = embeddings[i]
	}
	return nil
}
func (f *fakeMetadataStore) GetAllEmbeddings(ctx context.Context) (map[string][]float32, error) {
	return f.embeddings, nil
}
func (f *fakeMetadataStore) GetEmbeddingStats(ctx context.Context) (int, int, error) { return 0, 0, nil }

func (f *fakeMetadataStore) SaveIndexCheckpoint(ctx context.Context, stage string, total, embeddedCount int, embedderModel string) error {
	return nil
}
func (f *fakeMetadataStore) LoadIndexCheckpoint(ctx context.Context) (*store.IndexCheckpoint, error) {
	return nil, nil
}
func (f *fakeMetadataStore) ClearIndexCheckpoint(ctx context.Context) error { return nil }

func (f *fakeMetadataStore) Close() error { return nil }

// fakeVectorStore does brute-force cosine search over an in-memory map,
// good enough for exercising SuggestLinks against small fixtures.
type fakeVectorStore struct {
	vectors map[string][]float32
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{vectors: make(map[string][]float32)}
}

func (v *fakeVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	for i, id := range ids {
		v.vectors[id] = vectors[i]
	}
	return nil
}

func (v *fakeVectorStore) Search(ctx context.Context, query []float32, k int) ([]*store.VectorResult, error) {
	results := make([]*store.VectorResult, 0, len(v.vectors))
	for id, vec := range v.vectors {
		sim := cosineSimilarity(normalize(query), normalize(vec))
		results = append(results, &store.VectorResult{ID: id, Distance: float32(1 - sim), Score: float32(sim)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (v *fakeVectorStore) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(v.vectors, id)
	}
	return nil
}
func (v *fakeVectorStore) AllIDs() []string {
	ids := make([]string, 0, len(v.vectors))
	for id := range v.vectors {
		ids = append(ids, id)
	}
	return ids
}
func (v *fakeVectorStore) Contains(id string) bool { _, ok := v.vectors[id]; return ok }
func (v *fakeVectorStore) Count() int              { return len(v.vectors) }
func (v *fakeVectorStore) Save(path string) error  { return nil }
func (v *fakeVectorStore) Load(path string) error  { return nil }
func (v *fakeVectorStore) Close() error            { return nil }
