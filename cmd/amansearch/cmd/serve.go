package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/amansearch/amansearch/internal/async"
	"github.com/amansearch/amansearch/internal/chunk"
	"github.com/amansearch/amansearch/internal/config"
	"github.com/amansearch/amansearch/internal/embed"
	"github.com/amansearch/amansearch/internal/index"
	"github.com/amansearch/amansearch/internal/logging"
	"github.com/amansearch/amansearch/internal/mcp"
	"github.com/amansearch/amansearch/internal/scanner"
	"github.com/amansearch/amansearch/internal/search"
	"github.com/amansearch/amansearch/internal/store"
	"github.com/amansearch/amansearch/internal/ui"
	"github.com/amansearch/amansearch/internal/watcher"
)

// defaultWatcherStartupTimeout bounds how long serve waits for the file
// watcher goroutine to report its initial health before giving up on it.
// The watcher keeps retrying in the background even after this expires -
// this only gates the diagnostic log line, never the MCP handshake.
const defaultWatcherStartupTimeout = 2 * time.Second

func newServeCmd() *cobra.Command {
	var (
		debug     bool
		transport string
		session   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the AmanSearch MCP server over stdio (or another supported transport).

BUG-034: MCP protocol requires stdout to be used EXCLUSIVELY for JSON-RPC
messages. serve therefore never writes status output to stdout - all
diagnostics go to the rotating log file (see 'amansearch logs').

BUG-035: file watcher startup never blocks the MCP handshake. The watcher
initializes and reconciles in the background while the server is already
answering requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			debugLevel := 0
			if debug {
				debugLevel = 1
			}

			if session != "" {
				return runServeWithSession(ctx, transport, debugLevel, session)
			}
			return runServe(ctx, transport, debugLevel)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable verbose diagnostic logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport to serve on (stdio)")
	cmd.Flags().StringVar(&session, "session", "", "session identifier tag for log correlation")

	return cmd
}

// verifyStdinForMCP reports whether stdin looks usable as an MCP transport.
// An interactive terminal almost always means the user launched serve by
// hand instead of through an MCP client, which is a common source of
// "Failed to connect" confusion.
func verifyStdinForMCP() error {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return fmt.Errorf("stdin is a terminal, not a pipe: the MCP stdio transport expects " +
			"an MCP client (Claude Code, Cursor, etc.) to connect via a pipe, not an interactive shell")
	}
	return nil
}

// runServe wires up the search engine and MCP server and blocks serving
// requests until ctx is canceled or the transport returns.
func runServe(ctx context.Context, transport string, debugLevel int) error {
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanup()

	if debugLevel > 0 {
		slog.Debug("serve starting with elevated debug level", slog.Int("debug_level", debugLevel))
	}

	return serveOnce(ctx, transport)
}

// runServeWithSession behaves like runServe but tags every log line with a
// session identifier, matching how MCP clients that multiplex several
// projects correlate a stdio process back to a project session.
func runServeWithSession(ctx context.Context, transport string, debugLevel int, session string) error {
	cleanup, err := logging.SetupMCPModeWithLevel("debug")
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanup()

	slog.SetDefault(slog.Default().With(slog.String("session", session)))
	slog.Info("serve starting with session tag", slog.String("session", session), slog.Int("debug_level", debugLevel))

	return serveOnce(ctx, transport)
}

// serveOnce builds every dependency the MCP server needs and blocks on
// server.Serve until ctx is canceled. It assumes MCP-safe logging is
// already installed by the caller.
func serveOnce(ctx context.Context, transport string) error {
	if err := verifyStdinForMCP(); err != nil {
		slog.Warn("stdin verification failed", slog.String("error", err.Error()))
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	dataDir := filepath.Join(root, ".amansearch")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	pidPath := filepath.Join(dataDir, "serve.pid")
	if err := writeServePID(pidPath); err != nil {
		slog.Warn("failed to write serve.pid", slog.String("error", err.Error()))
	}
	defer func() { _ = os.Remove(pidPath) }()

	metadataPath := filepath.Join(dataDir, "metadata.db")
	_, statErr := os.Stat(metadataPath)
	hasExistingIndex := statErr == nil

	metadata, err := store.NewSQLiteStore(metadataPath)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer func() { _ = metadata.Close() }()

	bm25BasePath := filepath.Join(dataDir, "bm25")
	bm25, err := store.NewBM25IndexWithBackend(bm25BasePath, store.DefaultBM25Config(), cfg.Search.BM25Backend)
	if err != nil {
		return fmt.Errorf("failed to open BM25 index: %w", err)
	}
	defer func() { _ = bm25.Close() }()

	embedder, err := newServeEmbedder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("embedder initialization failed: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	vectorCfg := store.DefaultVectorStoreConfig(embedder.Dimensions())
	vector, err := store.NewHNSWStore(vectorCfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer func() { _ = vector.Close() }()

	engine, err := search.NewEngine(bm25, vector, embedder, metadata, search.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to build search engine: %w", err)
	}

	sources := cfg.EffectiveSources(root)
	coordinators := buildCoordinators(sources, cfg, dataDir, engine, metadata)

	server, err := mcp.NewServer(mcp.ServerDependencies{
		Engine:       engine,
		Metadata:     metadata,
		Vector:       vector,
		BM25:         bm25,
		Embedder:     embedder,
		Config:       cfg,
		RootPath:     root,
		DataDir:      dataDir,
		Sources:      sources,
		Coordinators: coordinators,
	})
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	// If serve is launched cold (no prior 'amansearch index' run), build the
	// initial index in the background instead of blocking the MCP handshake
	// on a potentially long first pass. The search tool consults IndexProgress
	// to tell the client indexing is underway instead of returning empty results.
	// The watcher waits for this to finish before reconciling/watching so the
	// two never race writers on the same metadata/BM25/vector stores.
	watcherStart := make(chan struct{})
	if !hasExistingIndex {
		indexer := async.NewBackgroundIndexer(async.IndexerConfig{DataDir: dataDir})
		server.SetIndexProgress(indexer.Progress())
		indexer.IndexFunc = func(indexCtx context.Context, progress *async.IndexProgress) error {
			return runInitialIndex(indexCtx, cfg, root, dataDir, metadata, bm25, vector, embedder, progress)
		}
		indexer.Start(ctx)
		defer indexer.Stop()
		go func() {
			if err := indexer.Wait(); err != nil {
				slog.Error("background initial index failed", slog.String("error", err.Error()))
			}
			close(watcherStart)
		}()
	} else {
		close(watcherStart)
	}

	// The watcher and startup reconciliation run in the background so that
	// the MCP handshake never waits on filesystem I/O (BUG-035).
	watcherCtx, cancelWatcher := context.WithCancel(ctx)
	defer cancelWatcher()
	go func() {
		select {
		case <-watcherStart:
		case <-watcherCtx.Done():
			return
		}
		runBackgroundWatcher(watcherCtx, sources, coordinators)
	}()

	return server.Serve(ctx, transport, "")
}

// buildCoordinators constructs one index.Coordinator per configured source,
// shared between the background watcher and the MCP server's on-demand
// note-mutation tools (index_note, write_note, append_to_note, delete_note)
// so both paths serialize through the same per-source mutex instead of
// racing independent Coordinator instances against the same store.
func buildCoordinators(sources []config.SourceConfig, cfg *config.Config, dataDir string, engine *search.Engine, metadata store.MetadataStore) map[string]*index.Coordinator {
	coordinators := make(map[string]*index.Coordinator, len(sources))
	for _, src := range sources {
		sc, err := scanner.New()
		if err != nil {
			slog.Error("coordinator build skipped scanner", slog.String("source", src.ID), slog.String("error", err.Error()))
		}

		exclude := src.Exclude
		if exclude == nil {
			exclude = cfg.Paths.Exclude
		}

		coordinators[src.ID] = index.NewCoordinator(index.CoordinatorConfig{
			ProjectID:       src.ID,
			RootPath:        src.Path,
			DataDir:         dataDir,
			Engine:          engine,
			Metadata:        metadata,
			Chunker:         chunk.NewMarkdownChunker(),
			Scanner:         sc,
			ExcludePatterns: exclude,
		})
	}
	return coordinators
}

// runInitialIndex builds the index from scratch using the same Runner the
// 'index' command uses, but with a discard-output plain renderer since
// serve must never write to stdout (BUG-034).
func runInitialIndex(ctx context.Context, cfg *config.Config, root, dataDir string, metadata store.MetadataStore, bm25 store.BM25Index, vector store.VectorStore, embedder embed.Embedder, progress *async.IndexProgress) error {
	progress.SetStage(async.StageScanning, 0)

	renderer := ui.NewRenderer(ui.NewConfig(io.Discard, ui.WithForcePlain(true), ui.WithProjectDir(root)))
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("background index renderer failed to start", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: renderer,
		Config:   cfg,
		Metadata: metadata,
		BM25:     bm25,
		Vector:   vector,
		Embedder: embedder,
		Chunker:  chunk.NewMarkdownChunker(),
	})
	if err != nil {
		return fmt.Errorf("failed to build background indexer: %w", err)
	}
	defer func() { _ = runner.Close() }()

	result, err := runner.Run(ctx, index.RunnerConfig{
		RootDir: root,
		DataDir: dataDir,
	})
	if err != nil {
		return err
	}

	progress.SetStage(async.StageIndexing, result.Files)
	progress.UpdateFiles(result.Files)
	progress.SetChunksTotal(result.Chunks)
	progress.UpdateChunks(result.Chunks)
	slog.Info("background initial index complete",
		slog.Int("files", result.Files), slog.Int("chunks", result.Chunks), slog.Duration("duration", result.Duration))
	return nil
}

// newServeEmbedder picks the embedder the same way index does: offline/static
// when explicitly requested via config, otherwise the configured provider
// with a bounded init timeout so a stalled backend can't hang the server.
func newServeEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, error) {
	if cfg.Embeddings.Provider == "static" {
		return embed.NewStaticEmbedder768(), nil
	}

	embed.SetThermalConfig(embed.ThermalConfig{
		TimeoutProgression:     cfg.Embeddings.TimeoutProgression,
		RetryTimeoutMultiplier: cfg.Embeddings.RetryTimeoutMultiplier,
	})
	if cfg.Embeddings.InterBatchDelay != "" {
		if delay, err := time.ParseDuration(cfg.Embeddings.InterBatchDelay); err == nil && delay > 0 {
			cur := embed.ThermalConfig{
				TimeoutProgression:     cfg.Embeddings.TimeoutProgression,
				RetryTimeoutMultiplier: cfg.Embeddings.RetryTimeoutMultiplier,
				InterBatchDelay:        delay,
			}
			embed.SetThermalConfig(cur)
		}
	}
	embed.SetMLXConfig(embed.MLXServerConfig{
		Endpoint: cfg.Embeddings.MLXEndpoint,
		Model:    cfg.Embeddings.MLXModel,
	})

	provider := embed.ParseProvider(cfg.Embeddings.Provider)
	embedCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return embed.NewEmbedder(embedCtx, provider, cfg.Embeddings.Model)
}

// runBackgroundWatcher starts one hybrid file watcher plus startup
// reconciliation per configured source, without blocking the caller. It is
// deliberately isolated from the MCP request path: a watcher failure is
// logged, never surfaced as a tool error. Every source shares the same
// metadata/engine pair so they land in one store, each under its own
// namespaced chunk ids.
func runBackgroundWatcher(ctx context.Context, sources []config.SourceConfig, coordinators map[string]*index.Coordinator) {
	var wg sync.WaitGroup
	for _, src := range sources {
		src := src
		coordinator := coordinators[src.ID]
		if coordinator == nil {
			slog.Error("watcher disabled: no coordinator built for source", slog.String("source", src.ID))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			watchSource(ctx, src, coordinator)
		}()
	}
	wg.Wait()
}

// watchSource runs startup reconciliation and the live file watcher for a
// single configured source, applying every event through the shared
// Coordinator also used by the MCP server's on-demand note-mutation tools.
func watchSource(ctx context.Context, src config.SourceConfig, coordinator *index.Coordinator) {
	startupTimeout := defaultWatcherStartupTimeout
	if v := os.Getenv("AMANSEARCH_WATCHER_STARTUP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			startupTimeout = d
		}
	}

	reconcileCtx, reconcileCancel := context.WithTimeout(ctx, startupTimeout)
	defer reconcileCancel()
	if err := coordinator.ReconcileOnStartup(reconcileCtx); err != nil {
		slog.Warn("startup reconciliation did not complete cleanly", slog.String("source", src.ID), slog.String("error", err.Error()))
	}

	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		slog.Error("watcher disabled: failed to initialize", slog.String("source", src.ID), slog.String("error", err.Error()))
		return
	}

	if err := w.Start(ctx, src.Path); err != nil {
		slog.Error("watcher disabled: failed to start", slog.String("source", src.ID), slog.String("error", err.Error()))
		return
	}
	defer func() { _ = w.Stop() }()

	slog.Info("file watcher started", slog.String("type", w.WatcherType()), slog.String("source", src.ID), slog.String("root", src.Path))

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-w.Events():
			if !ok {
				return
			}
			if err := coordinator.HandleEvents(ctx, batch); err != nil {
				slog.Warn("failed to apply watched file events", slog.String("source", src.ID), slog.String("error", err.Error()))
			}
		case werr, ok := <-w.Errors():
			if !ok {
				continue
			}
			slog.Warn("watcher reported an error", slog.String("source", src.ID), slog.String("error", werr.Error()))
		}
	}
}

// writeServePID records the current process PID so other amansearch
// commands can detect a live server (BUG-040 cleans up stale copies).
func writeServePID(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", pid)), 0644)
}
