package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/core/ports"
	"github.com/docsage/docsage/internal/core/usecase"
	"github.com/docsage/docsage/internal/infrastructure/cache"
	cachefs "github.com/docsage/docsage/internal/infrastructure/cache/localfs"
	"github.com/docsage/docsage/internal/infrastructure/cache/natskv"
	"github.com/docsage/docsage/internal/infrastructure/chunking"
	"github.com/docsage/docsage/internal/infrastructure/extractor/plaintext"
	"github.com/docsage/docsage/internal/infrastructure/llm/ollama"
	"github.com/docsage/docsage/internal/infrastructure/queue/nats"
	"github.com/docsage/docsage/internal/infrastructure/repository/postgres"
	"github.com/docsage/docsage/internal/infrastructure/resilience"
	"github.com/docsage/docsage/internal/infrastructure/storage/localfs"
	"github.com/docsage/docsage/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Documents ports.DocumentReader
	IngestUC  ports.DocumentIngestor
	IndexUC   ports.DocumentIndexer
	AnswerUC  ports.AnswerService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db, cfg.FTSRankedEnabled)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	localCache, err := cachefs.New(cfg.CachePath)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("init local cache: %w", err)
	}

	var remoteCache *natskv.Cache
	var cacheBackend ports.CacheBackend = localCache
	if cfg.CacheRemote {
		remoteCache, err = natskv.New(ctx, cfg.NATSURL, cfg.CacheBucket, cfg.CacheTTL())
		if err != nil {
			logger.Warn("remote_cache_unavailable", "error", err)
		} else {
			cacheBackend = cache.NewFailover(remoteCache, localCache, logger)
		}
	}

	llmClient := ollama.NewClient(cfg.OllamaURL, cfg.OllamaEmbedModel, cfg.OllamaGenModel, cfg.OllamaTimeout(), executor)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := plaintext.NewExtractor(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(docRepo, storage, queue)
	indexUC := usecase.NewIndexDocumentUseCase(
		docRepo, chunkRepo, extractor, chunker, llmClient, vectorDB, cfg.EmbedBatchSize, logger,
	)

	validator := usecase.NewPreValidator(docRepo, chunkRepo, logger)
	answerCache := usecase.NewAnswerCache(cacheBackend, cfg.CacheTTL(), logger)
	search := usecase.NewHybridSearchUseCase(llmClient, vectorDB, chunkRepo, llmClient, logger)
	answerUC := usecase.NewAnswerUseCase(validator, answerCache, search, chunkRepo, logger)

	return &App{
		Config: cfg,

		Queue:     queue,
		Documents: docRepo,
		IngestUC:  ingestUC,
		IndexUC:   indexUC,
		AnswerUC:  answerUC,

		closeFn: func() {
			queue.Close()
			if remoteCache != nil {
				remoteCache.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
