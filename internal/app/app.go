package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/ContractIntelAPI/internal/audit"
	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/customHttpClient"
	"github.com/akolanti/ContractIntelAPI/internal/data/fileStore"
	"github.com/akolanti/ContractIntelAPI/internal/data/redisStore"
	"github.com/akolanti/ContractIntelAPI/internal/data/sqlStore"
	"github.com/akolanti/ContractIntelAPI/internal/data/store"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/extraction"
	"github.com/akolanti/ContractIntelAPI/internal/handlers"
	"github.com/akolanti/ContractIntelAPI/internal/job"
	"github.com/akolanti/ContractIntelAPI/internal/mcpServer"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/chunker"
	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding"
	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm/gemini"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm/openaiLLM"
	"github.com/akolanti/ContractIntelAPI/internal/rag/vectorDB"
	"github.com/akolanti/ContractIntelAPI/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/ContractIntelAPI/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/ContractIntelAPI/internal/worker"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

var logger = logger_i.NewLogger("app")

// App is the wired service graph shared by the HTTP server and the MCP server.
type App struct {
	Settings config.Settings

	Documents documentModel.Repository
	Contracts contractModel.Repository
	Jobs      jobModel.JobStore
	Counters  metrics.CounterStore
	Metrics   *metrics.Recorder
	Index     vectorDB.Index
	Embedder  embedding.Embedder
	LLM       llm.Provider

	JobService *job.Service
	Pipeline   *ingest.Pipeline
	Extraction *extraction.Engine
	Audit      *audit.Engine
	RAG        rag.Service

	HealthChecks []handlers.HealthCheck

	pool       *worker.Pool
	workerStop chan bool
	workers    *sync.WaitGroup
	sql        *sqlStore.Store
}

// Build connects every dependency. Redis and qdrant fall back to in-process stores
// when unreachable; a missing model provider is fatal.
func Build(ctx context.Context, s config.Settings) (*App, error) {
	a := &App{Settings: s, workerStop: make(chan bool), workers: &sync.WaitGroup{}}

	sql, err := sqlStore.NewStore(s.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.sql = sql
	a.Documents = sql.Documents()
	a.Contracts = sql.Contracts()
	a.HealthChecks = append(a.HealthChecks, handlers.HealthCheck{Name: "sqlite", Ping: a.Documents.Ping})

	files, err := fileStore.New(s.DataDir)
	if err != nil {
		_ = sql.Close()
		return nil, err
	}

	if err := a.initRedis(ctx); err != nil {
		_ = sql.Close()
		return nil, err
	}
	a.Metrics = metrics.NewRecorder(a.Counters)

	if err := a.initProviders(ctx); err != nil {
		_ = sql.Close()
		return nil, err
	}
	a.initIndex(ctx)

	a.JobService = job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          a.Jobs,
	})

	a.Extraction = extraction.NewEngine(extraction.Config{
		Documents: a.Documents,
		Contracts: a.Contracts,
		LLM:       a.LLM,
		Metrics:   a.Metrics,
		MaxChars:  config.ExtractionMaxChars,
	})

	a.Pipeline = ingest.NewPipeline(ingest.Config{
		Documents:      a.Documents,
		Files:          files,
		Queue:          a.JobService,
		Embedder:       a.Embedder,
		Index:          a.Index,
		Chunker:        chunker.New(s.ChunkSize, s.ChunkOverlap),
		Jobs:           a.Jobs,
		Extractor:      a.Extraction,
		Metrics:        a.Metrics,
		BatchSize:      s.EmbeddingBatchSize,
		MaxUploadBytes: s.MaxUploadBytes,
	})

	a.Audit = audit.NewEngine(audit.Config{
		Documents:   a.Documents,
		Contracts:   a.Contracts,
		LLM:         a.LLM,
		Metrics:     a.Metrics,
		DedupeRatio: s.DedupeOverlapRatio,
		MaxChars:    config.AuditMaxChars,
	})

	a.RAG = rag.NewService(rag.ServiceConfig{
		Documents: a.Documents,
		Index:     a.Index,
		Embedder:  a.Embedder,
		LLM:       a.LLM,
		Metrics:   a.Metrics,
		TopK:      s.TopK,
		Threshold: float32(s.SimilarityThreshold),
	})

	a.pool = worker.NewPool(worker.PoolConfig{
		JobService:  a.JobService,
		Processor:   a.Pipeline,
		Stop:        a.workerStop,
		WaitGroup:   a.workers,
		JobTimeout:  s.JobTimeout,
		MaxAttempts: s.MaxJobAttempts,
	})

	logger.Info("Service graph ready",
		"llm", a.LLM.ModelName(),
		"embedder", a.Embedder.ModelName(),
		"healthChecks", len(a.HealthChecks),
	)
	return a, nil
}

func (a *App) initRedis(ctx context.Context) error {
	s := a.Settings
	if s.UseRedis {
		jobRedis, err := redisStore.Shared(ctx, redisStore.Options{Addr: s.RedisAddr, Password: s.RedisPassword, DB: config.RedisJobStore})
		var counterRedis *redisStore.Store
		if err == nil {
			counterRedis, err = redisStore.Shared(ctx, redisStore.Options{Addr: s.RedisAddr, Password: s.RedisPassword, DB: config.RedisCounterStore})
		}
		if err == nil {
			a.Jobs = store.NewRedisJobStore(jobRedis)
			a.Counters = store.NewRedisCounterStore(counterRedis)
			a.HealthChecks = append(a.HealthChecks, handlers.HealthCheck{Name: "redis", Ping: jobRedis.Ping})
			return nil
		}
		if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
			return fmt.Errorf("redis unavailable and fallback disabled: %w", err)
		}
		logger.Error("Redis stores are offline, using in-memory stores", "error", err)
	}
	a.Jobs = store.InitInMemoryJobStore()
	a.Counters = store.InitInMemoryCounterStore()
	return nil
}

func (a *App) initProviders(ctx context.Context) error {
	s := a.Settings
	switch s.LLMProvider {
	case config.LLMProviderGemini:
		if s.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
		// nil checks before assignment so the interfaces never hold a typed nil
		llmClient := gemini.GetGeminiClient(ctx, s.GeminiAPIKey, s.GeminiModel)
		embedder := googleEmbedding.GetGoogleEmbeddingClient(ctx, s.GeminiAPIKey, s.GoogleEmbedder, s.EmbeddingDim, s.EmbeddingTimeout)
		if llmClient == nil || embedder == nil {
			return fmt.Errorf("gemini clients unavailable (llm %t, embedder %t)", llmClient != nil, embedder != nil)
		}
		a.LLM, a.Embedder = llmClient, embedder

	case config.LLMProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		a.LLM = openaiLLM.NewClient(s.OpenAIAPIKey, s.OpenAIBaseURL, s.OpenAIModel, customHttpClient.NewClient(s.LLMTimeout))
		a.Embedder = openaiEmbedding.NewClient(s.OpenAIAPIKey, s.OpenAIBaseURL, s.OpenAIEmbedder, int(s.EmbeddingDim), s.EmbeddingTimeout, customHttpClient.NewClient(s.EmbeddingTimeout))

	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", s.LLMProvider)
	}
	return nil
}

func (a *App) initIndex(ctx context.Context) {
	s := a.Settings
	if s.UseQdrant {
		q, err := qdrantDB.New(ctx, s.QdrantHost, s.QdrantPort, int32(a.Embedder.Dimension()))
		if err == nil {
			a.Index = q
			a.HealthChecks = append(a.HealthChecks, handlers.HealthCheck{Name: "qdrant", Ping: q.Ping})
			return
		}
		logger.Error("Qdrant is offline, vectors will only live in memory", "error", err)
	}
	a.Index = memoryDB.New()
	a.HealthChecks = append(a.HealthChecks, handlers.HealthCheck{Name: "vector_index", Ping: a.Index.Ping})
}

// Start launches the worker pool. ctx bounds delayed job redeliveries.
func (a *App) Start(ctx context.Context) {
	a.pool.Start(ctx)
}

func (a *App) Handler() *handlers.Handler {
	return handlers.New(handlers.Dependencies{
		Documents:      a.Pipeline,
		Extraction:     a.Extraction,
		Questions:      a.RAG,
		Audit:          a.Audit,
		Jobs:           a.JobService,
		DocumentStats:  a.Documents,
		ExtractStats:   a.Contracts,
		Counters:       a.Counters,
		HealthChecks:   a.HealthChecks,
		MaxUploadBytes: a.Settings.MaxUploadBytes,
	})
}

func (a *App) MCPPorts() *mcpServer.Ports {
	return &mcpServer.Ports{
		Documents:      a.Pipeline,
		Questions:      a.RAG,
		Extraction:     a.Extraction,
		Audit:          a.Audit,
		MaxUploadBytes: a.Settings.MaxUploadBytes,
	}
}

// WorkerStop and Workers feed server.ShutdownParams.
func (a *App) WorkerStop() chan bool {
	return a.workerStop
}

func (a *App) Workers() *sync.WaitGroup {
	return a.workers
}

func (a *App) Close() {
	if err := a.sql.Close(); err != nil {
		logger.Error("Could not close sqlite", "error", err)
	}
}
