package config

import (
	"log/slog"
	"time"
)

// defaults; every value here can be overridden through Settings (see settings.go)
const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 5
	BURST_RATE_LIMIT_PER_SECOND     = 10

	//embeddings + vector index
	EmbeddingOutputDimensionality int32 = 1536
	EmbeddingDBName                     = "contract-chunks"
	EmbeddingBatchSize                  = 100

	//chunking, in characters (~4 chars per token)
	ChunkSize    = 3200
	ChunkOverlap = 400

	//retrieval
	RetrievalTopK       = 5
	SimilarityThreshold = 0.7
	MaxQuestionLength   = 2000

	//model temperatures
	ExtractionTemperature float32 = 0.1
	AuditTemperature      float32 = 0.2
	AnswerTemperature     float32 = 0.3

	//text budgets sent to the model
	ExtractionMaxChars = 15000
	AuditMaxChars      = 10000

	//audit
	DedupeOverlapRatio      = 0.5
	AutoRenewalMinNoticeDay = 30
	EvidenceWindow          = 100

	//ingest
	MaxUploadBytes    = 32 << 20
	MaxFilesPerUpload = 10
	MaxJobAttempts    = 3
	PageTextTimeout   = 10 * time.Second
	JobTimeout        = 5 * time.Minute

	//retry
	RetryMaxAttempts = 3
	RetryBaseDelay   = 200 * time.Millisecond
	RetryMaxDelay    = 5 * time.Second

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 120 * time.Second //ask/stream keeps the connection open
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	HealthCheckTimeout     = 2 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//storage
	DataDir    = "./contract_data"
	SQLiteFile = "contracts.db"

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "localhost"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1 //2-5 is preferred for prod according to documentation

	//llm
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
	LLMTimeout        = 60 * time.Second
	EmbeddingTimeout  = 30 * time.Second

	GeminiModelName      = "gemini-2.5-flash"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIModelName      = "gpt-4o-mini"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisCounterStore = 1

	RedisJobStoreTTL = 24 * time.Hour
	RedisCounterKey  = "contract-intel:counters"
	RedisDialTimeout = 3 * time.Second
	RedisIOTimeout   = 5 * time.Second
)
