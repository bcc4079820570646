package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the runtime configuration. Load fills it from the constants above
// and lets environment variables (or a .env file) override them.
type Settings struct {
	IsProd     bool
	ListenAddr string

	DataDir    string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	UseRedis      bool

	QdrantHost string
	QdrantPort int
	UseQdrant  bool

	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	GoogleEmbedder string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	OpenAIEmbedder string
	EmbeddingDim   int32

	ChunkSize           int
	ChunkOverlap        int
	EmbeddingBatchSize  int
	TopK                int
	SimilarityThreshold float64
	DedupeOverlapRatio  float64
	MaxUploadBytes      int64
	MaxJobAttempts      int

	LLMTimeout       time.Duration
	EmbeddingTimeout time.Duration
	JobTimeout       time.Duration
}

func Load() Settings {
	// a missing .env is fine, the process env still applies
	_ = godotenv.Load()

	dataDir := envString("DATA_DIR", DataDir)
	s := Settings{
		IsProd:     envBool("IS_PROD", IS_PROD),
		ListenAddr: envString("LISTEN_ADDR", ServerListenAddr),

		DataDir:    dataDir,
		SQLitePath: envString("SQLITE_PATH", filepath.Join(dataDir, SQLiteFile)),

		RedisAddr:     envString("REDIS_ADDR", RedisAddr),
		RedisPassword: envString("REDIS_PASSWORD", ""),
		UseRedis:      envBool("USE_REDIS", true),

		QdrantHost: envString("QDRANT_HOST", QdrantHost),
		QdrantPort: envInt("QDRANT_PORT", QdrantGrpcPort),
		UseQdrant:  envBool("USE_QDRANT", true),

		LLMProvider:    envString("LLM_PROVIDER", LLMProviderGemini),
		GeminiAPIKey:   envString("GEMINI_API_KEY", ""),
		GeminiModel:    envString("GEMINI_MODEL", GeminiModelName),
		GoogleEmbedder: envString("GOOGLE_EMBEDDING_MODEL", GoogleEmbeddingModel),
		OpenAIAPIKey:   envString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  envString("OPENAI_BASE_URL", ""),
		OpenAIModel:    envString("OPENAI_MODEL", OpenAIModelName),
		OpenAIEmbedder: envString("OPENAI_EMBEDDING_MODEL", OpenAIEmbeddingModel),
		EmbeddingDim:   int32(envInt("EMBEDDING_DIMENSION", int(EmbeddingOutputDimensionality))),

		ChunkSize:           envInt("CHUNK_SIZE", ChunkSize),
		ChunkOverlap:        envInt("CHUNK_OVERLAP", ChunkOverlap),
		EmbeddingBatchSize:  envInt("EMBEDDING_BATCH_SIZE", EmbeddingBatchSize),
		TopK:                envInt("RETRIEVAL_TOP_K", RetrievalTopK),
		SimilarityThreshold: envFloat("SIMILARITY_THRESHOLD", SimilarityThreshold),
		DedupeOverlapRatio:  envFloat("DEDUPE_OVERLAP_RATIO", DedupeOverlapRatio),
		MaxUploadBytes:      int64(envInt("MAX_UPLOAD_BYTES", MaxUploadBytes)),
		MaxJobAttempts:      envInt("MAX_JOB_ATTEMPTS", MaxJobAttempts),

		LLMTimeout:       envDuration("LLM_TIMEOUT", LLMTimeout),
		EmbeddingTimeout: envDuration("EMBEDDING_TIMEOUT", EmbeddingTimeout),
		JobTimeout:       envDuration("JOB_TIMEOUT", JobTimeout),
	}
	if s.ChunkOverlap >= s.ChunkSize {
		s.ChunkOverlap = s.ChunkSize / 4
	}
	return s
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
