package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration. It is built once at startup and
// handed to constructors by value.
type Settings struct {
	ListenAddr string `yaml:"listen_addr"`
	IsProd     bool   `yaml:"is_prod"`
	LogLevel   string `yaml:"log_level"`

	AuthToken    string `yaml:"auth_token"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`

	StorageURL string `yaml:"storage_url"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	Embedding  EmbeddingSettings  `yaml:"embedding"`
	Index      IndexSettings      `yaml:"index"`
	Backends   BackendSettings    `yaml:"backends"`
	Flashcards FlashcardSettings  `yaml:"flashcards"`
	Retry      RetrySettings      `yaml:"retry"`
	Generation GenerationSettings `yaml:"generation"`
}

type EmbeddingSettings struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type IndexSettings struct {
	Backend        string `yaml:"backend"`
	PassageMaxChar int    `yaml:"passage_max_chars"`
	PassageOverlap int    `yaml:"passage_overlap"`
	TopK           int    `yaml:"top_k"`
	QdrantHost     string `yaml:"qdrant_host"`
	QdrantPort     int    `yaml:"qdrant_port"`
}

type BackendSettings struct {
	OpenAIKey    string `yaml:"openai_api_key"`
	OpenAIURL    string `yaml:"openai_base_url"`
	GoogleKey    string `yaml:"google_api_key"`
	LlamaKey     string `yaml:"llama_api_key"`
	LlamaBaseURL string `yaml:"llama_base_url"`
}

type FlashcardSettings struct {
	Variant string `yaml:"variant"`
	Count   int    `yaml:"count"`
}

type RetrySettings struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type GenerationSettings struct {
	MaxTokens int `yaml:"max_tokens"`
}

// Default returns the settings produced by the compiled-in constants alone.
func Default() Settings {
	return Settings{
		ListenAddr: ServerListenAddr,
		IsProd:     IS_PROD,
		LogLevel:   "debug",
		StorageURL: DefaultStorageURL,
		RedisAddr:  RedisAddr,
		Embedding: EmbeddingSettings{
			Provider: EmbeddingProviderLocal,
		},
		Index: IndexSettings{
			Backend:        IndexBackendMemory,
			PassageMaxChar: PassageMaxChars,
			PassageOverlap: PassageOverlap,
			TopK:           DefaultTopK,
			QdrantHost:     QdrantHost,
			QdrantPort:     QdrantGrpcPort,
		},
		Backends: BackendSettings{
			LlamaBaseURL: LlamaBaseURL,
		},
		Flashcards: FlashcardSettings{
			Variant: FlashcardVariantConcepts,
		},
		Retry:      RetrySettings{MaxAttempts: BackendMaxAttempts},
		Generation: GenerationSettings{MaxTokens: DefaultMaxTokens},
	}
}

// Load layers the YAML file at path (optional) and then the environment on
// top of Default.
func Load(path string) (Settings, error) {
	s := Default()
	// left empty so an unconfigured provider can follow the available keys
	s.Embedding.Provider = ""
	if path == "" {
		path = os.Getenv("DOCTUTOR_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return s, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&s)
	if s.Embedding.Provider == "" {
		s.Embedding.Provider = defaultEmbeddingProvider(s.Backends)
	}
	return s, s.Validate()
}

// defaultEmbeddingProvider prefers hosted OpenAI embeddings when a key is
// configured and falls back to the local embedder otherwise.
func defaultEmbeddingProvider(b BackendSettings) string {
	if b.OpenAIKey != "" {
		return EmbeddingProviderOpenAI
	}
	return EmbeddingProviderLocal
}

func applyEnv(s *Settings) {
	setString(&s.ListenAddr, "LISTEN_ADDR")
	setString(&s.LogLevel, "LOG_LEVEL")
	setBool(&s.IsProd, "IS_PROD")
	setString(&s.AuthToken, "AUTH_TOKEN")
	setBool(&s.NoAuthBypass, "NO_AUTH_BYPASS")
	setString(&s.StorageURL, "STORAGE_URL")
	setString(&s.RedisAddr, "REDIS_ADDR")
	setString(&s.RedisPassword, "REDIS_PASSWORD")
	setString(&s.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&s.Embedding.Model, "EMBEDDING_MODEL")
	setString(&s.Index.Backend, "INDEX_BACKEND")
	setString(&s.Index.QdrantHost, "QDRANT_HOST")
	setInt(&s.Index.QdrantPort, "QDRANT_PORT")
	setString(&s.Backends.OpenAIKey, "OPENAI_API_KEY")
	setString(&s.Backends.OpenAIURL, "OPENAI_BASE_URL")
	setString(&s.Backends.GoogleKey, "GOOGLE_API_KEY")
	setString(&s.Backends.LlamaKey, "LLAMA_API_KEY")
	setString(&s.Backends.LlamaBaseURL, "LLAMA_BASE_URL")
	setString(&s.Flashcards.Variant, "FLASHCARD_VARIANT")
	setInt(&s.Flashcards.Count, "FLASHCARD_COUNT")
	setInt(&s.Retry.MaxAttempts, "BACKEND_MAX_ATTEMPTS")
}

// Validate rejects combinations the pipeline cannot run with.
func (s Settings) Validate() error {
	switch s.Embedding.Provider {
	case EmbeddingProviderLocal, EmbeddingProviderOpenAI, EmbeddingProviderGoogle:
	default:
		return fmt.Errorf("unknown embedding provider %q", s.Embedding.Provider)
	}
	switch s.Index.Backend {
	case IndexBackendMemory, IndexBackendQdrant:
	default:
		return fmt.Errorf("unknown index backend %q", s.Index.Backend)
	}
	switch s.Flashcards.Variant {
	case FlashcardVariantConcepts, FlashcardVariantQuestions:
	default:
		return fmt.Errorf("unknown flashcard variant %q", s.Flashcards.Variant)
	}
	if s.Flashcards.Count != 0 && s.Flashcards.Count != 4 && s.Flashcards.Count != 8 {
		return errors.New("flashcard count must be 4 or 8")
	}
	if s.Index.TopK < 1 || s.Index.PassageMaxChar < 1 {
		return errors.New("top_k and passage_max_chars must be positive")
	}
	if s.Retry.MaxAttempts < 1 {
		return errors.New("retry max_attempts must be at least 1")
	}
	return nil
}

// SlogLevel maps LogLevel onto slog, defaulting to debug outside prod.
func (s Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	}
	if s.IsProd {
		return LOG_LEVEL_PROD
	}
	return slog.LevelDebug
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}
