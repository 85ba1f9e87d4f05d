package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RepositoryConfig describes the repository being analyzed.
type RepositoryConfig struct {
	Path           string   `yaml:"path"`
	FileExtensions []string `yaml:"file_extensions"`
	ExcludeDirs    []string `yaml:"exclude_dirs"`
}

// ChunkingConfig configures how repository files are split into chunks.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// EmbedderConfig holds configuration for the OpenAI-compatible embedder.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// LLMConfig holds configuration for the chat-completions service used for
// answer generation (and, unless overridden, judging and routing).
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector index implementation.
type VectorStoreConfig struct {
	Type         string        `yaml:"type"`
	MetadataPath string        `yaml:"metadata_path"`
	VectorsPath  string        `yaml:"vectors_path"`
	Qdrant       *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrievalConfig controls top-K search and the relevance cutoff.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// ConfidenceThresholds map judge scores to confidence annotations.
type ConfidenceThresholds struct {
	High   int `yaml:"high"`
	Medium int `yaml:"medium"`
}

// JudgeConfig configures the answer-grounding judge.
type JudgeConfig struct {
	Enabled              bool                 `yaml:"enabled"`
	Model                string               `yaml:"model"`
	MaxRetries           int                  `yaml:"max_retries"`
	ConfidenceThresholds ConfidenceThresholds `yaml:"confidence_thresholds"`
}

// RouterConfig configures the query relevance preflight.
type RouterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// ConversationConfig controls multi-turn history.
type ConversationConfig struct {
	EnableHistory   bool `yaml:"enable_history"`
	MaxHistoryTurns int  `yaml:"max_history_turns"`
}

// ValidationConfig controls the deterministic answer checks.
type ValidationConfig struct {
	RequireCitations bool `yaml:"require_citations"`
	MinAnswerLength  int  `yaml:"min_answer_length"`
	CheckGrounding   bool `yaml:"check_grounding"`
}

// LoggingConfig selects log level and optional file output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Repository   RepositoryConfig   `yaml:"repository"`
	Chunking     ChunkingConfig     `yaml:"chunking"`
	Embedder     EmbedderConfig     `yaml:"embedder"`
	LLM          LLMConfig          `yaml:"llm"`
	VectorStore  VectorStoreConfig  `yaml:"vector_store"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Judge        JudgeConfig        `yaml:"judge"`
	Router       RouterConfig       `yaml:"router"`
	Conversation ConversationConfig `yaml:"conversation"`
	Validation   ValidationConfig   `yaml:"validation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults. Absent keys keep their default values because the file
// is unmarshaled onto a pre-populated config.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/repoanalyst/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "repoanalyst", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Repository: RepositoryConfig{
			Path:           ".",
			FileExtensions: []string{".go", ".md"},
			ExcludeDirs:    []string{".git", "vendor", "node_modules", "testdata"},
		},
		Chunking: ChunkingConfig{ChunkSize: 1500, Overlap: 200},
		Embedder: EmbedderConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "text-embedding-3-small",
			TimeoutSecs: 30,
			BatchSize:   32,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   1024,
			TimeoutSecs: 60,
		},
		VectorStore: VectorStoreConfig{
			Type:         "flat",
			MetadataPath: "index/chunks.jsonl",
			VectorsPath:  "index/vectors.jsonl",
		},
		Retrieval: RetrievalConfig{TopK: 5, MinScore: 0.3},
		Judge: JudgeConfig{
			Enabled:              true,
			MaxRetries:           1,
			ConfidenceThresholds: ConfidenceThresholds{High: 5, Medium: 3},
		},
		Router:       RouterConfig{Enabled: true},
		Conversation: ConversationConfig{EnableHistory: true, MaxHistoryTurns: 5},
		Validation: ValidationConfig{
			RequireCitations: true,
			MinAnswerLength:  50,
			CheckGrounding:   true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MinScore <= 0 {
		cfg.Retrieval.MinScore = 0.3
	}
	if cfg.Judge.MaxRetries < 0 {
		cfg.Judge.MaxRetries = 1
	}
	if cfg.Judge.ConfidenceThresholds.High == 0 {
		cfg.Judge.ConfidenceThresholds.High = 5
	}
	if cfg.Judge.ConfidenceThresholds.Medium == 0 {
		cfg.Judge.ConfidenceThresholds.Medium = 3
	}
	if cfg.Conversation.MaxHistoryTurns <= 0 {
		cfg.Conversation.MaxHistoryTurns = 5
	}
	if cfg.Chunking.ChunkSize <= 0 {
		cfg.Chunking.ChunkSize = 1500
	}
	if cfg.Chunking.Overlap < 0 {
		cfg.Chunking.Overlap = 0
	}
	if cfg.Embedder.BatchSize <= 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "flat"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Judge.Model == "" {
		cfg.Judge.Model = cfg.LLM.Model
	}
	if cfg.Router.Model == "" {
		cfg.Router.Model = cfg.LLM.Model
	}
}
