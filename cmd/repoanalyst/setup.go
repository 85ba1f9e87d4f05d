package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"repoanalyst/internal/config"
	"repoanalyst/internal/embedding"
	"repoanalyst/internal/embedding/openai"
	"repoanalyst/internal/evidence"
	"repoanalyst/internal/judge"
	"repoanalyst/internal/llm"
	"repoanalyst/internal/logging"
	"repoanalyst/internal/pipeline"
	"repoanalyst/internal/router"
	"repoanalyst/internal/validator"
	"repoanalyst/internal/vectorstore"
	"repoanalyst/internal/vectorstore/flat"
	"repoanalyst/internal/vectorstore/qdrant"
)

// app bundles everything the commands need after assembly.
type app struct {
	cfg     *config.AppConfig
	log     *zap.Logger
	session *pipeline.Session
	router  *router.Router
	repo    *evidence.Repository
	index   vectorstore.Index
}

func loadConfig() (*config.AppConfig, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Level, cfg.Logging.File)
}

func newEmbedder(cfg *config.AppConfig) (embedding.Embedder, error) {
	return openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
}

func chatClient(cfg *config.AppConfig, model string) (llm.Client, error) {
	return llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
}

// openIndex loads the evidence repository and the configured vector index.
// For the flat store the vectors come from the sidecar file written at index
// time; for qdrant only the metadata is loaded locally.
func openIndex(cfg *config.AppConfig) (*evidence.Repository, vectorstore.Index, error) {
	repo, err := evidence.Load(cfg.VectorStore.MetadataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load evidence metadata (run 'repoanalyst index' first): %w", err)
	}

	switch cfg.VectorStore.Type {
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, nil, fmt.Errorf("vector_store.type is qdrant but no qdrant config is set")
		}
		q := qdrant.New(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
		return repo, q, nil
	default:
		vectors, err := evidence.LoadVectors(cfg.VectorStore.VectorsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load vectors (run 'repoanalyst index' first): %w", err)
		}
		if len(vectors) != repo.Len() {
			return nil, nil, fmt.Errorf("index mismatch: %d vectors for %d chunks; re-run 'repoanalyst index'", len(vectors), repo.Len())
		}
		ix, err := flat.New(vectors)
		if err != nil {
			return nil, nil, err
		}
		return repo, ix, nil
	}
}

// newApp assembles the full query-side application.
func newApp(enableHistory bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	repo, index, err := openIndex(cfg)
	if err != nil {
		return nil, err
	}

	genClient, err := chatClient(cfg, cfg.LLM.Model)
	if err != nil {
		return nil, err
	}

	var jd *judge.Judge
	if cfg.Judge.Enabled {
		judgeClient := genClient
		if cfg.Judge.Model != cfg.LLM.Model {
			if judgeClient, err = chatClient(cfg, cfg.Judge.Model); err != nil {
				return nil, err
			}
		}
		jd = judge.New(judgeClient, judge.Thresholds{
			High:   cfg.Judge.ConfidenceThresholds.High,
			Medium: cfg.Judge.ConfidenceThresholds.Medium,
		}, log)
	}

	vd := validator.New(validator.Config{
		RequireCitations: cfg.Validation.RequireCitations,
		MinAnswerLength:  cfg.Validation.MinAnswerLength,
		CheckGrounding:   cfg.Validation.CheckGrounding,
	})

	session := pipeline.NewSession(pipeline.Options{
		TopK:            cfg.Retrieval.TopK,
		MinScore:        cfg.Retrieval.MinScore,
		JudgeEnabled:    cfg.Judge.Enabled,
		MaxRetries:      cfg.Judge.MaxRetries,
		EnableHistory:   enableHistory && cfg.Conversation.EnableHistory,
		MaxHistoryTurns: cfg.Conversation.MaxHistoryTurns,
	}, emb, index, repo, genClient, jd, vd, log)

	a := &app{cfg: cfg, log: log, session: session, repo: repo, index: index}

	if cfg.Router.Enabled {
		routerClient := genClient
		if cfg.Router.Model != cfg.LLM.Model {
			if routerClient, err = chatClient(cfg, cfg.Router.Model); err != nil {
				return nil, err
			}
		}
		a.router = router.New(routerClient, log)
	}
	return a, nil
}
