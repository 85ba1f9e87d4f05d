package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repoanalyst/internal/evidence"
)

func fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	kb := float64(st.Size()) / 1024
	if kb >= 1024 {
		return fmt.Sprintf("%.1f MiB", kb/1024)
	}
	return fmt.Sprintf("%.1f KiB", kb)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the active configuration and index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("repository:     %s\n", cfg.Repository.Path)
		fmt.Printf("extensions:     %v\n", cfg.Repository.FileExtensions)
		fmt.Printf("embedder:       %s\n", cfg.Embedder.Model)
		fmt.Printf("llm:            %s\n", cfg.LLM.Model)
		fmt.Printf("vector store:   %s\n", cfg.VectorStore.Type)
		fmt.Printf("retrieval:      top_k=%d min_score=%.2f\n", cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
		fmt.Printf("judge:          enabled=%t model=%s max_retries=%d\n", cfg.Judge.Enabled, cfg.Judge.Model, cfg.Judge.MaxRetries)
		fmt.Printf("router:         enabled=%t model=%s\n", cfg.Router.Enabled, cfg.Router.Model)
		fmt.Printf("history:        enabled=%t max_turns=%d\n", cfg.Conversation.EnableHistory, cfg.Conversation.MaxHistoryTurns)
		fmt.Printf("validation:     citations=%t min_length=%d grounding=%t\n",
			cfg.Validation.RequireCitations, cfg.Validation.MinAnswerLength, cfg.Validation.CheckGrounding)

		repo, err := evidence.Load(cfg.VectorStore.MetadataPath)
		if err != nil {
			fmt.Println("index:          not built (run 'repoanalyst index')")
			return nil
		}
		fmt.Printf("index:          %d chunks at %s (%s)\n",
			repo.Len(), cfg.VectorStore.MetadataPath, fileSize(cfg.VectorStore.MetadataPath))
		if cfg.VectorStore.Type == "flat" {
			fmt.Printf("vectors:        %s (%s)\n", cfg.VectorStore.VectorsPath, fileSize(cfg.VectorStore.VectorsPath))
		}
		return nil
	},
}
