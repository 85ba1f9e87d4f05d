package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"repoanalyst/internal/chunker"
	"repoanalyst/internal/indexer"
	"repoanalyst/internal/loader"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the evidence index from the configured repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		emb, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		ld := loader.New(cfg.Repository.Path, cfg.Repository.FileExtensions, cfg.Repository.ExcludeDirs)
		ch := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)

		start := time.Now()
		stats, err := indexer.New(cfg, ld, ch, emb, log).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d chunks from %d files (dimension %d) in %s\n",
			stats.Chunks, stats.Files, stats.Dimension, time.Since(start).Round(time.Millisecond))
		return nil
	},
}
