package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docstructgo/internal/api"
	"docstructgo/internal/config"
	"docstructgo/internal/extract"
	"docstructgo/internal/fileutil"
	"docstructgo/internal/inference"
	"docstructgo/internal/logger"
	"docstructgo/internal/pipeline"
	"docstructgo/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration failed")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	for _, dir := range []string{cfg.Files.UploadsDir, cfg.Files.OutputDir} {
		if err := fileutil.EnsureDir(dir); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("create directory failed")
		}
	}

	store := storage.NewMemoryStore()
	extractor := extract.NewService()

	converter, err := inference.NewClient(context.Background(), cfg.Inference)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Inference.Provider).Msg("init inference client failed")
	}

	orchestrator := pipeline.NewOrchestrator(store, extractor, converter, cfg.Files.OutputDir, cfg.Timeout)
	handler := api.NewHandler(store, orchestrator, cfg.Files.UploadsDir, cfg.Files.MaxUploadBytes)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.Files.MaxUploadBytes
	handler.RegisterRoutes(router)

	log.Info().
		Str("address", cfg.ServerAddress).
		Str("provider", cfg.Inference.Provider).
		Str("model", cfg.Inference.Model).
		Msg("document conversion server starting")
	if err := router.Run(cfg.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
