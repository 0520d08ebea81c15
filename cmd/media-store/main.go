// Точка входа Media Store — сервиса приёма и выдачи файлов
// с генерацией превью.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/gomediastore/internal/api/handlers"
	"github.com/bigkaa/gomediastore/internal/api/middleware"
	"github.com/bigkaa/gomediastore/internal/config"
	"github.com/bigkaa/gomediastore/internal/server"
	"github.com/bigkaa/gomediastore/internal/service"
	"github.com/bigkaa/gomediastore/internal/storage/blobstore"
	"github.com/bigkaa/gomediastore/internal/storage/index"
	"github.com/bigkaa/gomediastore/internal/thumbnail"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Media Store запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_dir", cfg.StorageDir),
		slog.String("db_path", cfg.DBPath),
	)

	// --- Инициализация компонентов ---

	// 1. Blob-хранилище (деревья full/ и thumbnails/)
	store, err := blobstore.New(cfg.StorageDir)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Индекс метаданных (SQLite + миграции)
	idx, err := index.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("Ошибка открытия индекса метаданных", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer idx.Close()

	// Инициализируем gauge количества файлов
	if count, countErr := idx.Count(context.Background()); countErr == nil {
		middleware.FilesTotal.Set(float64(count))
	}

	// 3. Генератор превью
	thumbs := thumbnail.New(cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight)

	// 4. Сервисы
	ingestSvc := service.NewIngestService(store, idx, thumbs, logger)
	retrievalSvc := service.NewRetrievalService(store, idx, logger)

	// 5. Handlers
	filesHandler := handlers.NewFilesHandler(ingestSvc, retrievalSvc, cfg.MaxBodySize)
	healthHandler := handlers.NewHealthHandler(idx, cfg.StorageDir)

	// 6. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, filesHandler, healthHandler)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Media Store остановлен")
}
