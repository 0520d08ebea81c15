// Пакет config — загрузка и валидация конфигурации Media Store
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Media Store.
// У каждого параметра есть значение по умолчанию: бинарь запускается
// без настройки, как и положено dev-инструменту.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Корневая директория хранилища блобов (деревья full/ и thumbnails/)
	StorageDir string
	// Путь к файлу базы SQLite индекса метаданных
	DBPath string
	// Максимальный размер тела запроса загрузки в байтах
	MaxBodySize int64
	// Максимальная ширина превью в пикселях
	ThumbnailMaxWidth int
	// Максимальная высота превью в пикселях
	ThumbnailMaxHeight int
	// Разрешённые CORS origins (через запятую, по умолчанию *)
	CORSAllowedOrigins []string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// MS_PORT — порт HTTP-сервера (по умолчанию 3000)
	port, err := getEnvInt("MS_PORT", 3000)
	if err != nil {
		return nil, fmt.Errorf("MS_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("MS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// MS_STORAGE_DIR — корень хранилища (по умолчанию "storage")
	cfg.StorageDir = getEnvDefault("MS_STORAGE_DIR", "storage")

	// MS_DB_PATH — путь к базе индекса (по умолчанию "sqlite.db")
	cfg.DBPath = getEnvDefault("MS_DB_PATH", "sqlite.db")

	// MS_MAX_BODY_SIZE — лимит тела запроса загрузки (по умолчанию 5 MiB)
	maxBodySize, err := getEnvInt64("MS_MAX_BODY_SIZE", 5*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("MS_MAX_BODY_SIZE: %w", err)
	}
	if maxBodySize <= 0 {
		return nil, fmt.Errorf("MS_MAX_BODY_SIZE: значение должно быть положительным")
	}
	cfg.MaxBodySize = maxBodySize

	// MS_THUMBNAIL_MAX_WIDTH / MS_THUMBNAIL_MAX_HEIGHT — пределы превью
	// (по умолчанию 250×250)
	cfg.ThumbnailMaxWidth, err = getEnvInt("MS_THUMBNAIL_MAX_WIDTH", 250)
	if err != nil {
		return nil, fmt.Errorf("MS_THUMBNAIL_MAX_WIDTH: %w", err)
	}
	cfg.ThumbnailMaxHeight, err = getEnvInt("MS_THUMBNAIL_MAX_HEIGHT", 250)
	if err != nil {
		return nil, fmt.Errorf("MS_THUMBNAIL_MAX_HEIGHT: %w", err)
	}
	if cfg.ThumbnailMaxWidth < 1 || cfg.ThumbnailMaxHeight < 1 {
		return nil, fmt.Errorf("размеры превью должны быть положительными, получено %dx%d",
			cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight)
	}

	// MS_CORS_ALLOWED_ORIGINS — разрешённые origins (по умолчанию все)
	origins := getEnvDefault("MS_CORS_ALLOWED_ORIGINS", "*")
	for _, origin := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
		}
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return nil, fmt.Errorf("MS_CORS_ALLOWED_ORIGINS: список origins пуст")
	}

	// MS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("MS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("MS_LOG_LEVEL: %w", err)
	}

	// MS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// MS_TLS_CERT / MS_TLS_KEY — TLS (опционально, либо оба, либо ни одного)
	cfg.TLSCert = getEnvDefault("MS_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("MS_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("MS_TLS_CERT и MS_TLS_KEY должны задаваться вместе")
	}

	// MS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("MS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
