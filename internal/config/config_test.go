package config

import (
	"log/slog"
	"testing"
	"time"
)

// clearEnv сбрасывает все MS_-переменные, чтобы тесты не зависели
// от окружения запуска.
func clearEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"MS_PORT", "MS_STORAGE_DIR", "MS_DB_PATH", "MS_MAX_BODY_SIZE",
		"MS_THUMBNAIL_MAX_WIDTH", "MS_THUMBNAIL_MAX_HEIGHT",
		"MS_CORS_ALLOWED_ORIGINS", "MS_LOG_LEVEL", "MS_LOG_FORMAT",
		"MS_TLS_CERT", "MS_TLS_KEY", "MS_SHUTDOWN_TIMEOUT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults проверяет значения по умолчанию.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port: ожидалось 3000, получено %d", cfg.Port)
	}
	if cfg.StorageDir != "storage" {
		t.Errorf("StorageDir: ожидалось storage, получено %s", cfg.StorageDir)
	}
	if cfg.DBPath != "sqlite.db" {
		t.Errorf("DBPath: ожидалось sqlite.db, получено %s", cfg.DBPath)
	}
	if cfg.MaxBodySize != 5*1024*1024 {
		t.Errorf("MaxBodySize: ожидалось 5 MiB, получено %d", cfg.MaxBodySize)
	}
	if cfg.ThumbnailMaxWidth != 250 || cfg.ThumbnailMaxHeight != 250 {
		t.Errorf("пределы превью: ожидалось 250x250, получено %dx%d",
			cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins: ожидалось [*], получено %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %s", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %v", cfg.ShutdownTimeout)
	}
}

// TestLoad_Overrides проверяет чтение значений из окружения.
func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MS_PORT", "8080")
	t.Setenv("MS_STORAGE_DIR", "/var/lib/media")
	t.Setenv("MS_MAX_BODY_SIZE", "1048576")
	t.Setenv("MS_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MS_LOG_LEVEL", "debug")
	t.Setenv("MS_LOG_FORMAT", "text")
	t.Setenv("MS_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.StorageDir != "/var/lib/media" {
		t.Errorf("StorageDir: получено %s", cfg.StorageDir)
	}
	if cfg.MaxBodySize != 1048576 {
		t.Errorf("MaxBodySize: получено %d", cfg.MaxBodySize)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins: получено %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось debug, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: получено %s", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout: получено %v", cfg.ShutdownTimeout)
	}
}

// TestLoad_InvalidValues проверяет ошибки валидации.
func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"порт вне диапазона", "MS_PORT", "70000"},
		{"порт не число", "MS_PORT", "abc"},
		{"отрицательный лимит тела", "MS_MAX_BODY_SIZE", "-1"},
		{"нулевая ширина превью", "MS_THUMBNAIL_MAX_WIDTH", "0"},
		{"недопустимый уровень логирования", "MS_LOG_LEVEL", "verbose"},
		{"недопустимый формат логов", "MS_LOG_FORMAT", "xml"},
		{"некорректный таймаут", "MS_SHUTDOWN_TIMEOUT", "пять секунд"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Errorf("%s=%s: ожидалась ошибка валидации", tc.key, tc.value)
			}
		})
	}
}

// TestLoad_TLSPair проверяет, что сертификат и ключ задаются только вместе.
func TestLoad_TLSPair(t *testing.T) {
	clearEnv(t)
	t.Setenv("MS_TLS_CERT", "/etc/tls/cert.pem")

	if _, err := Load(); err == nil {
		t.Error("сертификат без ключа: ожидалась ошибка валидации")
	}

	t.Setenv("MS_TLS_KEY", "/etc/tls/key.pem")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("полная TLS-пара не должна быть ошибкой: %v", err)
	}
	if cfg.TLSCert == "" || cfg.TLSKey == "" {
		t.Error("TLS-пара не загружена")
	}
}

// TestParseLogLevel проверяет разбор уровней логирования.
func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
	}

	for _, tc := range cases {
		got, err := parseLogLevel(tc.in)
		if err != nil {
			t.Errorf("%s: неожиданная ошибка: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: ожидалось %v, получено %v", tc.in, tc.want, got)
		}
	}
}
