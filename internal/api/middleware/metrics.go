// metrics.go — Prometheus HTTP метрики Media Store.
// Регистрирует метрики: ms_http_requests_total, ms_http_request_duration_seconds.
// Бизнес-метрики (ms_files_total, ms_ingests_total, ms_downloads_total)
// обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ms_http_requests_total",
			Help: "Общее количество HTTP-запросов к Media Store",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ms_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Media Store в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// FilesTotal — текущее количество записей в индексе (gauge).
	FilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ms_files_total",
			Help: "Текущее количество принятых файлов",
		},
	)

	// IngestsTotal — общее количество попыток приёма файла.
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ms_ingests_total",
			Help: "Общее количество попыток приёма файла",
		},
		[]string{"result"},
	)

	// DownloadsTotal — общее количество скачиваний.
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ms_downloads_total",
			Help: "Общее количество скачиваний",
		},
		[]string{"variant", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем числовой id на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет числовой идентификатор в пути на {id}
// для предотвращения взрывного роста кардинальности метрик.
// /storage/42/full → /storage/{id}/full
func normalizePath(path string) string {
	switch path {
	case "/upload", "/storage", "/metrics", "/health/live", "/health/ready":
		return path
	}

	parts := strings.Split(path, "/")
	// /storage/{id}/full | /storage/{id}/thumbnail → ["", "storage", id, variant]
	if len(parts) == 4 && parts[1] == "storage" && isNumeric(parts[2]) {
		if parts[3] == "full" || parts[3] == "thumbnail" {
			return "/storage/{id}/" + parts[3]
		}
	}
	return path
}

// isNumeric проверяет, что строка состоит только из цифр.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
