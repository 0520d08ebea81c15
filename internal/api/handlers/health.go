// health.go — liveness и readiness endpoints.
package handlers

import (
	"context"
	"net/http"
	"os"
	"time"
)

// IndexPinger — проверка доступности индекса метаданных.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	idx        IndexPinger
	storageDir string
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(idx IndexPinger, storageDir string) *HealthHandler {
	return &HealthHandler{
		idx:        idx,
		storageDir: storageDir,
	}
}

// HealthLive обрабатывает GET /health/live.
// Процесс жив — всегда 200.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady обрабатывает GET /health/ready.
// Готовность: индекс отвечает на ping, корень хранилища доступен.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.idx.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "fail",
			"reason": "индекс метаданных недоступен",
		})
		return
	}

	if info, err := os.Stat(h.storageDir); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "fail",
			"reason": "директория хранилища недоступна",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
