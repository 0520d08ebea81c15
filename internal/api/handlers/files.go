// files.go — HTTP handlers файловых операций Media Store:
// загрузка multipart, листинг, выдача оригинала и превью.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/gomediastore/internal/api/errors"
	"github.com/bigkaa/gomediastore/internal/domain/model"
	"github.com/bigkaa/gomediastore/internal/service"
)

// fileResponse — публичное представление записи файла.
// Внутренние расположения блобов наружу не отдаются.
type fileResponse struct {
	ID        int64     `json:"id"`
	Mime      string    `json:"mime"`
	CreatedAt time.Time `json:"created_at"`
}

func toFileResponse(rec *model.FileRecord) fileResponse {
	return fileResponse{
		ID:        rec.ID,
		Mime:      rec.Mime,
		CreatedAt: rec.CreatedAt,
	}
}

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	ingestSvc    *service.IngestService
	retrievalSvc *service.RetrievalService
	maxBodySize  int64
}

// NewFilesHandler создаёт обработчик файловых endpoints.
// maxBodySize — лимит тела запроса загрузки в байтах.
func NewFilesHandler(
	ingestSvc *service.IngestService,
	retrievalSvc *service.RetrievalService,
	maxBodySize int64,
) *FilesHandler {
	return &FilesHandler{
		ingestSvc:    ingestSvc,
		retrievalSvc: retrievalSvc,
		maxBodySize:  maxBodySize,
	}
}

// Upload обрабатывает POST /upload.
// Multipart body с одним или несколькими файловыми полями; части
// обрабатываются последовательно в порядке поступления, тело каждой
// части стримится на диск без полной буферизации в памяти.
//
// Ошибка любого элемента прерывает запрос целиком: это осознанная
// политика, а не недосмотр. Уже принятые элементы этого же запроса
// сохраняют свои записи — конвейер не откатывает ранние успехи.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	mr, err := r.MultipartReader()
	if err != nil {
		errors.ValidationError(w, fmt.Sprintf("Ожидается multipart/form-data: %s", err.Error()))
		return
	}

	resp := make([]fileResponse, 0, 1)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors.ValidationError(w, fmt.Sprintf("Ошибка чтения multipart: %s", err.Error()))
			return
		}

		// Не-файловые поля формы пропускаются
		if part.FileName() == "" {
			part.Close()
			continue
		}

		record, ingestErr := h.ingestSvc.IngestItem(r.Context(), part, part.FileName())
		part.Close()
		if ingestErr != nil {
			errors.WriteError(w, ingestErr.StatusCode, ingestErr.Code, ingestErr.Message)
			return
		}

		resp = append(resp, toFileResponse(record))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListStorage обрабатывает GET /storage?page=<int>&size=<int>.
// Внешний контракт использует нумерацию страниц с единицы;
// внутрь передаётся page-1.
func (h *FilesHandler) ListStorage(w http.ResponseWriter, r *http.Request) {
	page, err := positiveQueryParam(r, "page")
	if err != nil {
		errors.ValidationError(w, err.Error())
		return
	}
	size, err := positiveQueryParam(r, "size")
	if err != nil {
		errors.ValidationError(w, err.Error())
		return
	}

	records, listErr := h.retrievalSvc.List(r.Context(), page-1, size)
	if listErr != nil {
		errors.WriteError(w, listErr.StatusCode, listErr.Code, listErr.Message)
		return
	}

	resp := make([]fileResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toFileResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// DownloadFull обрабатывает GET /storage/{id}/full.
// Стримит оригинал с его MIME-типом в Content-Type.
func (h *FilesHandler) DownloadFull(w http.ResponseWriter, r *http.Request) {
	id, ok := filePathID(w, r)
	if !ok {
		return
	}
	if serveErr := h.retrievalSvc.ServeOriginal(w, r, id); serveErr != nil {
		errors.WriteError(w, serveErr.StatusCode, serveErr.Code, serveErr.Message)
	}
}

// DownloadThumbnail обрабатывает GET /storage/{id}/thumbnail.
// Стримит превью, Content-Type всегда image/png.
func (h *FilesHandler) DownloadThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := filePathID(w, r)
	if !ok {
		return
	}
	if serveErr := h.retrievalSvc.ServeThumbnail(w, r, id); serveErr != nil {
		errors.WriteError(w, serveErr.StatusCode, serveErr.Code, serveErr.Message)
	}
}

// filePathID извлекает числовой идентификатор файла из пути.
// При некорректном значении пишет 400 и возвращает ok=false.
func filePathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		errors.ValidationError(w, fmt.Sprintf("Идентификатор файла должен быть положительным целым числом, получено %q", raw))
		return 0, false
	}
	return id, true
}

// positiveQueryParam извлекает обязательный положительный целый
// query-параметр.
func positiveQueryParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("отсутствует обязательный параметр %s", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("параметр %s должен быть целым числом, получено %q", name, raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("параметр %s должен быть >= 1, получено %d", name, n)
	}
	return n, nil
}

// writeJSON — вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
