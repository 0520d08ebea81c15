// retrieval.go — сервис выдачи файлов и листинга метаданных.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	apierrors "github.com/bigkaa/gomediastore/internal/api/errors"
	"github.com/bigkaa/gomediastore/internal/api/middleware"
	"github.com/bigkaa/gomediastore/internal/domain/model"
	"github.com/bigkaa/gomediastore/internal/storage/blobstore"
	"github.com/bigkaa/gomediastore/internal/storage/index"
	"github.com/bigkaa/gomediastore/internal/thumbnail"
)

// Variant — вариант выдаваемого блоба.
type Variant string

const (
	// VariantFull — оригинал файла.
	VariantFull Variant = "full"
	// VariantThumbnail — превью.
	VariantThumbnail Variant = "thumbnail"
)

// RetrievalError — ошибка выдачи с HTTP-кодом.
type RetrievalError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RetrievalService — сервис выдачи файлов.
type RetrievalService struct {
	store  *blobstore.BlobStore
	idx    *index.Index
	logger *slog.Logger
}

// NewRetrievalService создаёт сервис выдачи файлов.
func NewRetrievalService(
	store *blobstore.BlobStore,
	idx *index.Index,
	logger *slog.Logger,
) *RetrievalService {
	return &RetrievalService{
		store:  store,
		idx:    idx,
		logger: logger.With(slog.String("component", "retrieval_service")),
	}
}

// List возвращает страницу метаданных, новые записи первыми.
// page — номер страницы начиная с нуля, size — размер страницы.
func (s *RetrievalService) List(ctx context.Context, page, size int) ([]*model.FileRecord, *RetrievalError) {
	records, err := s.idx.List(ctx, page, size)
	if err != nil {
		if errors.Is(err, index.ErrInvalidPageSize) {
			return nil, &RetrievalError{
				StatusCode: http.StatusBadRequest,
				Code:       apierrors.CodeValidationError,
				Message:    "Размер страницы должен быть положительным",
			}
		}
		s.logger.Error("Ошибка получения списка файлов", slog.String("error", err.Error()))
		return nil, &RetrievalError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка получения списка файлов",
		}
	}
	return records, nil
}

// ServeOriginal отдаёт оригинал файла с его MIME-типом.
func (s *RetrievalService) ServeOriginal(w http.ResponseWriter, r *http.Request, id int64) *RetrievalError {
	return s.serve(w, r, id, VariantFull)
}

// ServeThumbnail отдаёт превью файла. Content-Type всегда image/png,
// независимо от типа оригинала.
func (s *RetrievalService) ServeThumbnail(w http.ResponseWriter, r *http.Request, id int64) *RetrievalError {
	return s.serve(w, r, id, VariantThumbnail)
}

// serve разрешает id через индекс и стримит блоб клиенту через
// http.ServeContent (Range requests и условные запросы по ModTime).
// Отсутствие записи в индексе и отсутствие блоба на диске при
// существующей записи (расхождение индекса и хранилища) — оба 404.
func (s *RetrievalService) serve(w http.ResponseWriter, r *http.Request, id int64, variant Variant) *RetrievalError {
	record, err := s.idx.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			middleware.DownloadsTotal.WithLabelValues(string(variant), "not_found").Inc()
			return &RetrievalError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Файл %d не найден", id),
			}
		}
		s.logger.Error("Ошибка чтения индекса",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return &RetrievalError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения индекса",
		}
	}

	location := record.FullLocation
	contentType := record.Mime
	if variant == VariantThumbnail {
		location = record.ThumbLocation
		contentType = thumbnail.ContentType
	}

	file, err := s.store.Open(location)
	if err != nil {
		// Расхождение индекса и хранилища: запись есть, блоба нет
		middleware.DownloadsTotal.WithLabelValues(string(variant), "not_found").Inc()
		s.logger.Error("Блоб не найден на диске",
			slog.Int64("id", id),
			slog.String("location", location),
			slog.String("error", err.Error()),
		)
		return &RetrievalError{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %d не найден", id),
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.logger.Error("Ошибка получения stat блоба",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return &RetrievalError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}

	w.Header().Set("Content-Type", contentType)

	// http.ServeContent стримит с поддержкой Range (206) и
	// If-Modified-Since; файл не буферизуется в память.
	http.ServeContent(w, r, filepath.Base(location), stat.ModTime(), file)

	middleware.DownloadsTotal.WithLabelValues(string(variant), "success").Inc()

	s.logger.Debug("Файл отдан",
		slog.Int64("id", id),
		slog.String("variant", string(variant)),
		slog.Int64("size", stat.Size()),
	)

	return nil
}
