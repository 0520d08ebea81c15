// Пакет service — бизнес-логика Media Store.
// ingest.go — конвейер приёма файла: приём → превью → фиксация метаданных.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/bigkaa/gomediastore/internal/api/errors"
	"github.com/bigkaa/gomediastore/internal/api/middleware"
	"github.com/bigkaa/gomediastore/internal/domain/model"
	"github.com/bigkaa/gomediastore/internal/storage/blobstore"
	"github.com/bigkaa/gomediastore/internal/storage/index"
	"github.com/bigkaa/gomediastore/internal/thumbnail"
)

// IngestError — ошибка приёма файла с HTTP-кодом.
type IngestError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IngestService — конвейер приёма файлов.
type IngestService struct {
	store  *blobstore.BlobStore
	idx    *index.Index
	thumbs *thumbnail.Generator
	logger *slog.Logger
}

// NewIngestService создаёт конвейер приёма файлов.
func NewIngestService(
	store *blobstore.BlobStore,
	idx *index.Index,
	thumbs *thumbnail.Generator,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		store:  store,
		idx:    idx,
		thumbs: thumbs,
		logger: logger.With(slog.String("component", "ingest_service")),
	}
}

// IngestItem проводит один элемент загрузки через конвейер.
//
// Шаги строго последовательны, следующий не начинается до фиксации
// предыдущего:
//  1. Receiving  — streaming запись тела в оригинальный блоб
//  2. Deriving   — чтение оригинала с диска и генерация превью
//  3. Committing — запись превью и вставка записи в индекс
//  4. Completed  — назначенный id возвращается вызывающему коду
//
// Запись в индексе появляется только после durable записи оригинала
// и превью. При ошибке на любом шаге уже записанные блобы остаются
// осиротевшими и не удаляются — их сборка вне зоны ответственности
// конвейера.
func (s *IngestService) IngestItem(ctx context.Context, reader io.Reader, originalFilename string) (*model.FileRecord, *IngestError) {
	// Общее имя блоба для оригинала и превью
	name := uuid.New().String()

	// 1. Receiving: streaming запись оригинала
	saved, err := s.store.Save(blobstore.TreeFull, name, reader)
	if err != nil {
		return nil, s.fail(err, name, originalFilename)
	}

	// 2. Deriving: читаем зафиксированный оригинал и строим превью
	original, err := s.store.Open(saved.Location)
	if err != nil {
		return nil, s.fail(err, name, originalFilename)
	}

	thumbBytes, err := s.thumbs.Generate(original)
	original.Close()
	if err != nil {
		if errors.Is(err, thumbnail.ErrUnsupportedInput) {
			middleware.IngestsTotal.WithLabelValues("unsupported").Inc()
			s.logger.Warn("Файл не распознан как изображение",
				slog.String("filename", originalFilename),
				slog.String("location", saved.Location),
			)
			return nil, &IngestError{
				StatusCode: http.StatusUnsupportedMediaType,
				Code:       apierrors.CodeUnsupportedMedia,
				Message:    fmt.Sprintf("Файл %s не распознан как изображение", originalFilename),
			}
		}
		return nil, s.fail(err, name, originalFilename)
	}

	// 3. Committing: превью на диск, затем запись в индекс
	thumbSaved, err := s.store.Save(blobstore.TreeThumbnails, name, bytes.NewReader(thumbBytes))
	if err != nil {
		return nil, s.fail(err, name, originalFilename)
	}

	mediaType := mediaTypeFromFilename(originalFilename)

	record, err := s.idx.Insert(ctx, mediaType, saved.Location, thumbSaved.Location)
	if err != nil {
		return nil, s.fail(err, name, originalFilename)
	}

	// 4. Completed
	middleware.IngestsTotal.WithLabelValues("success").Inc()
	middleware.FilesTotal.Inc()

	s.logger.Info("Файл принят",
		slog.Int64("id", record.ID),
		slog.String("filename", originalFilename),
		slog.String("mime", record.Mime),
		slog.Int64("size", saved.Size),
	)

	return record, nil
}

// fail логирует ошибку конвейера и строит IngestError.
// Превышение лимита тела запроса отображается в 413,
// остальные ошибки — в 500.
func (s *IngestService) fail(err error, name, originalFilename string) *IngestError {
	middleware.IngestsTotal.WithLabelValues("error").Inc()

	s.logger.Error("Ошибка приёма файла",
		slog.String("name", name),
		slog.String("filename", originalFilename),
		slog.String("error", err.Error()),
	)

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &IngestError{
			StatusCode: http.StatusRequestEntityTooLarge,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("Размер тела запроса превышает лимит %d байт", maxBytesErr.Limit),
		}
	}

	return &IngestError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeIngestFailed,
		Message:    fmt.Sprintf("Ошибка приёма файла %s", originalFilename),
	}
}

// mediaTypeFromFilename определяет MIME-тип по расширению имени файла.
// Содержимое файла намеренно не анализируется: политика — чистая
// функция от имени файла с фиксированным fallback.
func mediaTypeFromFilename(filename string) string {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if mediaType == "" {
		return "application/octet-stream"
	}
	// Убираем параметры (charset и т.д.)
	if i := strings.Index(mediaType, ";"); i != -1 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType
}
