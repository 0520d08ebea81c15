// Пакет index — персистентный индекс метаданных файлов в SQLite.
//
// Каждая запись создаётся одной атомарной вставкой после того, как
// оригинал и превью durable записаны в blob-хранилище. Идентификаторы
// назначает база (AUTOINCREMENT): строго возрастают и никогда не
// переиспользуются. Все запросы — чистый SQL через database/sql, без ORM.
// Миграции схемы применяются при открытии через golang-migrate.
package index

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bigkaa/gomediastore/internal/domain/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ошибки индекса.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidPageSize — размер страницы должен быть положительным.
	ErrInvalidPageSize = errors.New("размер страницы должен быть положительным")
)

// fileColumns — список столбцов таблицы files для SELECT-запросов.
const fileColumns = `id, mime, full_path, thumb_path, created_at`

// Index — индекс метаданных поверх SQLite.
type Index struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open открывает (или создаёт) базу индекса по указанному пути
// и применяет миграции. busy_timeout и WAL-журнал обеспечивают
// сериализацию конкурентных вставок без блокировок читателей.
func Open(dbPath string, logger *slog.Logger) (*Index, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_loc=UTC", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы %s: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе %s: %w", dbPath, err)
	}

	idx := &Index{
		db:     db,
		logger: logger.With(slog.String("component", "index")),
	}

	if err := idx.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// migrateUp применяет SQL-миграции из embedded FS к открытой базе.
func (idx *Index) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	driver, err := migratesqlite.WithInstance(idx.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("ошибка инициализации драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	idx.logger.Info("Миграции индекса применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

// Close закрывает базу индекса.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Ping проверяет доступность базы (для readiness probe).
func (idx *Index) Ping(ctx context.Context) error {
	return idx.db.PingContext(ctx)
}

// Insert добавляет запись о файле и возвращает её с назначенными
// id и created_at. Вставка атомарна и durable на момент возврата.
func (idx *Index) Insert(ctx context.Context, mime, fullLocation, thumbLocation string) (*model.FileRecord, error) {
	createdAt := time.Now().UTC()

	res, err := idx.db.ExecContext(ctx,
		`INSERT INTO files (mime, full_path, thumb_path, created_at) VALUES (?, ?, ?, ?)`,
		mime, fullLocation, thumbLocation, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка вставки записи: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения id записи: %w", err)
	}

	return &model.FileRecord{
		ID:            id,
		Mime:          mime,
		FullLocation:  fullLocation,
		ThumbLocation: thumbLocation,
		CreatedAt:     createdAt,
	}, nil
}

// Get возвращает запись по id или ErrNotFound.
func (idx *Index) Get(ctx context.Context, id int64) (*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = ?`, fileColumns)

	rec := &model.FileRecord{}
	err := idx.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Mime, &rec.FullLocation, &rec.ThumbLocation, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи %d: %w", id, err)
	}
	return rec, nil
}

// List возвращает страницу записей, отсортированных по created_at
// по убыванию (при равенстве — по id по убыванию, для детерминизма).
// page — номер страницы начиная с нуля, size — размер страницы.
// Страница за пределами данных — пустой срез, не ошибка.
func (idx *Index) List(ctx context.Context, page, size int) ([]*model.FileRecord, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	if page < 0 {
		return nil, fmt.Errorf("номер страницы не может быть отрицательным: %d", page)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM files ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		fileColumns,
	)

	rows, err := idx.db.QueryContext(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей: %w", err)
	}
	defer rows.Close()

	records := make([]*model.FileRecord, 0, size)
	for rows.Next() {
		rec := &model.FileRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Mime, &rec.FullLocation, &rec.ThumbLocation, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода результата: %w", err)
	}

	return records, nil
}

// Count возвращает общее количество записей (для метрик).
func (idx *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей: %w", err)
	}
	return n, nil
}
