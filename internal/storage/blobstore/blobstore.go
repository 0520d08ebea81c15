// Пакет blobstore — операции с физическими блобами на диске.
// Хранилище состоит из двух параллельных деревьев: full (оригиналы)
// и thumbnails (превью). Блоб адресуется расположением <дерево>/<имя>,
// имя генерирует вызывающий код, оригинал и превью одной загрузки
// используют общее имя.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Tree — дерево блобов внутри корневой директории хранилища.
type Tree string

const (
	// TreeFull — дерево оригиналов.
	TreeFull Tree = "full"
	// TreeThumbnails — дерево превью.
	TreeThumbnails Tree = "thumbnails"
)

// ErrNotFound — блоб отсутствует на диске.
var ErrNotFound = errors.New("блоб не найден")

// BlobStore — управление физическими блобами на диске.
// Корневая директория передаётся явно при создании, никакого
// глобального состояния — это позволяет изолировать тесты.
type BlobStore struct {
	rootDir string
}

// SaveResult — результат сохранения блоба.
type SaveResult struct {
	// Location — расположение блоба относительно корня (<дерево>/<имя>)
	Location string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт BlobStore и оба дерева, если они не существуют.
func New(rootDir string) (*BlobStore, error) {
	for _, tree := range []Tree{TreeFull, TreeThumbnails} {
		dir := filepath.Join(rootDir, string(tree))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}
	return &BlobStore{rootDir: rootDir}, nil
}

// Save записывает данные из reader в новый блоб дерева tree под именем name.
//
// Паттерн: temp файл → streaming запись → fsync → атомарный rename.
// Блоб считается durable только после успешного возврата; при любой
// ошибке temp файл удаляется и ошибка передаётся вызывающему коду.
func (bs *BlobStore) Save(tree Tree, name string, reader io.Reader) (*SaveResult, error) {
	location := filepath.Join(string(tree), name)
	fullPath := filepath.Join(bs.rootDir, location)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		Location: location,
		Size:     size,
	}, nil
}

// Open открывает блоб для чтения.
// location — расположение блоба относительно корня.
// Вызывающий код обязан закрыть возвращённый файл.
func (bs *BlobStore) Open(location string) (*os.File, error) {
	fullPath := filepath.Join(bs.rootDir, location)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("ошибка открытия блоба %s: %w", location, err)
	}

	return f, nil
}

// Exists проверяет существование блоба на диске.
func (bs *BlobStore) Exists(location string) bool {
	_, err := os.Stat(filepath.Join(bs.rootDir, location))
	return err == nil
}

// FullPath возвращает абсолютный путь блоба на диске.
func (bs *BlobStore) FullPath(location string) string {
	return filepath.Join(bs.rootDir, location)
}

// RootDir возвращает корневую директорию хранилища.
func (bs *BlobStore) RootDir() string {
	return bs.rootDir
}
