package blobstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestNew_CreatesTrees проверяет создание обоих деревьев хранилища.
func TestNew_CreatesTrees(t *testing.T) {
	root := filepath.Join(t.TempDir(), "storage")

	bs, err := New(root)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	if bs.RootDir() != root {
		t.Errorf("ожидался корень %s, получен %s", root, bs.RootDir())
	}

	for _, tree := range []Tree{TreeFull, TreeThumbnails} {
		info, err := os.Stat(filepath.Join(root, string(tree)))
		if err != nil {
			t.Fatalf("дерево %s не создано: %v", tree, err)
		}
		if !info.IsDir() {
			t.Errorf("путь %s не является директорией", tree)
		}
	}
}

// TestSave проверяет streaming-запись блоба.
func TestSave(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	content := []byte("содержимое тестового блоба")
	result, err := bs.Save(TreeFull, "abc-123", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}
	if result.Location != filepath.Join("full", "abc-123") {
		t.Errorf("неожиданное расположение: %s", result.Location)
	}

	data, err := os.ReadFile(bs.FullPath(result.Location))
	if err != nil {
		t.Fatalf("ошибка чтения блоба: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("содержимое блоба не совпадает")
	}

	// Temp файл не должен остаться после rename
	if _, err := os.Stat(bs.FullPath(result.Location) + ".tmp"); !os.IsNotExist(err) {
		t.Error("временный файл не удалён")
	}
}

// TestSave_SharedName проверяет, что оригинал и превью с общим именем
// живут в разных деревьях и не конфликтуют.
func TestSave_SharedName(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	if _, err := bs.Save(TreeFull, "shared", bytes.NewReader([]byte("оригинал"))); err != nil {
		t.Fatalf("ошибка сохранения оригинала: %v", err)
	}
	if _, err := bs.Save(TreeThumbnails, "shared", bytes.NewReader([]byte("превью"))); err != nil {
		t.Fatalf("ошибка сохранения превью: %v", err)
	}

	full, err := bs.Open(filepath.Join("full", "shared"))
	if err != nil {
		t.Fatalf("ошибка открытия оригинала: %v", err)
	}
	defer full.Close()

	thumb, err := bs.Open(filepath.Join("thumbnails", "shared"))
	if err != nil {
		t.Fatalf("ошибка открытия превью: %v", err)
	}
	defer thumb.Close()
}

// TestOpen_NotFound проверяет ошибку открытия несуществующего блоба.
func TestOpen_NotFound(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	_, err = bs.Open(filepath.Join("full", "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено: %v", err)
	}
}

// TestExists проверяет определение существования блоба.
func TestExists(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	result, err := bs.Save(TreeFull, "exists", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if !bs.Exists(result.Location) {
		t.Error("блоб должен существовать")
	}
	if bs.Exists(filepath.Join("full", "missing")) {
		t.Error("несуществующий блоб найден")
	}
}

// errReader — reader, возвращающий ошибку после части данных.
type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, errors.New("обрыв потока")
}

// TestSave_ReaderError проверяет, что при ошибке чтения temp файл
// удаляется и блоб не появляется.
func TestSave_ReaderError(t *testing.T) {
	root := t.TempDir()
	bs, err := New(root)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	if _, err := bs.Save(TreeFull, "broken", errReader{}); err == nil {
		t.Fatal("ожидалась ошибка записи")
	}

	entries, err := os.ReadDir(filepath.Join(root, "full"))
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("дерево full должно быть пустым, найдено %d файлов", len(entries))
	}
}
