package thumbnail

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// encodePNG возвращает PNG-байты изображения указанного размера.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("ошибка кодирования PNG: %v", err)
	}
	return buf.Bytes()
}

// decodeSize возвращает размеры PNG-превью.
func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("превью не декодируется как PNG: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// TestGenerate_SmallImageKeepsSize проверяет, что изображение
// в пределах ограничений не увеличивается.
func TestGenerate_SmallImageKeepsSize(t *testing.T) {
	g := New(250, 250)

	out, err := g.Generate(bytes.NewReader(encodePNG(t, 50, 50)))
	if err != nil {
		t.Fatalf("ошибка генерации превью: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 50 || h != 50 {
		t.Errorf("размеры изменились: ожидалось 50x50, получено %dx%d", w, h)
	}
}

// TestGenerate_WideImage проверяет масштабирование по ширине.
func TestGenerate_WideImage(t *testing.T) {
	g := New(250, 250)

	out, err := g.Generate(bytes.NewReader(encodePNG(t, 500, 300)))
	if err != nil {
		t.Fatalf("ошибка генерации превью: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 250 || h != 150 {
		t.Errorf("ожидалось 250x150, получено %dx%d", w, h)
	}
}

// TestGenerate_TallImage проверяет масштабирование по высоте.
func TestGenerate_TallImage(t *testing.T) {
	g := New(250, 250)

	out, err := g.Generate(bytes.NewReader(encodePNG(t, 300, 500)))
	if err != nil {
		t.Fatalf("ошибка генерации превью: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 150 || h != 250 {
		t.Errorf("ожидалось 150x250, получено %dx%d", w, h)
	}
}

// TestGenerate_JPEGInput проверяет декодирование JPEG и PNG на выходе.
func TestGenerate_JPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("ошибка кодирования JPEG: %v", err)
	}

	g := New(250, 250)
	out, err := g.Generate(&buf)
	if err != nil {
		t.Fatalf("ошибка генерации превью: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 250 || h != 250 {
		t.Errorf("ожидалось 250x250, получено %dx%d", w, h)
	}
}

// TestGenerate_UnsupportedInput проверяет терминальную ошибку
// на не-изображении.
func TestGenerate_UnsupportedInput(t *testing.T) {
	g := New(250, 250)

	_, err := g.Generate(strings.NewReader("это точно не изображение"))
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Errorf("ожидалась ErrUnsupportedInput, получено: %v", err)
	}
}

// TestGenerate_Deterministic проверяет, что одинаковый вход даёт
// одинаковый по размерам выход.
func TestGenerate_Deterministic(t *testing.T) {
	g := New(250, 250)
	src := encodePNG(t, 600, 400)

	first, err := g.Generate(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("ошибка генерации превью: %v", err)
	}
	second, err := g.Generate(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("ошибка повторной генерации: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("повторная генерация дала другой результат")
	}
}

// TestFit_ExtremeAspect проверяет, что вырожденные пропорции
// не дают нулевых размеров.
func TestFit_ExtremeAspect(t *testing.T) {
	g := New(250, 250)

	w, h := g.fit(10000, 2)
	if w != 250 || h < 1 {
		t.Errorf("вырожденные пропорции: получено %dx%d", w, h)
	}
}
