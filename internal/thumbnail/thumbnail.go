// Пакет thumbnail — генерация превью фиксированного размера.
//
// Чистая функция над байтами исходного изображения: декодирование,
// масштабирование в ограничивающий прямоугольник с сохранением
// пропорций (без увеличения), перекодирование в PNG.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	// Декодеры форматов регистрируются через image.RegisterFormat.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ContentType — MIME-тип всех генерируемых превью.
const ContentType = "image/png"

// ErrUnsupportedInput — данные не распознаны как изображение.
// Ошибка терминальна для загрузки: повторная попытка не выполняется.
var ErrUnsupportedInput = errors.New("данные не распознаны как изображение")

// Generator — генератор превью с фиксированным ограничивающим
// прямоугольником. Не содержит изменяемого состояния, безопасен
// для конкурентного использования.
type Generator struct {
	maxWidth  int
	maxHeight int
}

// New создаёт генератор превью с указанными максимальными размерами.
func New(maxWidth, maxHeight int) *Generator {
	return &Generator{
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
	}
}

// Generate декодирует изображение из reader, масштабирует в пределы
// ограничивающего прямоугольника и возвращает PNG-байты превью.
// Изображение, уже умещающееся в пределы, не увеличивается.
// Возвращает ErrUnsupportedInput, если данные не декодируются.
func (g *Generator) Generate(reader io.Reader) ([]byte, error) {
	src, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := g.fit(width, height)

	var result image.Image = src
	if newWidth != width || newHeight != height {
		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		result = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("ошибка кодирования превью: %w", err)
	}

	return buf.Bytes(), nil
}

// fit вычисляет размеры превью: изображение, умещающееся в пределы,
// сохраняет размеры; иначе масштабируется так, чтобы бо́льшая сторона
// совпала с пределом, пропорции сохраняются.
func (g *Generator) fit(width, height int) (int, int) {
	if width <= g.maxWidth && height <= g.maxHeight {
		return width, height
	}

	// Сравниваем соотношения без плавающей точки:
	// width/maxWidth > height/maxHeight ⇔ width*maxHeight > height*maxWidth
	if width*g.maxHeight >= height*g.maxWidth {
		newHeight := height * g.maxWidth / width
		if newHeight < 1 {
			newHeight = 1
		}
		return g.maxWidth, newHeight
	}

	newWidth := width * g.maxHeight / height
	if newWidth < 1 {
		newWidth = 1
	}
	return newWidth, g.maxHeight
}
